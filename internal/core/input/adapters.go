package input

// Trigger is a one-shot request produced by an adapter.
type Trigger uint8

const (
	TriggerNone Trigger = iota
	TriggerJump
	TriggerToggleWireframe
)

// DefaultKeymap binds browser KeyboardEvent.code values to held actions.
var DefaultKeymap = map[string]Action{
	"KeyW":       ActionForward,
	"KeyS":       ActionBackward,
	"KeyA":       ActionLeft,
	"KeyD":       ActionRight,
	"ShiftLeft":  ActionRun,
	"ShiftRight": ActionRun,
}

// DefaultTriggers binds key codes to one-shot requests, fired on key down.
var DefaultTriggers = map[string]Trigger{
	"Space": TriggerJump,
	"KeyT":  TriggerToggleWireframe,
}

// Keyboard translates key transitions into State updates.
type Keyboard struct {
	state    *State
	actions  map[string]Action
	triggers map[string]Trigger
}

// NewKeyboard uses the default bindings.
func NewKeyboard(state *State) *Keyboard {
	return &Keyboard{state: state, actions: DefaultKeymap, triggers: DefaultTriggers}
}

// Key handles one key transition and returns the trigger it fired, if any.
func (k *Keyboard) Key(code string, down bool) Trigger {
	if a, ok := k.actions[code]; ok {
		k.state.Set(a, down)
		return TriggerNone
	}
	if !down {
		return TriggerNone
	}
	return k.triggers[code]
}

// Pointer-lock mouse look sensitivity in radians per pixel.
const MouseSensitivity = 0.002

// Mouse turns relative pointer movement into look deltas while pointer
// lock is held.
type Mouse struct {
	state       *State
	locked      bool
	sensitivity float64
}

func NewMouse(state *State) *Mouse {
	return &Mouse{state: state, sensitivity: MouseSensitivity}
}

func (m *Mouse) SetLocked(locked bool) { m.locked = locked }

func (m *Mouse) Locked() bool { return m.locked }

// Move applies a movementX/movementY pair.
func (m *Mouse) Move(dx, dy float64) {
	if !m.locked {
		return
	}
	m.state.AddLook(-dx*m.sensitivity, -dy*m.sensitivity)
}

// Touch tuning: drag distance before a direction registers, and look
// sensitivity in radians per pixel.
const (
	TouchDeadZone    = 20.0
	TouchSensitivity = 0.005
)

type touchPoint struct {
	id   int
	x, y float64
}

// Touch splits the screen in two: a drag that starts on the left half
// steers movement, one that starts on the right half turns the view.
type Touch struct {
	state *State
	width float64

	move *touchPoint
	look *touchPoint
}

func NewTouch(state *State, screenWidth float64) *Touch {
	return &Touch{state: state, width: screenWidth}
}

// Resize updates the split line.
func (t *Touch) Resize(screenWidth float64) { t.width = screenWidth }

func (t *Touch) Start(id int, x, y float64) {
	switch {
	case x < t.width/2 && t.move == nil:
		t.move = &touchPoint{id: id, x: x, y: y}
	case x >= t.width/2 && t.look == nil:
		t.look = &touchPoint{id: id, x: x, y: y}
	}
}

func (t *Touch) Move(id int, x, y float64) {
	switch {
	case t.move != nil && t.move.id == id:
		dx, dy := x-t.move.x, y-t.move.y
		t.state.SetDirections(dy < -TouchDeadZone, dy > TouchDeadZone, dx < -TouchDeadZone, dx > TouchDeadZone)
	case t.look != nil && t.look.id == id:
		dx, dy := x-t.look.x, y-t.look.y
		t.state.AddLook(-dx*TouchSensitivity, -dy*TouchSensitivity)
		t.look.x, t.look.y = x, y
	}
}

func (t *Touch) End(id int) {
	switch {
	case t.move != nil && t.move.id == id:
		t.move = nil
		t.state.SetDirections(false, false, false, false)
	case t.look != nil && t.look.id == id:
		t.look = nil
	}
}
