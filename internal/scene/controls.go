package scene

import (
	"github.com/zeusync/navwalk/internal/core/input"
	"github.com/zeusync/navwalk/internal/core/observability/log"
)

// Key forwards a key transition. Trigger keys fire on key down.
func (s *Session) Key(code string, down bool) {
	s.mu.Lock()
	trigger := s.keyboard.Key(code, down)
	s.mu.Unlock()

	switch trigger {
	case input.TriggerJump:
		s.Jump()
	case input.TriggerToggleWireframe:
		s.ToggleWireframe()
	}
}

// Look forwards relative pointer movement. It is ignored without pointer lock.
func (s *Session) Look(dx, dy float64) {
	s.mu.Lock()
	s.mouse.Move(dx, dy)
	s.mu.Unlock()
}

// SetPointerLock enables mouse look and teleporting.
func (s *Session) SetPointerLock(locked bool) {
	s.mu.Lock()
	s.mouse.SetLocked(locked)
	s.mu.Unlock()
	s.logger.Debug("pointer lock changed", log.Bool("locked", locked))
}

// PointerLocked reports whether look control is active.
func (s *Session) PointerLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mouse.Locked()
}

func (s *Session) TouchStart(id int, x, y float64) {
	s.mu.Lock()
	s.touch.Start(id, x, y)
	s.mu.Unlock()
}

func (s *Session) TouchMove(id int, x, y float64) {
	s.mu.Lock()
	s.touch.Move(id, x, y)
	s.mu.Unlock()
}

func (s *Session) TouchEnd(id int) {
	s.mu.Lock()
	s.touch.End(id)
	s.mu.Unlock()
}

// Resize moves the touch split line.
func (s *Session) Resize(screenWidth float64) {
	s.mu.Lock()
	s.touch.Resize(screenWidth)
	s.mu.Unlock()
}

// ReleaseInput drops every held key, e.g. when the controlling client leaves.
func (s *Session) ReleaseInput() {
	s.input.ReleaseAll()
}

// Jump requests a jump at the next step. Airborne requests are dropped then.
func (s *Session) Jump() {
	s.mu.Lock()
	s.jumpRequested = true
	s.mu.Unlock()
}

// Teleport requests a teleport along the view direction at the next step.
// It reports false, and queues nothing, without pointer lock.
func (s *Session) Teleport() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mouse.Locked() {
		return false
	}
	s.teleportRequested = true
	return true
}

// ToggleWireframe flips the debug overlay and returns the new value.
func (s *Session) ToggleWireframe() bool {
	for {
		old := s.wireframe.Load()
		if s.wireframe.CompareAndSwap(old, !old) {
			s.publish(EventWireframe, !old)
			return !old
		}
	}
}
