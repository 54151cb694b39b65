package scene

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/navwalk/internal/core/events/bus"
	"github.com/zeusync/navwalk/internal/core/input"
	"github.com/zeusync/navwalk/internal/core/locomotion"
	"github.com/zeusync/navwalk/internal/core/navmesh"
	"github.com/zeusync/navwalk/internal/core/observability/log"
	"github.com/zeusync/navwalk/internal/core/systems/physics"
)

// Options tune the session loop and its placement points.
type Options struct {
	// Step paces the ticker and the accumulator. StepSeconds is the exact
	// dt handed to the controller, since Step is truncated to nanoseconds.
	Step        time.Duration
	StepSeconds float64
	MaxCatchUp  int
	FrameEvery  int

	Spawn         physics.Vector3
	LoadedSpawn   physics.Vector3
	FallbackSpawn physics.Vector3

	ScreenWidth float64
	Look        input.Look
}

// DefaultOptions runs at 60 Hz with the walkthrough spawn points.
func DefaultOptions() Options {
	return Options{
		Step:          time.Second / 60,
		StepSeconds:   1.0 / 60,
		MaxCatchUp:    5,
		FrameEvery:    1,
		Spawn:         physics.Vec3(0, 10, 0),
		LoadedSpawn:   physics.Vec3(30, 10, 0),
		FallbackSpawn: physics.Vec3(0, 2, 0),
		ScreenWidth:   1280,
		Look:          input.DefaultLook,
	}
}

// Session owns all locomotion state for one avatar. Advance and Run must be
// driven from a single goroutine; every other method is safe from any.
type Session struct {
	logger  log.Log
	events  bus.EventBus
	surface *navmesh.Surface
	opts    Options

	controller *locomotion.Controller
	input      *input.State
	look       input.Look
	tick       atomic.Uint64
	acc        time.Duration

	// mu guards the adapters and the pending requests.
	mu                sync.Mutex
	keyboard          *input.Keyboard
	mouse             *input.Mouse
	touch             *input.Touch
	pending           []navmesh.Delivery
	jumpRequested     bool
	teleportRequested bool

	wireframe atomic.Bool
	frame     atomic.Pointer[Frame]
}

// New creates a session and places the avatar at the start spawn point.
func New(surface *navmesh.Surface, params locomotion.Params, events bus.EventBus, logger log.Log, opts Options) *Session {
	if opts.Step <= 0 {
		opts.Step = DefaultOptions().Step
	}
	if !(opts.StepSeconds > 0) {
		opts.StepSeconds = opts.Step.Seconds()
	}
	if opts.MaxCatchUp <= 0 {
		opts.MaxCatchUp = 1
	}
	if opts.FrameEvery <= 0 {
		opts.FrameEvery = 1
	}

	state := input.NewState()
	s := &Session{
		logger:   logger.With(log.String("component", "scene")),
		events:   events,
		surface:  surface,
		opts:     opts,
		input:    state,
		look:     opts.Look,
		keyboard: input.NewKeyboard(state),
		mouse:    input.NewMouse(state),
		touch:    input.NewTouch(state, opts.ScreenWidth),
	}
	s.controller = locomotion.NewController(surface, params, logger, locomotion.WithPlacementHook(s.placed))
	s.controller.Place(locomotion.ReasonSpawn, opts.Spawn)
	s.storeFrame()
	return s
}

// Deliver queues a mesh delivery. It is installed at the next Advance.
func (s *Session) Deliver(d navmesh.Delivery) {
	s.mu.Lock()
	s.pending = append(s.pending, d)
	s.mu.Unlock()
}

// Follow forwards deliveries from a loader channel until it closes or ctx ends.
func (s *Session) Follow(ctx context.Context, deliveries <-chan navmesh.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			s.Deliver(d)
		}
	}
}

// Run advances the session on a ticker until ctx ends.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Step)
	defer ticker.Stop()

	s.logger.Info("simulation started", log.Duration("step", s.opts.Step))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("simulation stopped", log.Uint64("ticks", s.tick.Load()))
			return nil
		case now := <-ticker.C:
			s.Advance(now.Sub(last))
			last = now
		}
	}
}

// Advance installs pending deliveries and then runs as many whole fixed
// steps as elapsed covers, up to MaxCatchUp. It returns the steps run.
func (s *Session) Advance(elapsed time.Duration) int {
	s.applyDeliveries()

	if elapsed > 0 {
		s.acc += elapsed
	}
	steps := 0
	for s.acc >= s.opts.Step {
		if steps >= s.opts.MaxCatchUp {
			s.logger.Debug("simulation behind, dropping steps",
				log.Int("dropped", int(s.acc/s.opts.Step)))
			s.acc %= s.opts.Step
			break
		}
		s.acc -= s.opts.Step
		s.step()
		steps++
	}
	return steps
}

func (s *Session) step() {
	in := s.input.Snapshot()
	s.look = s.look.Apply(in.LookDeltaYaw, in.LookDeltaPitch)

	s.mu.Lock()
	jump := s.jumpRequested
	teleport := s.teleportRequested && s.mouse.Locked()
	s.jumpRequested, s.teleportRequested = false, false
	s.mu.Unlock()

	if jump && s.controller.Jump() {
		s.publish(EventAvatarJumped, s.controller.Avatar().Position)
	}
	if teleport {
		s.teleport()
	}

	s.controller.Tick(s.opts.StepSeconds, in, s.look)
	tick := s.tick.Add(1)
	f := s.storeFrame()
	if tick%uint64(s.opts.FrameEvery) == 0 {
		s.publish(EventFrame, f)
	}
}

func (s *Session) teleport() {
	from := s.controller.Avatar().Position
	eye := from.Add(physics.Up.Mul(s.controller.Params().Height))
	if !s.controller.Teleport(eye, s.look.Forward()) {
		return
	}
	to := s.controller.Avatar().Position
	s.logger.Info("avatar teleported", log.Floats("from", from[:]...), log.Floats("to", to[:]...))
	s.publish(EventAvatarTeleported, Teleported{From: from, To: to})
}

func (s *Session) applyDeliveries() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, d := range pending {
		if d.Mesh == nil {
			continue
		}
		s.surface.Swap(d.Mesh)
		spawn := s.opts.LoadedSpawn
		if d.Fallback {
			spawn = s.opts.FallbackSpawn
		}
		s.controller.Place(locomotion.ReasonSurfaceLoaded, spawn)

		ready := SurfaceReady{
			Source:      d.Source,
			Fallback:    d.Fallback,
			Triangles:   d.Mesh.Len(),
			Fingerprint: d.Mesh.Fingerprint(),
		}
		if d.Err != nil {
			ready.Err = d.Err.Error()
		}
		s.logger.Info("surface installed",
			log.String("source", d.Source),
			log.Bool("fallback", d.Fallback),
			log.Int("triangles", ready.Triangles))
		s.publish(EventSurfaceReady, ready)
		s.storeFrame()
	}
}

func (s *Session) placed(r locomotion.Recovery) {
	if r.Reason == locomotion.ReasonFellThrough {
		s.publish(EventAvatarRecovered, r)
		return
	}
	s.publish(EventAvatarPlaced, r)
}

func (s *Session) publish(eventType string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(bus.NewEvent(eventType, eventSource, data, map[string]any{"tick": s.tick.Load()})); err != nil {
		s.logger.Warn("event handler failed", log.String("event", eventType), log.Error(err))
	}
}

func (s *Session) storeFrame() Frame {
	a := s.controller.Avatar()
	f := Frame{
		Tick:             s.tick.Load(),
		Position:         a.Position,
		VerticalVelocity: a.VerticalVelocity,
		Grounded:         a.Grounded,
		State:            a.State().String(),
		Yaw:              s.look.Yaw,
		Pitch:            s.look.Pitch,
		SurfaceReady:     s.surface.Ready(),
		Wireframe:        s.wireframe.Load(),
	}
	s.frame.Store(&f)
	return f
}

// Frame returns the most recent frame.
func (s *Session) Frame() Frame { return *s.frame.Load() }

// Avatar returns the avatar state as of the last step.
func (s *Session) Avatar() locomotion.AvatarState { return s.Frame().Avatar() }

// SurfaceReady reports whether a surface is installed.
func (s *Session) SurfaceReady() bool { return s.surface.Ready() }

// Wireframe reports the debug overlay toggle.
func (s *Session) Wireframe() bool { return s.wireframe.Load() }
