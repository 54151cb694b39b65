package locomotion

import (
	"math"

	"github.com/zeusync/navwalk/internal/core/input"
	"github.com/zeusync/navwalk/internal/core/navmesh"
	"github.com/zeusync/navwalk/internal/core/observability/log"
	"github.com/zeusync/navwalk/internal/core/systems/physics"
)

// Controller owns the avatar and advances it against a navigable surface.
// It is not safe for concurrent use; the simulation goroutine drives it.
type Controller struct {
	query  navmesh.Query
	params Params
	logger log.Log

	avatar   AvatarState
	onPlaced func(Recovery)
}

// Option configures a Controller.
type Option func(*Controller)

// WithPlacementHook is called after every spawn, reload or recovery placement.
func WithPlacementHook(fn func(Recovery)) Option {
	return func(c *Controller) { c.onPlaced = fn }
}

// NewController creates a controller with the avatar at the origin,
// airborne, until something places it.
func NewController(query navmesh.Query, params Params, logger log.Log, opts ...Option) *Controller {
	c := &Controller{
		query:  query,
		params: params,
		logger: logger.With(log.String("component", "locomotion")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Avatar returns a copy of the avatar state.
func (c *Controller) Avatar() AvatarState { return c.avatar }

// State is GROUNDED or AIRBORNE.
func (c *Controller) State() State { return c.avatar.State() }

// Params returns the tuning in use.
func (c *Controller) Params() Params { return c.params }

// Tick advances the avatar by dt seconds.
func (c *Controller) Tick(dt float64, in input.Intent, facing input.Look) AvatarState {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return c.avatar
	}
	q := c.snapshot()

	c.moveHorizontal(q, dt, in, facing)
	c.integrateVertical(dt)
	c.resolveGround(q)
	return c.avatar
}

// Jump starts a jump from the ground. Airborne requests are ignored.
func (c *Controller) Jump() bool {
	if !c.avatar.Grounded {
		return false
	}
	c.avatar.VerticalVelocity = c.params.JumpImpulse
	c.avatar.Grounded = false
	return true
}

// MoveVector is the horizontal displacement the intent asks for over dt.
func (c *Controller) MoveVector(dt float64, in input.Intent, facing input.Look) physics.Vector3 {
	fwd := facing.Flat()
	right := physics.RightOf(fwd)

	var dir physics.Vector3
	if in.Forward {
		dir = dir.Add(fwd)
	}
	if in.Backward {
		dir = dir.Sub(fwd)
	}
	if in.Right {
		dir = dir.Add(right)
	}
	if in.Left {
		dir = dir.Sub(right)
	}
	dir = physics.Normalize(dir)

	speed := c.params.MoveSpeed
	if in.Run {
		speed *= c.params.RunMultiplier
	}
	return dir.Mul(speed * dt)
}

// moveHorizontal commits the whole step or none of it.
func (c *Controller) moveHorizontal(q navmesh.Query, dt float64, in input.Intent, facing input.Look) {
	step := c.MoveVector(dt, in, facing)
	if step.X() == 0 && step.Z() == 0 {
		return
	}
	x := c.avatar.Position.X() + step.X()
	z := c.avatar.Position.Z() + step.Z()
	if !q.IsWalkable(x, z) {
		return
	}
	c.avatar.Position[0] = x
	c.avatar.Position[2] = z
}

func (c *Controller) integrateVertical(dt float64) {
	c.avatar.VerticalVelocity -= c.params.Gravity * dt
	c.avatar.Position[1] += c.avatar.VerticalVelocity * dt
}

func (c *Controller) resolveGround(q navmesh.Query) {
	p := c.avatar.Position
	hit, ok := q.ProbeBelow(p.X(), p.Y(), p.Z())
	switch {
	case ok && p.Y() <= hit.Y():
		c.avatar.Position[1] = hit.Y()
		c.avatar.VerticalVelocity = 0
		c.avatar.Grounded = true
	case ok:
		c.avatar.Grounded = false
	default:
		c.avatar.Grounded = false
		if p.Y() < c.params.FallThreshold {
			c.place(q, ReasonFellThrough, c.params.RecoveryPoint)
		}
	}
}

// snapshot pins the surface for one operation when the query supports it.
func (c *Controller) snapshot() navmesh.Query {
	if s, ok := c.query.(interface{ Snapshot() navmesh.Query }); ok {
		return s.Snapshot()
	}
	return c.query
}
