package locomotion

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/navwalk/internal/core/input"
	"github.com/zeusync/navwalk/internal/core/navmesh"
	"github.com/zeusync/navwalk/internal/core/observability/log"
	"github.com/zeusync/navwalk/internal/core/systems/physics"
)

const dt = 1.0 / 60

func quad(t *testing.T, y, x0, z0, x1, z1 float64) *navmesh.Mesh {
	t.Helper()
	m, err := navmesh.Quad(y, x0, z0, x1, z1)
	require.NoError(t, err)
	return m
}

func surfaceWith(t *testing.T, meshes ...*navmesh.Mesh) *navmesh.Surface {
	t.Helper()
	s := navmesh.NewSurface(navmesh.DefaultProbeHeight)
	if len(meshes) == 0 {
		return s
	}
	var tris []physics.Triangle
	for _, m := range meshes {
		tris = append(tris, m.Triangles()...)
	}
	m, err := navmesh.FromTriangles(tris)
	require.NoError(t, err)
	s.Swap(m)
	return s
}

func newController(q navmesh.Query, opts ...Option) *Controller {
	return NewController(q, DefaultParams(), log.Nop(), opts...)
}

func TestPlaceOnSurface(t *testing.T) {
	c := newController(surfaceWith(t, quad(t, 1.25, -5, -5, 5, 5)))

	a := c.PlaceOnSurface(physics.Vec3(2, 10, -3))
	assert.True(t, a.Grounded)
	assert.Zero(t, a.VerticalVelocity)
	assert.InDelta(t, 2.0, a.Position.X(), 1e-9)
	assert.InDelta(t, 1.25, a.Position.Y(), 1e-9)
	assert.InDelta(t, -3.0, a.Position.Z(), 1e-9)
	assert.Equal(t, StateGrounded, c.State())
}

func TestPlaceOnSurfaceIsIdempotent(t *testing.T) {
	c := newController(surfaceWith(t, quad(t, 0, -5, -5, 5, 5)))

	first := c.PlaceOnSurface(physics.Vec3(1, 4, 1))
	second := c.PlaceOnSurface(physics.Vec3(1, 4, 1))
	assert.Equal(t, first, second)

	// Same for a hole.
	first = c.PlaceOnSurface(physics.Vec3(40, 4, 1))
	second = c.PlaceOnSurface(physics.Vec3(40, 4, 1))
	assert.Equal(t, first, second)
	assert.False(t, second.Grounded)
}

func TestMoveVector(t *testing.T) {
	c := newController(surfaceWith(t))
	speed := c.Params().MoveSpeed * dt

	v := c.MoveVector(dt, input.Intent{Forward: true}, input.Look{})
	assert.InDelta(t, -speed, v.Z(), 1e-12)
	assert.InDelta(t, 0.0, v.X(), 1e-12)

	v = c.MoveVector(dt, input.Intent{Forward: true, Right: true}, input.Look{})
	assert.InDelta(t, speed, v.Len(), 1e-12, "diagonals are normalized")
	assert.Greater(t, v.X(), 0.0)

	v = c.MoveVector(dt, input.Intent{Backward: true, Run: true}, input.Look{})
	assert.InDelta(t, 2*speed, v.Z(), 1e-12)

	v = c.MoveVector(dt, input.Intent{Forward: true, Backward: true}, input.Look{})
	assert.Equal(t, physics.Vector3{}, v)

	v = c.MoveVector(dt, input.Intent{}, input.Look{Yaw: 1})
	assert.Equal(t, physics.Vector3{}, v, "no intent, no residual momentum")

	// Looking straight down still walks horizontally.
	v = c.MoveVector(dt, input.Intent{Forward: true}, input.Look{Pitch: -math.Pi / 2})
	assert.InDelta(t, speed, v.Len(), 1e-12)
	assert.Zero(t, v.Y())
}

func TestWalkStopsAtEdge(t *testing.T) {
	c := newController(surfaceWith(t, quad(t, 0, -1, -1, 1, 1)))
	c.PlaceOnSurface(physics.Vec3(0, 5, 0))

	for i := 0; i < 100; i++ {
		c.Tick(dt, input.Intent{Forward: true}, input.Look{})
	}
	a := c.Avatar()
	assert.True(t, a.Grounded)
	assert.GreaterOrEqual(t, a.Position.Z(), -1.0-1e-9)
	assert.Less(t, a.Position.Z(), -1.0+c.Params().MoveSpeed*dt)
	assert.InDelta(t, 0.0, a.Position.X(), 1e-12)
}

func TestRejectedMovesNeverChangeXZ(t *testing.T) {
	// An L-shaped floor with a hole in the corner.
	s := surfaceWith(t,
		quad(t, 0, -4, -4, 4, 0),
		quad(t, 0, -4, 0, 0, 4),
	)
	c := newController(s)
	c.PlaceOnSurface(physics.Vec3(-2, 3, -2))

	rng := rand.New(rand.NewSource(7))
	look := input.Look{}
	for i := 0; i < 2000; i++ {
		in := input.Intent{
			Forward:  rng.Intn(2) == 0,
			Backward: rng.Intn(4) == 0,
			Left:     rng.Intn(3) == 0,
			Right:    rng.Intn(3) == 0,
			Run:      rng.Intn(2) == 0,
		}
		look = look.Apply(rng.Float64()-0.5, 0)

		before := c.Avatar().Position
		step := c.MoveVector(dt, in, look)
		candidateOK := s.IsWalkable(before.X()+step.X(), before.Z()+step.Z())

		after := c.Tick(dt, in, look).Position
		if step.X() != 0 || step.Z() != 0 {
			if candidateOK {
				assert.InDelta(t, before.X()+step.X(), after.X(), 1e-12)
			} else {
				require.Equal(t, before.X(), after.X(), "tick %d", i)
				require.Equal(t, before.Z(), after.Z(), "tick %d", i)
			}
		}
		require.True(t, s.IsWalkable(after.X(), after.Z()), "tick %d left the surface", i)
		require.True(t, c.Avatar().Grounded)
	}
}

func TestWalkingOntoStepSnapsUp(t *testing.T) {
	c := newController(surfaceWith(t,
		quad(t, 0, -1, 0, 1, 4),
		quad(t, 0.3, -1, -4, 1, 0),
	))
	c.PlaceOnSurface(physics.Vec3(0, 5, 1))

	for i := 0; i < 30; i++ {
		c.Tick(dt, input.Intent{Forward: true}, input.Look{})
	}
	a := c.Avatar()
	assert.Less(t, a.Position.Z(), 0.0)
	assert.InDelta(t, 0.3, a.Position.Y(), 1e-9)
	assert.True(t, a.Grounded)
}

func TestGroundingConvergence(t *testing.T) {
	const H = 2.0
	c := newController(surfaceWith(t, quad(t, H, -5, -5, 5, 5)))
	c.avatar = AvatarState{Position: physics.Vec3(0, H+5, 0)}

	p := c.Params()
	// Distance fallen after n ticks is g*dt²*n(n+1)/2.
	bound := int(math.Ceil(math.Sqrt(2*5/(p.Gravity*dt*dt)))) + 1

	ticks := 0
	for !c.Avatar().Grounded {
		require.Less(t, ticks, bound, "did not land within %d ticks", bound)
		c.Tick(dt, input.Intent{}, input.Look{})
		ticks++
	}

	for i := 0; i < 10; i++ {
		a := c.Avatar()
		assert.InDelta(t, H, a.Position.Y(), 1e-9)
		assert.True(t, a.Grounded)
		assert.Equal(t, 0.0, a.VerticalVelocity)
		c.Tick(dt, input.Intent{}, input.Look{})
	}
}

func TestJumpRoundTrip(t *testing.T) {
	p := DefaultParams()
	p.Gravity = 20
	p.JumpImpulse = 5.3
	c := NewController(surfaceWith(t, quad(t, 0, -5, -5, 5, 5)), p, log.Nop())
	c.PlaceOnSurface(physics.Vec3(0, 1, 0))

	require.True(t, c.Jump())
	a := c.Avatar()
	assert.False(t, a.Grounded)
	assert.Equal(t, p.JumpImpulse, a.VerticalVelocity)
	assert.Greater(t, a.VerticalVelocity, 0.0)

	heights := []float64{a.Position.Y()}
	for i := 0; i < 500 && !c.Avatar().Grounded; i++ {
		heights = append(heights, c.Tick(dt, input.Intent{}, input.Look{}).Position.Y())
	}
	require.True(t, c.Avatar().Grounded)
	assert.InDelta(t, 0.0, c.Avatar().Position.Y(), 1e-9)

	peaks := 0
	rising := true
	for i := 1; i < len(heights); i++ {
		require.NotEqual(t, heights[i-1], heights[i], "plateau at step %d", i)
		up := heights[i] > heights[i-1]
		if rising && !up {
			rising = false
			peaks++
		} else if !rising && up {
			t.Fatalf("trajectory rose again at step %d", i)
		}
	}
	assert.Equal(t, 1, peaks)
}

func TestNoDoubleJump(t *testing.T) {
	c := newController(surfaceWith(t, quad(t, 0, -5, -5, 5, 5)))
	c.PlaceOnSurface(physics.Vec3(0, 1, 0))
	require.True(t, c.Jump())
	c.Tick(dt, input.Intent{}, input.Look{})

	before := c.Avatar()
	require.False(t, before.Grounded)
	assert.False(t, c.Jump())
	assert.Equal(t, before, c.Avatar())
}

func TestNonPositiveDeltaIsNoop(t *testing.T) {
	c := newController(surfaceWith(t, quad(t, 0, -5, -5, 5, 5)))
	c.avatar = AvatarState{Position: physics.Vec3(0, 3, 0), VerticalVelocity: -1}

	before := c.Avatar()
	assert.Equal(t, before, c.Tick(0, input.Intent{Forward: true}, input.Look{}))
	assert.Equal(t, before, c.Tick(-dt, input.Intent{Forward: true}, input.Look{}))
	assert.Equal(t, before, c.Tick(math.NaN(), input.Intent{Forward: true}, input.Look{}))
}

func TestRecoveryWithMissingSurface(t *testing.T) {
	s := surfaceWith(t)
	c := newController(s)

	a := c.PlaceOnSurface(physics.Vec3(5, 10, 5))
	assert.Equal(t, physics.Vec3(5, 10, 5), a.Position)
	assert.False(t, a.Grounded)

	s.Swap(quad(t, 0, -10, -10, 10, 10))
	for i := 0; i < 200 && !c.Avatar().Grounded; i++ {
		c.Tick(dt, input.Intent{}, input.Look{})
	}
	a = c.Avatar()
	require.True(t, a.Grounded)
	assert.InDelta(t, 0.0, a.Position.Y(), 1e-9)
	assert.Equal(t, 5.0, a.Position.X())
	assert.Equal(t, 5.0, a.Position.Z())
	assert.Zero(t, a.VerticalVelocity)
}

func TestFallThroughRecoversOnce(t *testing.T) {
	s := surfaceWith(t, quad(t, 0, -5, -5, 5, 5))
	var recoveries []Recovery
	c := newController(s, WithPlacementHook(func(r Recovery) {
		if r.Reason == ReasonFellThrough {
			recoveries = append(recoveries, r)
		}
	}))
	c.PlaceOnSurface(physics.Vec3(1, 2, 1))
	require.True(t, c.Avatar().Grounded)

	s.Swap(nil)
	for i := 0; i < 1000 && len(recoveries) == 0; i++ {
		a := c.Tick(dt, input.Intent{}, input.Look{})
		if len(recoveries) == 0 {
			assert.False(t, a.Grounded)
		}
	}
	require.Len(t, recoveries, 1)

	p := c.Params()
	assert.Less(t, recoveries[0].From.Y(), p.FallThreshold)
	assert.False(t, recoveries[0].OnSurface)
	assert.Equal(t, p.RecoveryPoint, c.Avatar().Position)
	assert.False(t, c.Avatar().Grounded)

	for i := 0; i < 30; i++ {
		c.Tick(dt, input.Intent{}, input.Look{})
	}
	assert.Len(t, recoveries, 1)
}

func TestFallThroughLandsOnSurfaceBelowRecoveryPoint(t *testing.T) {
	// A floor that does not reach the avatar but covers the recovery point.
	s := surfaceWith(t, quad(t, 0, -5, -5, 5, 5))
	c := newController(s)
	c.avatar = AvatarState{Position: physics.Vec3(30, -50.5, 30)}

	c.Tick(dt, input.Intent{}, input.Look{})
	a := c.Avatar()
	assert.True(t, a.Grounded)
	assert.InDelta(t, 0.0, a.Position.Y(), 1e-9)
	assert.InDelta(t, 0.0, a.Position.X(), 1e-9)
}
