package input

import (
	"math"

	"github.com/zeusync/navwalk/internal/core/systems/physics"
)

// Intent is one tick's worth of movement input.
type Intent struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Run      bool

	// Look deltas accumulated since the previous snapshot, in radians.
	LookDeltaYaw   float64
	LookDeltaPitch float64
}

// Moving reports whether any directional flag is held.
func (i Intent) Moving() bool {
	return i.Forward || i.Backward || i.Left || i.Right
}

// Look is the camera orientation. Yaw rotates about +Y, pitch tilts the
// view up (positive) or down and is kept within [-pi/2, pi/2].
type Look struct {
	Yaw   float64
	Pitch float64
}

// DefaultLook faces -X, matching the initial camera of the walkthrough.
var DefaultLook = Look{Yaw: math.Pi / 2}

// Apply adds deltas, wraps yaw into [-pi, pi] and clamps pitch.
// Non-finite deltas are ignored.
func (l Look) Apply(dyaw, dpitch float64) Look {
	if isFinite(dyaw) {
		l.Yaw = math.Remainder(l.Yaw+dyaw, 2*math.Pi)
	}
	if isFinite(dpitch) {
		l.Pitch = clampPitch(l.Pitch + dpitch)
	}
	return l
}

// Forward is the unit view direction. Yaw 0 looks down -Z.
func (l Look) Forward() physics.Vector3 {
	cp := math.Cos(l.Pitch)
	return physics.Vec3(-math.Sin(l.Yaw)*cp, math.Sin(l.Pitch), -math.Cos(l.Yaw)*cp)
}

// Flat is the horizontal facing used to project movement.
func (l Look) Flat() physics.Vector3 {
	return physics.Vec3(-math.Sin(l.Yaw), 0, -math.Cos(l.Yaw))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clampPitch(p float64) float64 {
	return math.Max(-math.Pi/2, math.Min(math.Pi/2, p))
}
