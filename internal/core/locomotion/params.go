package locomotion

import (
	"fmt"
	"math"

	"github.com/zeusync/navwalk/internal/core/systems/physics"
)

// Params are the locomotion constants. Rates are per second; the defaults
// equal 0.1 units/frame walking, 0.01 units/frame² gravity and a 0.25
// units/frame jump at 60 frames per second.
type Params struct {
	Height        float64
	Radius        float64
	MoveSpeed     float64
	RunMultiplier float64
	Gravity       float64
	JumpImpulse   float64

	// FallThreshold is the height below which an avatar with no ground
	// under it is recovered to RecoveryPoint.
	FallThreshold float64
	RecoveryPoint physics.Vector3
}

// DefaultParams returns the walkthrough tuning.
func DefaultParams() Params {
	return Params{
		Height:        1.9,
		Radius:        0.25,
		MoveSpeed:     6,
		RunMultiplier: 2,
		Gravity:       36,
		JumpImpulse:   15,
		FallThreshold: -50,
		RecoveryPoint: physics.Vec3(0, 10, 0),
	}
}

// Validate rejects values that would make the integration meaningless.
func (p Params) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{"height", p.Height},
		{"move speed", p.MoveSpeed},
		{"run multiplier", p.RunMultiplier},
		{"gravity", p.Gravity},
		{"jump impulse", p.JumpImpulse},
	}
	for _, c := range checks {
		if !(c.v > 0) || math.IsInf(c.v, 0) {
			return fmt.Errorf("%s must be positive, got %v", c.name, c.v)
		}
	}
	if p.Radius < 0 {
		return fmt.Errorf("radius must not be negative, got %v", p.Radius)
	}
	if !physics.Finite(p.RecoveryPoint) || math.IsNaN(p.FallThreshold) {
		return fmt.Errorf("recovery point and fall threshold must be finite")
	}
	if p.RecoveryPoint.Y() <= p.FallThreshold {
		return fmt.Errorf("recovery point y %v is below the fall threshold %v", p.RecoveryPoint.Y(), p.FallThreshold)
	}
	return nil
}
