package locomotion

import "github.com/zeusync/navwalk/internal/core/systems/physics"

// AvatarState is the single mutable avatar record.
type AvatarState struct {
	Position         physics.Vector3
	VerticalVelocity float64
	Grounded         bool
}

// State is the locomotion state machine position.
type State uint8

const (
	StateAirborne State = iota
	StateGrounded
)

func (s State) String() string {
	if s == StateGrounded {
		return "grounded"
	}
	return "airborne"
}

// State derives the state machine position from the grounded flag.
func (a AvatarState) State() State {
	if a.Grounded {
		return StateGrounded
	}
	return StateAirborne
}

// Recovery describes one spawn/recovery placement.
type Recovery struct {
	Reason Reason
	From   physics.Vector3
	To     AvatarState
	// OnSurface is false when the avatar was put at the fallback verbatim.
	OnSurface bool
}

// Reason says why the avatar was placed.
type Reason uint8

const (
	ReasonSpawn Reason = iota
	ReasonSurfaceLoaded
	ReasonFellThrough
)

func (r Reason) String() string {
	switch r {
	case ReasonSpawn:
		return "spawn"
	case ReasonSurfaceLoaded:
		return "surface_loaded"
	case ReasonFellThrough:
		return "fell_through"
	default:
		return "unknown"
	}
}
