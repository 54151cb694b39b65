package scene

import (
	"github.com/zeusync/navwalk/internal/core/locomotion"
	"github.com/zeusync/navwalk/internal/core/systems/physics"
)

// Event types published on the session bus.
const (
	EventSurfaceReady     = "surface.ready"
	EventAvatarPlaced     = "avatar.placed"
	EventAvatarRecovered  = "avatar.recovered"
	EventAvatarTeleported = "avatar.teleported"
	EventAvatarJumped     = "avatar.jumped"
	EventWireframe        = "debug.wireframe"
	EventFrame            = "scene.frame"
)

const eventSource = "scene"

// SurfaceReady is the payload of EventSurfaceReady.
type SurfaceReady struct {
	Source      string `json:"source"`
	Fallback    bool   `json:"fallback"`
	Triangles   int    `json:"triangles"`
	Fingerprint uint64 `json:"fingerprint"`
	Err         string `json:"error,omitempty"`
}

// Teleported is the payload of EventAvatarTeleported.
type Teleported struct {
	From physics.Vector3 `json:"from"`
	To   physics.Vector3 `json:"to"`
}

// Frame is the per-tick view of the session sent to observers.
type Frame struct {
	Tick             uint64          `json:"tick"`
	Position         physics.Vector3 `json:"position"`
	VerticalVelocity float64         `json:"vertical_velocity"`
	Grounded         bool            `json:"grounded"`
	State            string          `json:"state"`
	Yaw              float64         `json:"yaw"`
	Pitch            float64         `json:"pitch"`
	SurfaceReady     bool            `json:"surface_ready"`
	Wireframe        bool            `json:"wireframe"`
}

// Avatar rebuilds the avatar state carried by the frame.
func (f Frame) Avatar() locomotion.AvatarState {
	return locomotion.AvatarState{
		Position:         f.Position,
		VerticalVelocity: f.VerticalVelocity,
		Grounded:         f.Grounded,
	}
}
