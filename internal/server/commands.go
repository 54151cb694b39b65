package server

import (
	"encoding/json"
	"fmt"

	"github.com/zeusync/navwalk/internal/scene"
)

// Controls is the part of the session the HUD drives.
type Controls interface {
	Key(code string, down bool)
	Look(dx, dy float64)
	TouchStart(id int, x, y float64)
	TouchMove(id int, x, y float64)
	TouchEnd(id int)
	Resize(screenWidth float64)
	SetPointerLock(locked bool)
	ReleaseInput()
	Jump()
	Teleport() bool
	ToggleWireframe() bool
	Frame() scene.Frame
}

var _ Controls = (*scene.Session)(nil)

// Command types sent by clients.
const (
	CommandKey         = "key"
	CommandLook        = "look"
	CommandTouch       = "touch"
	CommandResize      = "resize"
	CommandPointerLock = "pointer_lock"
	CommandJump        = "jump"
	CommandTeleport    = "teleport"
	CommandWireframe   = "wireframe"
)

// Touch phases.
const (
	TouchStart = "start"
	TouchMove  = "move"
	TouchEnd   = "end"
)

// Command is one client message. Only the fields of its Type are read.
type Command struct {
	Type string `json:"type"`

	Code string `json:"code,omitempty"`
	Down bool   `json:"down,omitempty"`

	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	Phase string  `json:"phase,omitempty"`
	ID    int     `json:"id,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`

	Width  float64 `json:"width,omitempty"`
	Locked bool    `json:"locked,omitempty"`
}

// Message types sent to clients.
const (
	MessageFrame = "frame"
	MessageEvent = "event"
	MessageError = "error"
)

// Message is one server message.
type Message struct {
	Type  string       `json:"type"`
	Frame *scene.Frame `json:"frame,omitempty"`
	Event string       `json:"event,omitempty"`
	Data  any          `json:"data,omitempty"`
	Error string       `json:"error,omitempty"`
}

func decodeCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if cmd.Type == "" {
		return cmd, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	return cmd, nil
}

// apply dispatches a command to the session.
func apply(c Controls, cmd Command) error {
	switch cmd.Type {
	case CommandKey:
		if cmd.Code == "" {
			return fmt.Errorf("%w: key without code", ErrInvalidMessage)
		}
		c.Key(cmd.Code, cmd.Down)
	case CommandLook:
		c.Look(cmd.DX, cmd.DY)
	case CommandTouch:
		switch cmd.Phase {
		case TouchStart:
			c.TouchStart(cmd.ID, cmd.X, cmd.Y)
		case TouchMove:
			c.TouchMove(cmd.ID, cmd.X, cmd.Y)
		case TouchEnd:
			c.TouchEnd(cmd.ID)
		default:
			return fmt.Errorf("%w: touch phase %q", ErrInvalidMessage, cmd.Phase)
		}
	case CommandResize:
		if !(cmd.Width > 0) {
			return fmt.Errorf("%w: resize width %v", ErrInvalidMessage, cmd.Width)
		}
		c.Resize(cmd.Width)
	case CommandPointerLock:
		c.SetPointerLock(cmd.Locked)
	case CommandJump:
		c.Jump()
	case CommandTeleport:
		c.Teleport()
	case CommandWireframe:
		c.ToggleWireframe()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	return nil
}
