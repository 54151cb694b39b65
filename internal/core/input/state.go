package input

import "sync"

// Action is a held movement intent.
type Action uint8

const (
	ActionForward Action = iota
	ActionBackward
	ActionLeft
	ActionRight
	ActionRun
)

func (a Action) String() string {
	switch a {
	case ActionForward:
		return "forward"
	case ActionBackward:
		return "backward"
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	case ActionRun:
		return "run"
	default:
		return "unknown"
	}
}

// State collects input from adapters running on any goroutine. The
// simulation reads it once per tick with Snapshot.
type State struct {
	mu      sync.Mutex
	current Intent
}

// NewState creates an empty input state.
func NewState() *State {
	return &State{}
}

// Set holds or releases an action.
func (s *State) Set(a Action, held bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch a {
	case ActionForward:
		s.current.Forward = held
	case ActionBackward:
		s.current.Backward = held
	case ActionLeft:
		s.current.Left = held
	case ActionRight:
		s.current.Right = held
	case ActionRun:
		s.current.Run = held
	}
}

// SetDirections replaces all four directional flags at once.
func (s *State) SetDirections(forward, backward, left, right bool) {
	s.mu.Lock()
	s.current.Forward = forward
	s.current.Backward = backward
	s.current.Left = left
	s.current.Right = right
	s.mu.Unlock()
}

// AddLook accumulates a look delta until the next snapshot.
func (s *State) AddLook(dyaw, dpitch float64) {
	s.mu.Lock()
	s.current.LookDeltaYaw += dyaw
	s.current.LookDeltaPitch += dpitch
	s.mu.Unlock()
}

// ReleaseAll drops every held action, e.g. when the client disconnects.
func (s *State) ReleaseAll() {
	s.mu.Lock()
	s.current = Intent{LookDeltaYaw: s.current.LookDeltaYaw, LookDeltaPitch: s.current.LookDeltaPitch}
	s.mu.Unlock()
}

// Snapshot returns the held flags and the accumulated look delta, and
// resets the delta.
func (s *State) Snapshot() Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.current
	s.current.LookDeltaYaw = 0
	s.current.LookDeltaPitch = 0
	return out
}
