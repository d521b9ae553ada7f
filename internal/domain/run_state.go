package domain

import "fmt"

type RunState int

const (
	StateEditing RunState = iota
	StateTransitioningToRun
	StateRunning
	StateTransitioningToEdit
)

func (s RunState) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateTransitioningToRun:
		return "transitioning-to-run"
	case StateRunning:
		return "running"
	case StateTransitioningToEdit:
		return "transitioning-to-edit"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

func (s RunState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
