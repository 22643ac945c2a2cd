package operation

import "time"

// State represents the lifecycle state of an operation.
type State string

const (
	StateDraft  State = "draft"
	StateActive State = "active"
	StateEnded  State = "ended"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateDraft, StateActive, StateEnded:
		return true
	}
	return false
}

// Transition captures the new state of an operation and the timestamps the
// transition sets. Changed is false when the transition is a no-op.
type Transition struct {
	State    State
	StartsAt *time.Time
	EndsAt   *time.Time
	Changed  bool
}

// InitialTransition returns the state a new operation is created in.
// Operations are active unless explicitly saved as a draft.
func InitialTransition(draft bool, now time.Time) Transition {
	if draft {
		return Transition{State: StateDraft, Changed: true}
	}
	return Transition{State: StateActive, StartsAt: &now, Changed: true}
}

// ApplyStart moves a draft operation to active. Starting an active operation
// leaves it untouched. Callers must run CanStartOperation first.
func ApplyStart(current State, now time.Time) Transition {
	if current == StateActive {
		return Transition{State: StateActive}
	}
	return Transition{State: StateActive, StartsAt: &now, Changed: true}
}

// ApplyEnd moves an operation to the terminal ended state.
func ApplyEnd(now time.Time) Transition {
	return Transition{State: StateEnded, EndsAt: &now, Changed: true}
}
