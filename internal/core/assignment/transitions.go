package assignment

import "time"

// TransitionResult captures the new status and the timestamps it sets.
type TransitionResult struct {
	Status      Status
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// ApplyTransition applies a guarded status change at now.
// Arrival stamps CompletedAt; other transitions only touch UpdatedAt.
func ApplyTransition(next Status, now time.Time) TransitionResult {
	result := TransitionResult{Status: next, UpdatedAt: now}
	if next == StatusArrived {
		result.CompletedAt = &now
	}
	return result
}

// InitialStatus returns the status of a new assignment.
func InitialStatus() Status {
	return StatusAssigned
}
