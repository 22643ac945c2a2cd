// Package assignment contains the pure business logic for field unit assignments.
// Guards are pure functions that evaluate preconditions without side effects.
package assignment

import (
	"fmt"

	"github.com/example/stakeout/internal/core/guard"
)

// Status represents the possible states of an assignment.
type Status string

const (
	StatusAssigned  Status = "assigned"
	StatusEnRoute   Status = "enRoute"
	StatusArrived   Status = "arrived"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusArrived || s == StatusCancelled
}

// AssignContext provides context for assignment creation guards.
type AssignContext struct {
	OperationID      string
	OperationEnded   bool
	ActorID          string
	CaseAgentID      string
	AssigneeID       string
	AssigneeIsMember bool
	Lat, Lng         float64
}

// TransitionContext provides context for status transition guards.
type TransitionContext struct {
	AssignmentID string
	ActorID      string
	AssigneeID   string
	CaseAgentID  string
	Status       Status
}

// CanAssign evaluates whether a location can be assigned.
// Rules:
// - Operation must not be ended
// - Actor must be the case agent
// - Assignee must be an active member
// - Coordinate must be on the globe
func CanAssign(ctx AssignContext) guard.Result {
	if ctx.OperationEnded {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("cannot assign locations in ended operation %s", ctx.OperationID))
	}
	if ctx.ActorID == "" || ctx.ActorID != ctx.CaseAgentID {
		return guard.Deny(guard.ErrNotAuthorized, "only the case agent can assign locations")
	}
	if !ctx.AssigneeIsMember {
		return guard.Deny(guard.ErrNotAMember,
			fmt.Sprintf("user %s is not an active member of operation %s", ctx.AssigneeID, ctx.OperationID))
	}
	if ctx.Lat < -90 || ctx.Lat > 90 || ctx.Lng < -180 || ctx.Lng > 180 {
		return guard.Deny(guard.ErrMissingPrecondition,
			fmt.Sprintf("coordinate (%f, %f) is out of range", ctx.Lat, ctx.Lng))
	}
	return guard.Allow()
}

// CanAcknowledge evaluates assigned → enRoute.
// Rules:
// - Only the assignee
// - Status must be "assigned"
func CanAcknowledge(ctx TransitionContext) guard.Result {
	if r := requireAssignee(ctx, "acknowledge"); !r.Allowed {
		return r
	}
	if ctx.Status != StatusAssigned {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("can only acknowledge assigned locations (current status: %s)", ctx.Status))
	}
	return guard.Allow()
}

// CanMarkArrived evaluates enRoute → arrived.
// Rules:
// - Only the assignee
// - Status must be "enRoute"
func CanMarkArrived(ctx TransitionContext) guard.Result {
	if r := requireAssignee(ctx, "mark arrival on"); !r.Allowed {
		return r
	}
	if ctx.Status != StatusEnRoute {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("can only mark en route locations as arrived (current status: %s)", ctx.Status))
	}
	return guard.Allow()
}

// CanCancel evaluates any non-terminal state → cancelled.
// Rules:
// - Case agent or assignee
// - Status must not be terminal
func CanCancel(ctx TransitionContext) guard.Result {
	if ctx.ActorID == "" || (ctx.ActorID != ctx.AssigneeID && ctx.ActorID != ctx.CaseAgentID) {
		return guard.Deny(guard.ErrNotAuthorized,
			fmt.Sprintf("only the case agent or assignee can cancel assignment %s", ctx.AssignmentID))
	}
	if ctx.Status.Terminal() {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("cannot cancel %s assignment %s", ctx.Status, ctx.AssignmentID))
	}
	return guard.Allow()
}

func requireAssignee(ctx TransitionContext, action string) guard.Result {
	if ctx.ActorID == "" || ctx.ActorID != ctx.AssigneeID {
		return guard.Deny(guard.ErrNotAuthorized,
			fmt.Sprintf("only the assignee can %s assignment %s", action, ctx.AssignmentID))
	}
	return guard.Allow()
}
