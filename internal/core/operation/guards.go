// Package operation contains the pure business logic for the operation lifecycle.
// Guards are pure functions that evaluate preconditions without side effects.
package operation

import (
	"fmt"
	"strings"

	"github.com/example/stakeout/internal/core/guard"
)

// CreateOperationContext provides context for operation creation guards.
type CreateOperationContext struct {
	Name          string
	CreatorID     string
	CreatorExists bool
}

// LifecycleContext provides context for guards on an existing operation.
type LifecycleContext struct {
	OperationID string
	State       State
	ActorID     string
	CaseAgentID string // current case agent, empty if none
}

// CloneOperationContext provides context for clone guards.
type CloneOperationContext struct {
	SourceID    string
	SourceState State
}

// CanCreateOperation evaluates whether an operation can be created.
// Rules:
// - Name must not be blank
// - Creator must exist
func CanCreateOperation(ctx CreateOperationContext) guard.Result {
	if strings.TrimSpace(ctx.Name) == "" {
		return guard.Deny(guard.ErrMissingPrecondition, "operation name is required")
	}
	if !ctx.CreatorExists {
		return guard.Deny(guard.ErrNotFound, fmt.Sprintf("user %s not found", ctx.CreatorID))
	}
	return guard.Allow()
}

// CanStartOperation evaluates whether an operation can be started.
// Starting an active operation is allowed and is a no-op.
func CanStartOperation(ctx LifecycleContext) guard.Result {
	if ctx.State == StateEnded {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("cannot start ended operation %s", ctx.OperationID))
	}
	return requireCaseAgent(ctx, "start")
}

// CanEndOperation evaluates whether an operation can be ended.
// Rules:
// - State must not be "ended" (checked first so a repeated end always reports the transition)
// - Actor must be the current case agent
func CanEndOperation(ctx LifecycleContext) guard.Result {
	if ctx.State == StateEnded {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("operation %s has already ended", ctx.OperationID))
	}
	return requireCaseAgent(ctx, "end")
}

// CanUpdateOperation evaluates whether an operation's details can be edited.
func CanUpdateOperation(ctx LifecycleContext) guard.Result {
	if ctx.State == StateEnded {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("cannot update ended operation %s", ctx.OperationID))
	}
	return requireCaseAgent(ctx, "update")
}

// CanCloneOperation evaluates whether an operation can be cloned.
// Rules:
// - Source must be ended
func CanCloneOperation(ctx CloneOperationContext) guard.Result {
	if ctx.SourceState != StateEnded {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("can only clone ended operations (current state: %s)", ctx.SourceState))
	}
	return guard.Allow()
}

func requireCaseAgent(ctx LifecycleContext, action string) guard.Result {
	if ctx.ActorID == "" || ctx.ActorID != ctx.CaseAgentID {
		return guard.Deny(guard.ErrNotAuthorized,
			fmt.Sprintf("only the case agent can %s operation %s", action, ctx.OperationID))
	}
	return guard.Allow()
}
