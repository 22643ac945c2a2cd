package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/core/operation"
	"github.com/example/stakeout/internal/ctxutil"
	"github.com/example/stakeout/internal/ports/secondary"
)

// Clock returns the current time. Services take one so tests can pin time.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

func newID() string {
	return uuid.New().String()
}

// requireActor returns the acting user from ctx.
func requireActor(ctx context.Context) (string, error) {
	actorID, ok := ctxutil.Actor(ctx)
	if !ok {
		return "", fmt.Errorf("%w: no acting user in context", guard.ErrNotAuthorized)
	}
	return actorID, nil
}

// activeMember loads a membership row and reports whether it is current.
// A missing row is not an error.
func activeMember(ctx context.Context, repo secondary.MemberRepository, operationID, userID string) (*secondary.MemberRecord, bool, error) {
	member, err := repo.Get(ctx, operationID, userID)
	if err != nil {
		if errors.Is(err, guard.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load membership: %w", err)
	}
	return member, member.Joined(), nil
}

// caseAgentID returns the current case agent's user id, or "" if none.
func caseAgentID(ctx context.Context, repo secondary.MemberRepository, operationID string) (string, error) {
	agent, err := repo.CaseAgent(ctx, operationID)
	if err != nil {
		return "", fmt.Errorf("failed to load case agent: %w", err)
	}
	if agent == nil {
		return "", nil
	}
	return agent.UserID, nil
}

// requireReader checks that the actor may read an operation's roster,
// assignments and targets. Active members always may; once the operation has
// ended, anyone who was ever a member keeps read access.
func requireReader(ctx context.Context, repo secondary.MemberRepository, op *secondary.OperationRecord) (string, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return "", err
	}
	member, joined, err := activeMember(ctx, repo, op.ID, actorID)
	if err != nil {
		return "", err
	}
	if joined || (member != nil && operation.State(op.State) == operation.StateEnded) {
		return actorID, nil
	}
	return "", fmt.Errorf("%w: user %s is not a member of operation %s", guard.ErrNotAMember, actorID, op.ID)
}
