// Package membership contains the pure business logic for operation rosters,
// invites and join requests.
// Guards are pure functions that evaluate preconditions without side effects.
package membership

import (
	"fmt"

	"github.com/example/stakeout/internal/core/guard"
)

// InviteContext provides context for invite creation guards.
type InviteContext struct {
	OperationID      string
	OperationEnded   bool
	InviterIsMember  bool
	InviteeID        string
	InviteeExists    bool
	InviteeIsMember  bool
	HasPendingInvite bool // an unexpired pending invite exists for the invitee
}

// RespondInviteContext provides context for accept/decline guards.
type RespondInviteContext struct {
	InviteID        string
	ActorID         string
	InviteeID       string
	Status          InviteStatus // effective status
	OperationEnded  bool
	InviteeIsMember bool
}

// RequestJoinContext provides context for join request guards.
type RequestJoinContext struct {
	OperationID       string
	OperationEnded    bool
	RequesterIsMember bool
	HasPendingRequest bool // an unexpired pending request exists for the requester
}

// RespondJoinContext provides context for approve/deny guards.
type RespondJoinContext struct {
	RequestID         string
	ActorID           string
	CaseAgentID       string
	Status            JoinStatus // effective status
	OperationEnded    bool
	RequesterIsMember bool
	Approve           bool
}

// TransferContext provides context for case agent transfer guards.
type TransferContext struct {
	OperationID    string
	OperationEnded bool
	FromID         string
	CaseAgentID    string
	ToID           string
	ToIsMember     bool
}

// LeaveContext provides context for leave guards.
type LeaveContext struct {
	OperationID string
	UserID      string
	IsMember    bool
	IsCaseAgent bool
}

// RemoveContext provides context for member removal guards.
type RemoveContext struct {
	OperationID    string
	OperationEnded bool
	ActorID        string
	CaseAgentID    string
	TargetID       string
	TargetIsMember bool
}

// CaseAgentContext provides context for guards on case-agent-only actions.
type CaseAgentContext struct {
	OperationID    string
	OperationEnded bool
	ActorID        string
	CaseAgentID    string
	Action         string
}

// IsCaseAgent reports whether actorID is the operation's current case agent.
func IsCaseAgent(actorID, caseAgentID string) bool {
	return actorID != "" && actorID == caseAgentID
}

// CanInvite evaluates whether a member may invite another user.
// Rules:
// - Operation must not be ended
// - Inviter must be an active member
// - Invitee must exist and must not already be a member
// - At most one pending invite per invitee
func CanInvite(ctx InviteContext) guard.Result {
	if ctx.OperationEnded {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("cannot invite to ended operation %s", ctx.OperationID))
	}
	if !ctx.InviterIsMember {
		return guard.Deny(guard.ErrNotAuthorized,
			fmt.Sprintf("only members of operation %s can invite", ctx.OperationID))
	}
	if !ctx.InviteeExists {
		return guard.Deny(guard.ErrNotFound, fmt.Sprintf("user %s not found", ctx.InviteeID))
	}
	if ctx.InviteeIsMember {
		return guard.Deny(guard.ErrAlreadyMember,
			fmt.Sprintf("user %s is already a member of operation %s", ctx.InviteeID, ctx.OperationID))
	}
	if ctx.HasPendingInvite {
		return guard.Deny(guard.ErrDuplicatePending,
			fmt.Sprintf("user %s already has a pending invite to operation %s", ctx.InviteeID, ctx.OperationID))
	}
	return guard.Allow()
}

// CanAcceptInvite evaluates whether an invite can be accepted.
// Rules:
// - Only the invitee may respond
// - Expired invites never succeed
// - Status must be pending
// - Operation must not be ended
// - Invitee must not have joined by another path
func CanAcceptInvite(ctx RespondInviteContext) guard.Result {
	if r := canRespondInvite(ctx); !r.Allowed {
		return r
	}
	if ctx.InviteeIsMember {
		return guard.Deny(guard.ErrAlreadyMember,
			fmt.Sprintf("user %s is already a member", ctx.InviteeID))
	}
	return guard.Allow()
}

// CanDeclineInvite evaluates whether an invite can be declined.
func CanDeclineInvite(ctx RespondInviteContext) guard.Result {
	return canRespondInvite(ctx)
}

func canRespondInvite(ctx RespondInviteContext) guard.Result {
	if ctx.ActorID != ctx.InviteeID {
		return guard.Deny(guard.ErrNotAuthorized,
			fmt.Sprintf("invite %s is addressed to another user", ctx.InviteID))
	}
	if ctx.Status == InviteExpired {
		return guard.Deny(guard.ErrExpired, fmt.Sprintf("invite %s has expired", ctx.InviteID))
	}
	if ctx.Status != InvitePending {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("invite %s is no longer pending (current status: %s)", ctx.InviteID, ctx.Status))
	}
	if ctx.OperationEnded {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("invite %s belongs to an ended operation", ctx.InviteID))
	}
	return guard.Allow()
}

// CanRequestJoin evaluates whether a user may request to join.
// Rules:
// - Operation must not be ended
// - Requester must not already be a member
// - At most one pending request per requester
func CanRequestJoin(ctx RequestJoinContext) guard.Result {
	if ctx.OperationEnded {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("cannot join ended operation %s", ctx.OperationID))
	}
	if ctx.RequesterIsMember {
		return guard.Deny(guard.ErrAlreadyMember,
			fmt.Sprintf("already a member of operation %s", ctx.OperationID))
	}
	if ctx.HasPendingRequest {
		return guard.Deny(guard.ErrDuplicatePending,
			fmt.Sprintf("a join request for operation %s is already pending", ctx.OperationID))
	}
	return guard.Allow()
}

// CanRespondJoin evaluates whether a join request can be approved or denied.
// Rules:
// - Only the case agent may respond
// - Expired requests never succeed
// - Status must be pending
// - Operation must not be ended
// - Approval requires the requester not to have joined meanwhile
func CanRespondJoin(ctx RespondJoinContext) guard.Result {
	if !IsCaseAgent(ctx.ActorID, ctx.CaseAgentID) {
		return guard.Deny(guard.ErrNotAuthorized, "only the case agent can respond to join requests")
	}
	if ctx.Status == JoinExpired {
		return guard.Deny(guard.ErrExpired, fmt.Sprintf("join request %s has expired", ctx.RequestID))
	}
	if ctx.Status != JoinPending {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("join request %s is no longer pending (current status: %s)", ctx.RequestID, ctx.Status))
	}
	if ctx.OperationEnded {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("join request %s belongs to an ended operation", ctx.RequestID))
	}
	if ctx.Approve && ctx.RequesterIsMember {
		return guard.Deny(guard.ErrAlreadyMember, "requester is already a member")
	}
	return guard.Allow()
}

// CanTransferCaseAgent evaluates whether case agent status can move.
// Rules:
// - Operation must not be ended
// - From must be the current case agent
// - To must be an active member other than From
func CanTransferCaseAgent(ctx TransferContext) guard.Result {
	if ctx.OperationEnded {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("cannot transfer ended operation %s", ctx.OperationID))
	}
	if !IsCaseAgent(ctx.FromID, ctx.CaseAgentID) {
		return guard.Deny(guard.ErrNotCaseAgent,
			fmt.Sprintf("user %s is not the case agent of operation %s", ctx.FromID, ctx.OperationID))
	}
	if !ctx.ToIsMember {
		return guard.Deny(guard.ErrNotAMember,
			fmt.Sprintf("user %s is not an active member of operation %s", ctx.ToID, ctx.OperationID))
	}
	if ctx.ToID == ctx.FromID {
		return guard.Deny(guard.ErrInvalidTransition, "cannot transfer case agent status to yourself")
	}
	return guard.Allow()
}

// CanLeave evaluates whether a member may leave.
// Rules:
// - Must be an active member
// - The case agent must transfer before leaving
func CanLeave(ctx LeaveContext) guard.Result {
	if !ctx.IsMember {
		return guard.Deny(guard.ErrNotAMember,
			fmt.Sprintf("user %s is not an active member of operation %s", ctx.UserID, ctx.OperationID))
	}
	if ctx.IsCaseAgent {
		return guard.Deny(guard.ErrIsCaseAgent, "the case agent must transfer the operation before leaving")
	}
	return guard.Allow()
}

// CanRemoveMember evaluates whether the case agent may remove a member.
func CanRemoveMember(ctx RemoveContext) guard.Result {
	if r := RequireCaseAgent(CaseAgentContext{
		OperationID:    ctx.OperationID,
		OperationEnded: ctx.OperationEnded,
		ActorID:        ctx.ActorID,
		CaseAgentID:    ctx.CaseAgentID,
		Action:         "remove members",
	}); !r.Allowed {
		return r
	}
	if ctx.TargetID == ctx.CaseAgentID {
		return guard.Deny(guard.ErrIsCaseAgent, "the case agent cannot be removed")
	}
	if !ctx.TargetIsMember {
		return guard.Deny(guard.ErrNotAMember,
			fmt.Sprintf("user %s is not an active member of operation %s", ctx.TargetID, ctx.OperationID))
	}
	return guard.Allow()
}

// RequireCaseAgent evaluates case-agent-only actions on a live operation.
func RequireCaseAgent(ctx CaseAgentContext) guard.Result {
	if ctx.OperationEnded {
		return guard.Deny(guard.ErrInvalidTransition,
			fmt.Sprintf("operation %s has ended", ctx.OperationID))
	}
	if !IsCaseAgent(ctx.ActorID, ctx.CaseAgentID) {
		return guard.Deny(guard.ErrNotAuthorized,
			fmt.Sprintf("only the case agent can %s", ctx.Action))
	}
	return guard.Allow()
}
