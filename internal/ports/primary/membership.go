package primary

import (
	"context"
	"time"
)

// MembershipService defines the primary port for rosters, invites and join requests.
type MembershipService interface {
	// InviteUser invites another user. Any active member may invite.
	InviteUser(ctx context.Context, req InviteUserRequest) (*Invite, error)

	// AcceptInvite accepts an invite addressed to the actor.
	AcceptInvite(ctx context.Context, inviteID string) (*Member, error)

	// DeclineInvite declines an invite addressed to the actor.
	DeclineInvite(ctx context.Context, inviteID string) (*Invite, error)

	// ListMyInvites lists invites addressed to the actor with read-time status.
	ListMyInvites(ctx context.Context) ([]*Invite, error)

	// ListOperationInvites lists invites of an operation (members only).
	ListOperationInvites(ctx context.Context, operationID string) ([]*Invite, error)

	// RequestJoin asks to join an operation.
	RequestJoin(ctx context.Context, operationID string) (*JoinRequest, error)

	// RespondJoin approves or denies a join request (case agent only).
	RespondJoin(ctx context.Context, requestID string, approve bool) (*JoinRequest, error)

	// ListJoinRequests lists join requests of an operation (case agent only).
	ListJoinRequests(ctx context.Context, operationID string) ([]*JoinRequest, error)

	// TransferCaseAgent hands case agent status from the actor to another member.
	TransferCaseAgent(ctx context.Context, operationID, toUserID string) error

	// LeaveOperation removes the actor from the roster.
	LeaveOperation(ctx context.Context, operationID string) error

	// RemoveMember removes another member (case agent only).
	RemoveMember(ctx context.Context, operationID, userID string) error

	// AddMembers adds users directly (case agent only) and returns how many joined.
	AddMembers(ctx context.Context, operationID string, userIDs []string) (int, error)

	// ListMembers returns the active roster.
	ListMembers(ctx context.Context, operationID string) ([]*Member, error)

	// SetPublishing toggles whether the actor is publishing location.
	SetPublishing(ctx context.Context, operationID string, active bool) error
}

// InviteUserRequest contains parameters for inviting a user.
type InviteUserRequest struct {
	OperationID   string
	InviteeUserID string
	TTL           time.Duration // Optional: defaults to the configured invite TTL
}

// Member represents a roster entry at the port boundary.
type Member struct {
	OperationID  string
	UserID       string
	Name         string
	Callsign     string
	VehicleType  string
	VehicleColor string
	Role         string // case_agent, member
	JoinedAt     time.Time
	LeftAt       *time.Time
	IsActive     bool
}

// Invite represents an invite at the port boundary. Status is the effective
// status at read time.
type Invite struct {
	ID            string
	OperationID   string
	InviterUserID string
	InviteeUserID string
	Status        string // pending, accepted, declined, expired
	CreatedAt     time.Time
	ExpiresAt     time.Time
	RespondedAt   *time.Time
}

// JoinRequest represents a join request at the port boundary. Status is the
// effective status at read time.
type JoinRequest struct {
	ID                string
	OperationID       string
	RequesterUserID   string
	Status            string // pending, approved, denied, expired
	CreatedAt         time.Time
	ExpiresAt         time.Time
	RespondedAt       *time.Time
	RespondedByUserID string
}
