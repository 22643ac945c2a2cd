// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives the remote store,
// the real-time event bus and the routing oracle.
package secondary

import (
	"context"
	"time"
)

// IdentityRepository defines the secondary port for the agency/team/user hierarchy.
type IdentityRepository interface {
	// CreateAgency persists a new agency.
	CreateAgency(ctx context.Context, agency *AgencyRecord) error

	// CreateTeam persists a new team under an agency.
	CreateTeam(ctx context.Context, team *TeamRecord) error

	// CreateUser persists a new user on a team.
	CreateUser(ctx context.Context, user *UserRecord) error

	// UpdateProfile updates the mutable profile fields of a user.
	UpdateProfile(ctx context.Context, userID, callsign, vehicleType, vehicleColor string) error

	// GetAgency retrieves an agency by ID.
	GetAgency(ctx context.Context, id string) (*AgencyRecord, error)

	// GetTeam retrieves a team by ID.
	GetTeam(ctx context.Context, id string) (*TeamRecord, error)

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id string) (*UserRecord, error)

	// ListUsers retrieves users matching the given filters.
	ListUsers(ctx context.Context, filters UserFilters) ([]*UserRecord, error)
}

// AgencyRecord represents an agency as stored in persistence.
type AgencyRecord struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// TeamRecord represents a team as stored in persistence.
type TeamRecord struct {
	ID        string
	AgencyID  string
	Name      string
	CreatedAt time.Time
}

// UserRecord represents a user as stored in persistence.
type UserRecord struct {
	ID           string
	TeamID       string
	AgencyID     string
	Name         string
	Callsign     string
	VehicleType  string
	VehicleColor string
	CreatedAt    time.Time
}

// UserFilters contains filter options for querying users.
type UserFilters struct {
	TeamID   string
	AgencyID string
}

// OperationRepository defines the secondary port for operation persistence.
type OperationRepository interface {
	// Create persists a new operation and its creator's case agent membership atomically.
	Create(ctx context.Context, operation *OperationRecord, caseAgent *MemberRecord) error

	// GetByID retrieves an operation by its ID.
	GetByID(ctx context.Context, id string) (*OperationRecord, error)

	// Update updates name and incident number.
	Update(ctx context.Context, id, name, incidentNumber string, updatedAt time.Time) error

	// Start moves an operation to active and stamps starts_at.
	Start(ctx context.Context, id string, startsAt time.Time) error

	// End moves an operation to ended, stamps ends_at, and marks every member left and inactive.
	End(ctx context.Context, id string, endsAt time.Time) error

	// List retrieves operations matching the given filters, newest first.
	List(ctx context.Context, filters OperationFilters) ([]*OperationRecord, error)
}

// OperationRecord represents an operation as stored in persistence.
type OperationRecord struct {
	ID              string
	Name            string
	IncidentNumber  string
	State           string // draft, active, ended
	CreatedByUserID string
	TeamID          string
	AgencyID        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartsAt        *time.Time
	EndsAt          *time.Time
}

// OperationFilters contains filter options for querying operations.
type OperationFilters struct {
	AgencyID string
	States   []string
	MemberID string // only operations this user has (or had) a membership row in
}

// MemberRepository defines the secondary port for operation rosters.
type MemberRepository interface {
	// Get retrieves one membership row, active or left.
	Get(ctx context.Context, operationID, userID string) (*MemberRecord, error)

	// List retrieves the roster. Left members are included only when includeLeft is set.
	List(ctx context.Context, operationID string, includeLeft bool) ([]*MemberRecord, error)

	// CaseAgent returns the active case agent, or nil if none.
	CaseAgent(ctx context.Context, operationID string) (*MemberRecord, error)

	// Add inserts memberships, re-activating rows of members who had left.
	// Returns the number of rows that became active members.
	Add(ctx context.Context, members []*MemberRecord) (int, error)

	// MarkLeft sets left_at and clears is_active.
	MarkLeft(ctx context.Context, operationID, userID string, leftAt time.Time) error

	// Transfer demotes fromID to member and promotes toID to case agent in one transaction.
	Transfer(ctx context.Context, operationID, fromID, toID string) error

	// SetPublishing toggles whether a member is publishing location.
	SetPublishing(ctx context.Context, operationID, userID string, active bool) error
}

// MemberRecord represents an operation membership as stored in persistence.
type MemberRecord struct {
	OperationID string
	UserID      string
	Role        string // case_agent, member
	JoinedAt    time.Time
	LeftAt      *time.Time
	IsActive    bool // publishing location
}

// Joined reports whether the membership is current.
func (m *MemberRecord) Joined() bool {
	return m != nil && m.LeftAt == nil
}

// InviteRepository defines the secondary port for operation invites.
type InviteRepository interface {
	// Create persists a new invite.
	Create(ctx context.Context, invite *InviteRecord) error

	// GetByID retrieves an invite by its ID.
	GetByID(ctx context.Context, id string) (*InviteRecord, error)

	// List retrieves invites matching the given filters, newest first.
	List(ctx context.Context, filters InviteFilters) ([]*InviteRecord, error)

	// Accept marks the invite accepted and adds the member in one transaction.
	Accept(ctx context.Context, inviteID string, respondedAt time.Time, member *MemberRecord) error

	// Decline marks the invite declined.
	Decline(ctx context.Context, inviteID string, respondedAt time.Time) error
}

// InviteRecord represents an invite as stored in persistence.
// Status is the stored value; consumers must apply read-time expiry.
type InviteRecord struct {
	ID            string
	OperationID   string
	InviterUserID string
	InviteeUserID string
	Status        string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	RespondedAt   *time.Time
}

// InviteFilters contains filter options for querying invites.
type InviteFilters struct {
	OperationID   string
	InviteeUserID string
	Status        string // stored status
}

// JoinRequestRepository defines the secondary port for join requests.
type JoinRequestRepository interface {
	// Create persists a new join request.
	Create(ctx context.Context, request *JoinRequestRecord) error

	// GetByID retrieves a join request by its ID.
	GetByID(ctx context.Context, id string) (*JoinRequestRecord, error)

	// List retrieves join requests matching the given filters, newest first.
	List(ctx context.Context, filters JoinRequestFilters) ([]*JoinRequestRecord, error)

	// Approve marks the request approved and adds the member in one transaction.
	Approve(ctx context.Context, requestID, responderID string, respondedAt time.Time, member *MemberRecord) error

	// Deny marks the request denied.
	Deny(ctx context.Context, requestID, responderID string, respondedAt time.Time) error
}

// JoinRequestRecord represents a join request as stored in persistence.
type JoinRequestRecord struct {
	ID                string
	OperationID       string
	RequesterUserID   string
	Status            string
	CreatedAt         time.Time
	ExpiresAt         time.Time
	RespondedAt       *time.Time
	RespondedByUserID string
}

// JoinRequestFilters contains filter options for querying join requests.
type JoinRequestFilters struct {
	OperationID     string
	RequesterUserID string
	Status          string // stored status
}

// TargetRepository defines the secondary port for operation targets.
type TargetRepository interface {
	// Create persists a target together with its inline images.
	Create(ctx context.Context, target *TargetRecord) error

	// Delete removes a target; its images go with it.
	Delete(ctx context.Context, id string) error

	// ListByOperation retrieves all targets of an operation with their images.
	ListByOperation(ctx context.Context, operationID string) ([]*TargetRecord, error)
}

// TargetRecord represents a target as stored in persistence.
type TargetRecord struct {
	ID          string
	OperationID string
	Kind        string // person, vehicle, location
	Status      string // pending, active, clear
	Fields      map[string]string
	Images      []TargetImageRecord
	CreatedAt   time.Time
}

// TargetImageRecord represents one image of a target.
type TargetImageRecord struct {
	ID          string
	StorageKind string // local, remote
	Filename    string
	RemoteURL   string
	LocalPath   string
	Caption     string
	Width       int
	Height      int
	ByteSize    int64
	Position    int
	CreatedAt   time.Time
}

// StagingRepository defines the secondary port for staging points.
type StagingRepository interface {
	// Create persists a staging point. Coordinates are required.
	Create(ctx context.Context, point *StagingRecord) error

	// Delete removes a staging point.
	Delete(ctx context.Context, id string) error

	// ListByOperation retrieves all staging points of an operation.
	ListByOperation(ctx context.Context, operationID string) ([]*StagingRecord, error)
}

// StagingRecord represents a staging point as stored in persistence.
type StagingRecord struct {
	ID          string
	OperationID string
	Label       string
	Address     string
	Lat         float64
	Lng         float64
	CreatedAt   time.Time
}

// AssignmentRepository defines the secondary port for assigned locations.
type AssignmentRepository interface {
	// Create persists a new assignment.
	Create(ctx context.Context, assignment *AssignmentRecord) error

	// GetByID retrieves an assignment by its ID.
	GetByID(ctx context.Context, id string) (*AssignmentRecord, error)

	// List retrieves assignments matching the given filters, newest first.
	List(ctx context.Context, filters AssignmentFilters) ([]*AssignmentRecord, error)

	// UpdateStatus writes a status transition.
	UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time, completedAt *time.Time) error
}

// AssignmentRecord represents an assigned location as stored in persistence.
type AssignmentRecord struct {
	ID               string
	OperationID      string
	AssignedByUserID string
	AssignedToUserID string
	Lat              float64
	Lng              float64
	Label            string
	Notes            string
	Status           string // assigned, enRoute, arrived, cancelled
	AssignedAt       time.Time
	UpdatedAt        *time.Time
	CompletedAt      *time.Time
}

// AssignmentFilters contains filter options for querying assignments.
type AssignmentFilters struct {
	OperationID      string
	AssignedToUserID string
	Statuses         []string
}
