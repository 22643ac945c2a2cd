package primary

import (
	"context"
	"time"
)

// IdentityService defines the primary port for provisioning agencies, teams and users.
type IdentityService interface {
	// CreateAgency creates an agency.
	CreateAgency(ctx context.Context, name string) (*Agency, error)

	// CreateTeam creates a team under an agency.
	CreateTeam(ctx context.Context, agencyID, name string) (*Team, error)

	// CreateUser creates a user on a team; the agency is inherited from the team.
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)

	// UpdateProfile updates callsign and vehicle fields.
	UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*User, error)

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID string) (*User, error)

	// ListUsers lists users of a team or agency.
	ListUsers(ctx context.Context, filters UserFilters) ([]*User, error)
}

// CreateUserRequest contains parameters for creating a user.
type CreateUserRequest struct {
	TeamID       string
	Name         string
	Callsign     string
	VehicleType  string
	VehicleColor string
}

// UpdateProfileRequest contains the mutable profile fields.
type UpdateProfileRequest struct {
	UserID       string
	Callsign     string
	VehicleType  string
	VehicleColor string
}

// UserFilters contains filter options for listing users.
type UserFilters struct {
	TeamID   string
	AgencyID string
}

// Agency represents an agency at the port boundary.
type Agency struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Team represents a team at the port boundary.
type Team struct {
	ID        string
	AgencyID  string
	Name      string
	CreatedAt time.Time
}

// User represents a user at the port boundary.
type User struct {
	ID           string
	TeamID       string
	AgencyID     string
	Name         string
	Callsign     string
	VehicleType  string
	VehicleColor string
	CreatedAt    time.Time
}
