package primary

import (
	"context"
	"time"
)

// AssignmentService defines the primary port for assigned locations.
type AssignmentService interface {
	// Assign sends a member to a location (case agent only).
	Assign(ctx context.Context, req AssignRequest) (*Assignment, error)

	// Acknowledge moves the actor's assignment from assigned to enRoute.
	Acknowledge(ctx context.Context, assignmentID string) (*Assignment, error)

	// MarkArrived moves the actor's assignment from enRoute to arrived.
	MarkArrived(ctx context.Context, assignmentID string) (*Assignment, error)

	// Cancel cancels a non-terminal assignment (case agent or assignee).
	Cancel(ctx context.Context, assignmentID string) (*Assignment, error)

	// GetAssignment retrieves an assignment by ID.
	GetAssignment(ctx context.Context, assignmentID string) (*Assignment, error)

	// ListAssignments lists the assignments of an operation.
	ListAssignments(ctx context.Context, operationID string) ([]*Assignment, error)

	// ActiveAssignmentFor returns the non-terminal assignment of a user, or nil.
	ActiveAssignmentFor(ctx context.Context, operationID, userID string) (*Assignment, error)

	// Progress returns the assignment with derived distance and ETA.
	Progress(ctx context.Context, assignmentID string) (*AssignmentProgress, error)
}

// AssignRequest contains parameters for assigning a location.
type AssignRequest struct {
	OperationID    string
	AssigneeUserID string
	Lat            float64
	Lng            float64
	Label          string
	Notes          string // Optional
}

// Assignment represents an assigned location at the port boundary.
// Status lifecycle: assigned → enRoute → arrived, or cancelled from either.
type Assignment struct {
	ID               string
	OperationID      string
	AssignedByUserID string
	AssignedToUserID string
	Lat              float64
	Lng              float64
	Label            string
	Notes            string
	Status           string
	AssignedAt       time.Time
	UpdatedAt        *time.Time
	CompletedAt      *time.Time
}

// AssignmentProgress is an assignment with display-only route values.
type AssignmentProgress struct {
	Assignment *Assignment
	Route      *Route // nil while not computed
	Distance   string
	ETA        string
}

// Route is a computed route at the port boundary.
type Route struct {
	DistanceMeters float64
	ExpectedTravel time.Duration
	Polyline       [][2]float64
	Steps          []string
	ComputedAt     time.Time
}
