// Package primary defines the primary ports (driving side) of the application:
// the service contracts callers use and the types that cross that boundary.
// The acting user is carried in the context (see ctxutil).
package primary

import (
	"context"
	"time"
)

// OperationService defines the primary port for the operation lifecycle.
type OperationService interface {
	// CreateOperation creates an operation; the actor joins it as case agent.
	CreateOperation(ctx context.Context, req CreateOperationRequest) (*CreateOperationResponse, error)

	// GetOperation retrieves an operation by ID.
	GetOperation(ctx context.Context, operationID string) (*Operation, error)

	// UpdateOperation edits name and incident number (case agent only).
	UpdateOperation(ctx context.Context, req UpdateOperationRequest) error

	// StartOperation moves a draft operation to active. No-op if already active.
	StartOperation(ctx context.Context, operationID string) (*Operation, error)

	// EndOperation ends an operation (case agent only). Ending twice fails.
	EndOperation(ctx context.Context, operationID string) (*Operation, error)

	// CloneOperation creates a fresh active operation from an ended one,
	// copying name, targets and staging points but no membership.
	CloneOperation(ctx context.Context, sourceID string) (*CloneOperationResponse, error)

	// ListActiveOperations lists draft and active operations in the actor's agency.
	ListActiveOperations(ctx context.Context) ([]*OperationListing, error)

	// ListPreviousOperations lists ended operations the actor took part in.
	ListPreviousOperations(ctx context.Context) ([]*Operation, error)
}

// CreateOperationRequest contains parameters for creating an operation.
type CreateOperationRequest struct {
	Name           string
	IncidentNumber string // Optional
	TeamID         string // Optional: defaults to the creator's team
	AgencyID       string // Optional: defaults to the creator's agency
	Draft          bool   // Save as draft instead of starting immediately
}

// CreateOperationResponse contains the result of creating an operation.
type CreateOperationResponse struct {
	OperationID string
	Operation   *Operation
}

// CloneOperationResponse contains the new operation and the outcome of copying
// targets and staging points into it.
type CloneOperationResponse struct {
	OperationID string
	Operation   *Operation
	Copy        *ReconcileResult
}

// UpdateOperationRequest contains parameters for editing an operation.
type UpdateOperationRequest struct {
	OperationID    string
	Name           string
	IncidentNumber string
}

// Operation represents an operation at the port boundary.
// State lifecycle: draft → active → ended
type Operation struct {
	ID              string
	Name            string
	IncidentNumber  string
	State           string
	CreatedByUserID string
	CaseAgentUserID string // empty once the operation has ended
	TeamID          string
	AgencyID        string
	CreatedAt       time.Time
	StartsAt        *time.Time
	EndsAt          *time.Time
}

// OperationListing pairs an operation with the actor's membership in it.
type OperationListing struct {
	Operation *Operation
	IsMember  bool
}
