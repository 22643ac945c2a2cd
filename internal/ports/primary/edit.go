package primary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/stakeout/internal/core/guard"
)

// EditService defines the primary port for editing targets and staging points.
type EditService interface {
	// LoadSnapshot loads the remote targets and staging points of an operation.
	LoadSnapshot(ctx context.Context, operationID string) (*Snapshot, error)

	// BeginEdit loads the remote snapshot once and opens an edit session on it.
	BeginEdit(ctx context.Context, operationID string) (*EditSession, error)

	// Reconcile turns original/current snapshots into create and delete calls.
	// Item failures are reported per item; the error return is reserved for
	// preconditions checked before any remote call.
	Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error)
}

// Snapshot is one side of an edit session.
type Snapshot struct {
	Targets []*Target
	Staging []*StagingPoint
}

// ReconcileRequest contains the two snapshots to reconcile.
type ReconcileRequest struct {
	OperationID string
	Original    Snapshot
	Current     Snapshot
}

// Target represents an operation target at the port boundary.
type Target struct {
	ID     string
	Kind   string // person, vehicle, location
	Status string // pending, active, clear
	Fields map[string]string
	Images []TargetImage
}

// TargetImage represents an image attached to a target.
type TargetImage struct {
	ID          string
	StorageKind string // local, remote
	Filename    string
	RemoteURL   string
	LocalPath   string
	Caption     string
	Width       int
	Height      int
	ByteSize    int64
	CreatedAt   time.Time
}

// StagingPoint represents a staging point at the port boundary.
// A point without coordinates is valid locally but cannot be published.
type StagingPoint struct {
	ID      string
	Label   string
	Address string
	Lat     *float64
	Lng     *float64
}

// Geocoded reports whether the point has both coordinates.
func (p *StagingPoint) Geocoded() bool {
	return p.Lat != nil && p.Lng != nil
}

// EntityKind names the entity an outcome refers to.
type EntityKind string

const (
	EntityTarget  EntityKind = "target"
	EntityStaging EntityKind = "staging"
)

// ItemAction is the remote call an outcome refers to.
type ItemAction string

const (
	ActionCreate ItemAction = "create"
	ActionDelete ItemAction = "delete"
)

// OutcomeStatus is the result of one item of a reconciliation batch.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeSkipped   OutcomeStatus = "skipped"   // never sent, e.g. ungeocoded staging point
	OutcomeAbandoned OutcomeStatus = "abandoned" // not attempted, or cut off, because the context ended
)

// ItemOutcome is the per-item result of a reconciliation batch.
type ItemOutcome struct {
	Entity   EntityKind
	EntityID string
	Action   ItemAction
	Status   OutcomeStatus
	Reason   string
	Err      error
}

// ReconcileResult is the consolidated outcome of a reconciliation batch.
// Targets come before staging points; within each, deletes precede creates,
// then skipped items.
type ReconcileResult struct {
	OperationID string
	Outcomes    []ItemOutcome
}

// Count returns the number of outcomes with the given status.
func (r *ReconcileResult) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Find returns the outcome for an entity and action. Targets and staging
// points may share an id, so the kind is part of the key.
func (r *ReconcileResult) Find(entity EntityKind, entityID string, action ItemAction) (ItemOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Entity == entity && o.EntityID == entityID && o.Action == action {
			return o, true
		}
	}
	return ItemOutcome{}, false
}

// Err summarizes failed and abandoned items as a partial failure, or nil.
// Skipped items are reported in Outcomes but are not failures.
func (r *ReconcileResult) Err() error {
	var failed []string
	var causes []error
	for _, o := range r.Outcomes {
		if o.Status != OutcomeFailed && o.Status != OutcomeAbandoned {
			continue
		}
		failed = append(failed, fmt.Sprintf("%s %s %s", o.Action, o.Entity, o.EntityID))
		if o.Err != nil {
			causes = append(causes, o.Err)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	err := fmt.Errorf("%w: %d item(s) not applied (%s)",
		guard.ErrPartialFailure, len(failed), strings.Join(failed, ", "))
	if len(causes) > 0 {
		err = fmt.Errorf("%w: %w", err, errors.Join(causes...))
	}
	return err
}
