package primary

import (
	"context"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/example/stakeout/internal/core/guard"
)

// ReconcileFunc commits one reconciliation batch.
type ReconcileFunc func(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error)

// EditSession holds the snapshot loaded when editing began (original) and the
// locally edited working set (current). Commit sends the identity difference
// between the two. A session is used by one caller at a time.
type EditSession struct {
	operationID string
	original    Snapshot
	current     Snapshot
	reconcile   ReconcileFunc
}

// NewEditSession opens a session on a loaded snapshot.
func NewEditSession(operationID string, loaded Snapshot, reconcile ReconcileFunc) *EditSession {
	return &EditSession{
		operationID: operationID,
		original:    loaded.Clone(),
		current:     loaded.Clone(),
		reconcile:   reconcile,
	}
}

// OperationID returns the operation being edited.
func (s *EditSession) OperationID() string {
	return s.operationID
}

// Original returns a copy of the last known remote state.
func (s *EditSession) Original() Snapshot {
	return s.original.Clone()
}

// Current returns a copy of the working set.
func (s *EditSession) Current() Snapshot {
	return s.current.Clone()
}

// AddTarget adds a target to the working set and returns its id.
// A target without an id gets a fresh one.
func (s *EditSession) AddTarget(t *Target) (string, error) {
	c := t.Clone()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if s.targetIndex(c.ID) >= 0 {
		return "", fmt.Errorf("%w: target %s already in session", guard.ErrMissingPrecondition, c.ID)
	}
	s.current.Targets = append(s.current.Targets, c)
	return c.ID, nil
}

// RemoveTarget drops a target from the working set.
func (s *EditSession) RemoveTarget(id string) bool {
	i := s.targetIndex(id)
	if i < 0 {
		return false
	}
	s.current.Targets = append(s.current.Targets[:i], s.current.Targets[i+1:]...)
	return true
}

// ReplaceTarget swaps a target for an edited copy under a fresh id, so the
// edit reaches the store as a delete plus a create.
func (s *EditSession) ReplaceTarget(id string, edit func(*Target)) (string, error) {
	i := s.targetIndex(id)
	if i < 0 {
		return "", fmt.Errorf("%w: target %s not in session", guard.ErrNotFound, id)
	}
	c := s.current.Targets[i].Clone()
	edit(c)
	c.ID = uuid.New().String()
	s.current.Targets[i] = c
	return c.ID, nil
}

// EditTargetInPlace edits a target keeping its id. Commit does not send
// same-id edits.
func (s *EditSession) EditTargetInPlace(id string, edit func(*Target)) bool {
	i := s.targetIndex(id)
	if i < 0 {
		return false
	}
	edit(s.current.Targets[i])
	return true
}

// AddStaging adds a staging point to the working set and returns its id.
func (s *EditSession) AddStaging(p *StagingPoint) (string, error) {
	c := p.Clone()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if s.stagingIndex(c.ID) >= 0 {
		return "", fmt.Errorf("%w: staging point %s already in session", guard.ErrMissingPrecondition, c.ID)
	}
	s.current.Staging = append(s.current.Staging, c)
	return c.ID, nil
}

// RemoveStaging drops a staging point from the working set.
func (s *EditSession) RemoveStaging(id string) bool {
	i := s.stagingIndex(id)
	if i < 0 {
		return false
	}
	s.current.Staging = append(s.current.Staging[:i], s.current.Staging[i+1:]...)
	return true
}

// ReplaceStaging swaps a staging point for an edited copy under a fresh id.
func (s *EditSession) ReplaceStaging(id string, edit func(*StagingPoint)) (string, error) {
	i := s.stagingIndex(id)
	if i < 0 {
		return "", fmt.Errorf("%w: staging point %s not in session", guard.ErrNotFound, id)
	}
	c := s.current.Staging[i].Clone()
	edit(c)
	c.ID = uuid.New().String()
	s.current.Staging[i] = c
	return c.ID, nil
}

// EditStagingInPlace edits a staging point keeping its id. Commit does not
// send same-id edits.
func (s *EditSession) EditStagingInPlace(id string, edit func(*StagingPoint)) bool {
	i := s.stagingIndex(id)
	if i < 0 {
		return false
	}
	edit(s.current.Staging[i])
	return true
}

// Commit reconciles the working set against the original and rebases the
// original onto what the store now holds: successful deletes leave it,
// successful creates join it, everything else stays as it was so a later
// commit retries it.
func (s *EditSession) Commit(ctx context.Context) (*ReconcileResult, error) {
	result, err := s.reconcile(ctx, ReconcileRequest{
		OperationID: s.operationID,
		Original:    s.original.Clone(),
		Current:     s.current.Clone(),
	})
	if err != nil {
		return nil, err
	}
	s.rebase(result)
	return result, nil
}

func (s *EditSession) rebase(result *ReconcileResult) {
	done := func(entity EntityKind, id string, action ItemAction) bool {
		o, ok := result.Find(entity, id, action)
		return ok && o.Status == OutcomeSucceeded
	}

	var targets []*Target
	for _, t := range s.original.Targets {
		if !done(EntityTarget, t.ID, ActionDelete) {
			targets = append(targets, t)
		}
	}
	for _, t := range s.current.Targets {
		if done(EntityTarget, t.ID, ActionCreate) {
			targets = append(targets, t.Clone())
		}
	}

	var staging []*StagingPoint
	for _, p := range s.original.Staging {
		if !done(EntityStaging, p.ID, ActionDelete) {
			staging = append(staging, p)
		}
	}
	for _, p := range s.current.Staging {
		if done(EntityStaging, p.ID, ActionCreate) {
			staging = append(staging, p.Clone())
		}
	}

	s.original = Snapshot{Targets: targets, Staging: staging}
}

func (s *EditSession) targetIndex(id string) int {
	for i, t := range s.current.Targets {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *EditSession) stagingIndex(id string) int {
	for i, p := range s.current.Staging {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Targets: make([]*Target, 0, len(s.Targets)),
		Staging: make([]*StagingPoint, 0, len(s.Staging)),
	}
	for _, t := range s.Targets {
		out.Targets = append(out.Targets, t.Clone())
	}
	for _, p := range s.Staging {
		out.Staging = append(out.Staging, p.Clone())
	}
	return out
}

// Clone returns a deep copy of the target.
func (t *Target) Clone() *Target {
	c := *t
	c.Fields = maps.Clone(t.Fields)
	c.Images = append([]TargetImage(nil), t.Images...)
	return &c
}

// Clone returns a deep copy of the staging point.
func (p *StagingPoint) Clone() *StagingPoint {
	c := *p
	if p.Lat != nil {
		lat := *p.Lat
		c.Lat = &lat
	}
	if p.Lng != nil {
		lng := *p.Lng
		c.Lng = &lng
	}
	return &c
}
