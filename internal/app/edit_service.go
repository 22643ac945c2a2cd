package app

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/core/operation"
	"github.com/example/stakeout/internal/core/reconcile"
	"github.com/example/stakeout/internal/ports/primary"
	"github.com/example/stakeout/internal/ports/secondary"
)

// DefaultReconcileConcurrency bounds in-flight store calls per batch.
const DefaultReconcileConcurrency = 4

// EditServiceImpl implements the EditService interface.
type EditServiceImpl struct {
	operationRepo secondary.OperationRepository
	memberRepo    secondary.MemberRepository
	targetRepo    secondary.TargetRepository
	stagingRepo   secondary.StagingRepository
	concurrency   int
	now           Clock
	logger        *zap.Logger
}

// NewEditService creates a new EditService with injected dependencies.
func NewEditService(
	operationRepo secondary.OperationRepository,
	memberRepo secondary.MemberRepository,
	targetRepo secondary.TargetRepository,
	stagingRepo secondary.StagingRepository,
	concurrency int,
	now Clock,
	logger *zap.Logger,
) *EditServiceImpl {
	if concurrency <= 0 {
		concurrency = DefaultReconcileConcurrency
	}
	if now == nil {
		now = SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditServiceImpl{
		operationRepo: operationRepo,
		memberRepo:    memberRepo,
		targetRepo:    targetRepo,
		stagingRepo:   stagingRepo,
		concurrency:   concurrency,
		now:           now,
		logger:        logger,
	}
}

// LoadSnapshot loads the remote targets and staging points of an operation.
func (s *EditServiceImpl) LoadSnapshot(ctx context.Context, operationID string) (*primary.Snapshot, error) {
	if err := s.authorize(ctx, operationID); err != nil {
		return nil, err
	}

	targets, err := s.targetRepo.ListByOperation(ctx, operationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load targets: %w", err)
	}
	staging, err := s.stagingRepo.ListByOperation(ctx, operationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load staging points: %w", err)
	}

	snapshot := &primary.Snapshot{
		Targets: make([]*primary.Target, len(targets)),
		Staging: make([]*primary.StagingPoint, len(staging)),
	}
	for i, t := range targets {
		snapshot.Targets[i] = recordToTarget(t)
	}
	for i, p := range staging {
		snapshot.Staging[i] = recordToStaging(p)
	}
	return snapshot, nil
}

// BeginEdit loads the remote snapshot once and opens an edit session on it.
func (s *EditServiceImpl) BeginEdit(ctx context.Context, operationID string) (*primary.EditSession, error) {
	snapshot, err := s.LoadSnapshot(ctx, operationID)
	if err != nil {
		return nil, err
	}
	return primary.NewEditSession(operationID, *snapshot, s.Reconcile), nil
}

// item is one remote call of a batch.
type item struct {
	entity primary.EntityKind
	id     string
	action primary.ItemAction
	call   func(ctx context.Context) error
}

// Reconcile issues one create per id only in current and one delete per id
// only in original. Ids in both sides are never sent, even if their fields
// changed. Ungeocoded staging points are skipped. Item calls run
// concurrently; a failed item never stops its siblings. Once ctx is done,
// items not yet started, and calls cut off by it, are reported abandoned.
func (s *EditServiceImpl) Reconcile(ctx context.Context, req primary.ReconcileRequest) (*primary.ReconcileResult, error) {
	if strings.TrimSpace(req.OperationID) == "" {
		return nil, fmt.Errorf("%w: no active operation", guard.ErrMissingPrecondition)
	}
	if err := s.authorize(ctx, req.OperationID); err != nil {
		return nil, err
	}

	targetPlan := reconcile.Diff(req.Original.Targets, req.Current.Targets,
		func(t *primary.Target) string { return t.ID })
	stagingPlan := reconcile.HoldBack(
		reconcile.Diff(req.Original.Staging, req.Current.Staging,
			func(p *primary.StagingPoint) string { return p.ID }),
		(*primary.StagingPoint).Geocoded)

	now := s.now()
	var items []item
	for _, t := range targetPlan.Deletes {
		id := t.ID
		items = append(items, item{primary.EntityTarget, id, primary.ActionDelete,
			func(ctx context.Context) error { return s.targetRepo.Delete(ctx, id) }})
	}
	for _, t := range targetPlan.Creates {
		record := targetToRecord(req.OperationID, t, now)
		items = append(items, item{primary.EntityTarget, t.ID, primary.ActionCreate,
			func(ctx context.Context) error { return s.targetRepo.Create(ctx, record) }})
	}
	for _, p := range stagingPlan.Deletes {
		id := p.ID
		items = append(items, item{primary.EntityStaging, id, primary.ActionDelete,
			func(ctx context.Context) error { return s.stagingRepo.Delete(ctx, id) }})
	}
	for _, p := range stagingPlan.Creates {
		record := stagingToRecord(req.OperationID, p, now)
		items = append(items, item{primary.EntityStaging, p.ID, primary.ActionCreate,
			func(ctx context.Context) error { return s.stagingRepo.Create(ctx, record) }})
	}

	outcomes := make([]primary.ItemOutcome, len(items), len(items)+len(stagingPlan.Skipped))
	for i, it := range items {
		outcomes[i] = primary.ItemOutcome{Entity: it.entity, EntityID: it.id, Action: it.action}
	}

	// Item errors are recorded in their own slot; no goroutine returns an
	// error, so one failure never cancels the others.
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, it := range items {
		if ctx.Err() != nil {
			outcomes[i].Status = primary.OutcomeAbandoned
			outcomes[i].Err = ctx.Err()
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i].Status = primary.OutcomeAbandoned
				outcomes[i].Err = err
				return nil
			}
			if err := it.call(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
					outcomes[i].Status = primary.OutcomeAbandoned
					outcomes[i].Err = err
					return nil
				}
				outcomes[i].Status = primary.OutcomeFailed
				outcomes[i].Err = err
				outcomes[i].Reason = err.Error()
				s.logger.Warn("reconcile item failed",
					zap.String("operation_id", req.OperationID),
					zap.String("entity", string(it.entity)),
					zap.String("entity_id", it.id),
					zap.String("action", string(it.action)),
					zap.Error(err))
				return nil
			}
			outcomes[i].Status = primary.OutcomeSucceeded
			return nil
		})
	}
	_ = g.Wait()

	for _, p := range stagingPlan.Skipped {
		outcomes = append(outcomes, primary.ItemOutcome{
			Entity:   primary.EntityStaging,
			EntityID: p.ID,
			Action:   primary.ActionCreate,
			Status:   primary.OutcomeSkipped,
			Reason:   "staging point has no coordinates",
		})
	}

	result := &primary.ReconcileResult{OperationID: req.OperationID, Outcomes: outcomes}
	s.logger.Info("reconciled operation",
		zap.String("operation_id", req.OperationID),
		zap.Int("succeeded", result.Count(primary.OutcomeSucceeded)),
		zap.Int("failed", result.Count(primary.OutcomeFailed)),
		zap.Int("skipped", result.Count(primary.OutcomeSkipped)),
		zap.Int("abandoned", result.Count(primary.OutcomeAbandoned)))
	return result, nil
}

// authorize requires the actor to be an active member of a live operation.
func (s *EditServiceImpl) authorize(ctx context.Context, operationID string) error {
	actorID, err := requireActor(ctx)
	if err != nil {
		return err
	}
	op, err := s.operationRepo.GetByID(ctx, operationID)
	if err != nil {
		return err
	}
	if operation.State(op.State) == operation.StateEnded {
		return fmt.Errorf("%w: operation %s has ended", guard.ErrInvalidTransition, operationID)
	}
	_, joined, err := activeMember(ctx, s.memberRepo, operationID, actorID)
	if err != nil {
		return err
	}
	if !joined {
		return fmt.Errorf("%w: user %s is not a member of operation %s", guard.ErrNotAMember, actorID, operationID)
	}
	return nil
}

// Helper methods

func targetToRecord(operationID string, t *primary.Target, now time.Time) *secondary.TargetRecord {
	record := &secondary.TargetRecord{
		ID:          t.ID,
		OperationID: operationID,
		Kind:        t.Kind,
		Status:      t.Status,
		Fields:      maps.Clone(t.Fields),
		CreatedAt:   now,
	}
	for i, img := range t.Images {
		created := img.CreatedAt
		if created.IsZero() {
			created = now
		}
		id := img.ID
		if id == "" {
			id = newID()
		}
		record.Images = append(record.Images, secondary.TargetImageRecord{
			ID:          id,
			StorageKind: img.StorageKind,
			Filename:    img.Filename,
			RemoteURL:   img.RemoteURL,
			LocalPath:   img.LocalPath,
			Caption:     img.Caption,
			Width:       img.Width,
			Height:      img.Height,
			ByteSize:    img.ByteSize,
			Position:    i,
			CreatedAt:   created,
		})
	}
	return record
}

func recordToTarget(r *secondary.TargetRecord) *primary.Target {
	t := &primary.Target{
		ID:     r.ID,
		Kind:   r.Kind,
		Status: r.Status,
		Fields: maps.Clone(r.Fields),
	}
	for _, img := range r.Images {
		t.Images = append(t.Images, primary.TargetImage{
			ID:          img.ID,
			StorageKind: img.StorageKind,
			Filename:    img.Filename,
			RemoteURL:   img.RemoteURL,
			LocalPath:   img.LocalPath,
			Caption:     img.Caption,
			Width:       img.Width,
			Height:      img.Height,
			ByteSize:    img.ByteSize,
			CreatedAt:   img.CreatedAt,
		})
	}
	return t
}

// stagingToRecord must only see geocoded points.
func stagingToRecord(operationID string, p *primary.StagingPoint, now time.Time) *secondary.StagingRecord {
	return &secondary.StagingRecord{
		ID:          p.ID,
		OperationID: operationID,
		Label:       p.Label,
		Address:     p.Address,
		Lat:         *p.Lat,
		Lng:         *p.Lng,
		CreatedAt:   now,
	}
}

func recordToStaging(r *secondary.StagingRecord) *primary.StagingPoint {
	lat, lng := r.Lat, r.Lng
	return &primary.StagingPoint{
		ID:      r.ID,
		Label:   r.Label,
		Address: r.Address,
		Lat:     &lat,
		Lng:     &lng,
	}
}

// Ensure EditServiceImpl implements the interface
var _ primary.EditService = (*EditServiceImpl)(nil)
