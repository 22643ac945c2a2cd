package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/core/membership"
	"github.com/example/stakeout/internal/core/operation"
	"github.com/example/stakeout/internal/ctxutil"
	"github.com/example/stakeout/internal/ports/primary"
	"github.com/example/stakeout/internal/ports/secondary"
)

// OperationServiceImpl implements the OperationService interface.
type OperationServiceImpl struct {
	identityRepo  secondary.IdentityRepository
	operationRepo secondary.OperationRepository
	memberRepo    secondary.MemberRepository
	targetRepo    secondary.TargetRepository
	stagingRepo   secondary.StagingRepository
	editService   primary.EditService
	now           Clock
	logger        *zap.Logger
}

// NewOperationService creates a new OperationService with injected dependencies.
// The edit service copies targets and staging points when cloning.
func NewOperationService(
	identityRepo secondary.IdentityRepository,
	operationRepo secondary.OperationRepository,
	memberRepo secondary.MemberRepository,
	targetRepo secondary.TargetRepository,
	stagingRepo secondary.StagingRepository,
	editService primary.EditService,
	now Clock,
	logger *zap.Logger,
) *OperationServiceImpl {
	if now == nil {
		now = SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperationServiceImpl{
		identityRepo:  identityRepo,
		operationRepo: operationRepo,
		memberRepo:    memberRepo,
		targetRepo:    targetRepo,
		stagingRepo:   stagingRepo,
		editService:   editService,
		now:           now,
		logger:        logger,
	}
}

// CreateOperation creates a new operation with the actor as case agent.
func (s *OperationServiceImpl) CreateOperation(ctx context.Context, req primary.CreateOperationRequest) (*primary.CreateOperationResponse, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	creator, err := s.identityRepo.GetUser(ctx, actorID)
	if err != nil && !errors.Is(err, guard.ErrNotFound) {
		return nil, fmt.Errorf("failed to load creator: %w", err)
	}

	// Guard check
	result := operation.CanCreateOperation(operation.CreateOperationContext{
		Name:          req.Name,
		CreatorID:     actorID,
		CreatorExists: creator != nil,
	})
	if err := result.Error(); err != nil {
		return nil, err
	}

	teamID, agencyID := req.TeamID, req.AgencyID
	if teamID == "" {
		teamID = creator.TeamID
	}
	if agencyID == "" {
		agencyID = creator.AgencyID
	}

	now := s.now()
	initial := operation.InitialTransition(req.Draft, now)
	record := &secondary.OperationRecord{
		ID:              newID(),
		Name:            req.Name,
		IncidentNumber:  req.IncidentNumber,
		State:           string(initial.State),
		CreatedByUserID: actorID,
		TeamID:          teamID,
		AgencyID:        agencyID,
		CreatedAt:       now,
		UpdatedAt:       now,
		StartsAt:        initial.StartsAt,
	}
	caseAgent := &secondary.MemberRecord{
		OperationID: record.ID,
		UserID:      actorID,
		Role:        string(membership.RoleCaseAgent),
		JoinedAt:    now,
	}

	if err := s.operationRepo.Create(ctx, record, caseAgent); err != nil {
		return nil, fmt.Errorf("failed to create operation: %w", err)
	}

	s.logger.Info("operation created",
		zap.String("operation_id", record.ID),
		zap.String("state", record.State),
		zap.String("case_agent", actorID))

	op, err := s.load(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created operation: %w", err)
	}
	return &primary.CreateOperationResponse{OperationID: op.ID, Operation: op}, nil
}

// GetOperation retrieves an operation by ID. Members see it; so do users of
// the same agency while it is still open, as it is listed to them for joining.
func (s *OperationServiceImpl) GetOperation(ctx context.Context, operationID string) (*primary.Operation, error) {
	record, err := s.operationRepo.GetByID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if _, err := requireReader(ctx, s.memberRepo, record); err != nil {
		if !errors.Is(err, guard.ErrNotAMember) || !s.listedTo(ctx, record) {
			return nil, err
		}
	}
	return s.toOperation(ctx, record)
}

// UpdateOperation edits name and incident number.
func (s *OperationServiceImpl) UpdateOperation(ctx context.Context, req primary.UpdateOperationRequest) error {
	record, lc, err := s.lifecycleContext(ctx, req.OperationID)
	if err != nil {
		return err
	}

	result := operation.CanUpdateOperation(lc)
	if err := result.Error(); err != nil {
		return err
	}
	if req.Name == "" {
		req.Name = record.Name
	}

	if err := s.operationRepo.Update(ctx, record.ID, req.Name, req.IncidentNumber, s.now()); err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}
	return nil
}

// StartOperation moves a draft operation to active.
func (s *OperationServiceImpl) StartOperation(ctx context.Context, operationID string) (*primary.Operation, error) {
	record, lc, err := s.lifecycleContext(ctx, operationID)
	if err != nil {
		return nil, err
	}

	result := operation.CanStartOperation(lc)
	if err := result.Error(); err != nil {
		return nil, err
	}

	t := operation.ApplyStart(lc.State, s.now())
	if t.Changed {
		if err := s.operationRepo.Start(ctx, record.ID, *t.StartsAt); err != nil {
			return nil, fmt.Errorf("failed to start operation: %w", err)
		}
		s.logger.Info("operation started", zap.String("operation_id", record.ID))
	}
	return s.load(ctx, operationID)
}

// EndOperation ends an operation and marks every member as left.
func (s *OperationServiceImpl) EndOperation(ctx context.Context, operationID string) (*primary.Operation, error) {
	record, lc, err := s.lifecycleContext(ctx, operationID)
	if err != nil {
		return nil, err
	}

	result := operation.CanEndOperation(lc)
	if err := result.Error(); err != nil {
		return nil, err
	}

	t := operation.ApplyEnd(s.now())
	if err := s.operationRepo.End(ctx, record.ID, *t.EndsAt); err != nil {
		return nil, fmt.Errorf("failed to end operation: %w", err)
	}
	s.logger.Info("operation ended", zap.String("operation_id", record.ID))
	return s.load(ctx, operationID)
}

// CloneOperation creates a fresh active operation from an ended one. Targets,
// their images and staging points are copied under fresh ids; members,
// invites and join requests are not.
func (s *OperationServiceImpl) CloneOperation(ctx context.Context, sourceID string) (*primary.CloneOperationResponse, error) {
	source, err := s.operationRepo.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if _, err := requireReader(ctx, s.memberRepo, source); err != nil {
		return nil, err
	}

	result := operation.CanCloneOperation(operation.CloneOperationContext{
		SourceID:    source.ID,
		SourceState: operation.State(source.State),
	})
	if err := result.Error(); err != nil {
		return nil, err
	}

	targets, err := s.targetRepo.ListByOperation(ctx, source.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source targets: %w", err)
	}
	staging, err := s.stagingRepo.ListByOperation(ctx, source.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source staging points: %w", err)
	}

	created, err := s.CreateOperation(ctx, primary.CreateOperationRequest{
		Name:           source.Name,
		IncidentNumber: source.IncidentNumber,
	})
	if err != nil {
		return nil, err
	}

	var copies primary.Snapshot
	for _, t := range targets {
		c := recordToTarget(t)
		c.ID = newID()
		for i := range c.Images {
			c.Images[i].ID = newID()
		}
		copies.Targets = append(copies.Targets, c)
	}
	for _, p := range staging {
		c := recordToStaging(p)
		c.ID = newID()
		copies.Staging = append(copies.Staging, c)
	}

	copied, err := s.editService.Reconcile(ctx, primary.ReconcileRequest{
		OperationID: created.OperationID,
		Current:     copies,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to copy targets: %w", err)
	}

	s.logger.Info("operation cloned",
		zap.String("source_id", source.ID),
		zap.String("operation_id", created.OperationID))

	return &primary.CloneOperationResponse{
		OperationID: created.OperationID,
		Operation:   created.Operation,
		Copy:        copied,
	}, nil
}

// ListActiveOperations lists draft and active operations in the actor's agency.
func (s *OperationServiceImpl) ListActiveOperations(ctx context.Context) ([]*primary.OperationListing, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.identityRepo.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	records, err := s.operationRepo.List(ctx, secondary.OperationFilters{
		AgencyID: user.AgencyID,
		States:   []string{string(operation.StateDraft), string(operation.StateActive)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}

	listings := make([]*primary.OperationListing, 0, len(records))
	for _, r := range records {
		op, err := s.toOperation(ctx, r)
		if err != nil {
			return nil, err
		}
		_, joined, err := activeMember(ctx, s.memberRepo, r.ID, actorID)
		if err != nil {
			return nil, err
		}
		listings = append(listings, &primary.OperationListing{Operation: op, IsMember: joined})
	}
	return listings, nil
}

// ListPreviousOperations lists ended operations the actor took part in, newest first.
func (s *OperationServiceImpl) ListPreviousOperations(ctx context.Context) ([]*primary.Operation, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.operationRepo.List(ctx, secondary.OperationFilters{
		States:   []string{string(operation.StateEnded)},
		MemberID: actorID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}

	operations := make([]*primary.Operation, len(records))
	for i, r := range records {
		operations[i] = recordToOperation(r, "")
	}
	return operations, nil
}

// Helper methods

func (s *OperationServiceImpl) load(ctx context.Context, operationID string) (*primary.Operation, error) {
	record, err := s.operationRepo.GetByID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	return s.toOperation(ctx, record)
}

// listedTo reports whether ListActiveOperations shows the operation to the actor.
func (s *OperationServiceImpl) listedTo(ctx context.Context, record *secondary.OperationRecord) bool {
	if operation.State(record.State) == operation.StateEnded {
		return false
	}
	actor, err := s.identityRepo.GetUser(ctx, ctxutil.ActorFromContext(ctx))
	if err != nil {
		return false
	}
	return actor.AgencyID == record.AgencyID
}

func (s *OperationServiceImpl) lifecycleContext(ctx context.Context, operationID string) (*secondary.OperationRecord, operation.LifecycleContext, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, operation.LifecycleContext{}, err
	}
	record, err := s.operationRepo.GetByID(ctx, operationID)
	if err != nil {
		return nil, operation.LifecycleContext{}, err
	}
	agentID, err := caseAgentID(ctx, s.memberRepo, operationID)
	if err != nil {
		return nil, operation.LifecycleContext{}, err
	}
	return record, operation.LifecycleContext{
		OperationID: record.ID,
		State:       operation.State(record.State),
		ActorID:     actorID,
		CaseAgentID: agentID,
	}, nil
}

func (s *OperationServiceImpl) toOperation(ctx context.Context, r *secondary.OperationRecord) (*primary.Operation, error) {
	agentID, err := caseAgentID(ctx, s.memberRepo, r.ID)
	if err != nil {
		return nil, err
	}
	return recordToOperation(r, agentID), nil
}

func recordToOperation(r *secondary.OperationRecord, caseAgentID string) *primary.Operation {
	return &primary.Operation{
		ID:              r.ID,
		Name:            r.Name,
		IncidentNumber:  r.IncidentNumber,
		State:           r.State,
		CreatedByUserID: r.CreatedByUserID,
		CaseAgentUserID: caseAgentID,
		TeamID:          r.TeamID,
		AgencyID:        r.AgencyID,
		CreatedAt:       r.CreatedAt,
		StartsAt:        r.StartsAt,
		EndsAt:          r.EndsAt,
	}
}

// Ensure OperationServiceImpl implements the interface
var _ primary.OperationService = (*OperationServiceImpl)(nil)
