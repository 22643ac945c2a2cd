package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/stakeout/internal/core/assignment"
	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/core/operation"
	"github.com/example/stakeout/internal/ports/primary"
	"github.com/example/stakeout/internal/ports/secondary"
)

// AssignmentServiceImpl implements the AssignmentService interface.
type AssignmentServiceImpl struct {
	operationRepo  secondary.OperationRepository
	memberRepo     secondary.MemberRepository
	assignmentRepo secondary.AssignmentRepository
	routes         secondary.RouteOracle
	now            Clock
	logger         *zap.Logger
}

// NewAssignmentService creates a new AssignmentService with injected dependencies.
// routes may be nil, in which case distance and ETA always read as calculating.
func NewAssignmentService(
	operationRepo secondary.OperationRepository,
	memberRepo secondary.MemberRepository,
	assignmentRepo secondary.AssignmentRepository,
	routes secondary.RouteOracle,
	now Clock,
	logger *zap.Logger,
) *AssignmentServiceImpl {
	if now == nil {
		now = SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentServiceImpl{
		operationRepo:  operationRepo,
		memberRepo:     memberRepo,
		assignmentRepo: assignmentRepo,
		routes:         routes,
		now:            now,
		logger:         logger,
	}
}

// Assign sends a member to a location. An assignee holds at most one
// non-terminal assignment per operation, so any current one is cancelled.
func (s *AssignmentServiceImpl) Assign(ctx context.Context, req primary.AssignRequest) (*primary.Assignment, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	op, err := s.operationRepo.GetByID(ctx, req.OperationID)
	if err != nil {
		return nil, err
	}
	agentID, err := caseAgentID(ctx, s.memberRepo, op.ID)
	if err != nil {
		return nil, err
	}
	_, assigneeIsMember, err := activeMember(ctx, s.memberRepo, op.ID, req.AssigneeUserID)
	if err != nil {
		return nil, err
	}

	// Guard check
	result := assignment.CanAssign(assignment.AssignContext{
		OperationID:      op.ID,
		OperationEnded:   operation.State(op.State) == operation.StateEnded,
		ActorID:          actorID,
		CaseAgentID:      agentID,
		AssigneeID:       req.AssigneeUserID,
		AssigneeIsMember: assigneeIsMember,
		Lat:              req.Lat,
		Lng:              req.Lng,
	})
	if err := result.Error(); err != nil {
		return nil, err
	}

	now := s.now()
	current, err := s.activeFor(ctx, op.ID, req.AssigneeUserID)
	if err != nil {
		return nil, err
	}
	for _, prev := range current {
		t := assignment.ApplyTransition(assignment.StatusCancelled, now)
		if err := s.assignmentRepo.UpdateStatus(ctx, prev.ID, string(t.Status), t.UpdatedAt, t.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to supersede assignment %s: %w", prev.ID, err)
		}
		s.logger.Info("assignment superseded",
			zap.String("operation_id", op.ID),
			zap.String("assignment_id", prev.ID))
	}

	record := &secondary.AssignmentRecord{
		ID:               newID(),
		OperationID:      op.ID,
		AssignedByUserID: actorID,
		AssignedToUserID: req.AssigneeUserID,
		Lat:              req.Lat,
		Lng:              req.Lng,
		Label:            req.Label,
		Notes:            req.Notes,
		Status:           string(assignment.InitialStatus()),
		AssignedAt:       now,
	}
	if err := s.assignmentRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.logger.Info("location assigned",
		zap.String("operation_id", op.ID),
		zap.String("assignment_id", record.ID),
		zap.String("assignee", req.AssigneeUserID))
	return recordToAssignment(record), nil
}

// Acknowledge moves the actor's assignment from assigned to enRoute.
func (s *AssignmentServiceImpl) Acknowledge(ctx context.Context, assignmentID string) (*primary.Assignment, error) {
	return s.transition(ctx, assignmentID, assignment.StatusEnRoute, assignment.CanAcknowledge)
}

// MarkArrived moves the actor's assignment from enRoute to arrived.
func (s *AssignmentServiceImpl) MarkArrived(ctx context.Context, assignmentID string) (*primary.Assignment, error) {
	return s.transition(ctx, assignmentID, assignment.StatusArrived, assignment.CanMarkArrived)
}

// Cancel cancels a non-terminal assignment.
func (s *AssignmentServiceImpl) Cancel(ctx context.Context, assignmentID string) (*primary.Assignment, error) {
	return s.transition(ctx, assignmentID, assignment.StatusCancelled, assignment.CanCancel)
}

// GetAssignment retrieves an assignment by ID.
func (s *AssignmentServiceImpl) GetAssignment(ctx context.Context, assignmentID string) (*primary.Assignment, error) {
	record, err := s.readable(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	return recordToAssignment(record), nil
}

// ListAssignments lists the assignments of an operation, newest first.
func (s *AssignmentServiceImpl) ListAssignments(ctx context.Context, operationID string) ([]*primary.Assignment, error) {
	if err := s.authorizeRead(ctx, operationID); err != nil {
		return nil, err
	}
	records, err := s.assignmentRepo.List(ctx, secondary.AssignmentFilters{OperationID: operationID})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	assignments := make([]*primary.Assignment, len(records))
	for i, r := range records {
		assignments[i] = recordToAssignment(r)
	}
	return assignments, nil
}

// ActiveAssignmentFor returns the non-terminal assignment of a user, or nil.
func (s *AssignmentServiceImpl) ActiveAssignmentFor(ctx context.Context, operationID, userID string) (*primary.Assignment, error) {
	if err := s.authorizeRead(ctx, operationID); err != nil {
		return nil, err
	}
	records, err := s.activeFor(ctx, operationID, userID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return recordToAssignment(records[0]), nil
}

// Progress returns the assignment with derived distance and ETA. Oracle
// failures are logged and shown as calculating; they never fail the call.
func (s *AssignmentServiceImpl) Progress(ctx context.Context, assignmentID string) (*primary.AssignmentProgress, error) {
	record, err := s.readable(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	progress := &primary.AssignmentProgress{Assignment: recordToAssignment(record)}
	if assignment.Status(record.Status).Terminal() {
		return progress, nil
	}

	var route *secondary.RouteInfo
	if s.routes != nil {
		route, err = s.routes.GetRoute(ctx, record.ID)
		if err != nil {
			s.logger.Debug("route unavailable",
				zap.String("assignment_id", record.ID),
				zap.Error(err))
			route = nil
		}
	}

	var display assignment.Display
	if route == nil {
		display = assignment.DisplayFor(nil, nil)
	} else {
		display = assignment.DisplayFor(&route.DistanceMeters, &route.ExpectedTravel)
		progress.Route = routeToPrimary(route)
	}
	progress.Distance = display.Distance
	progress.ETA = display.ETA
	return progress, nil
}

// Helper methods

func (s *AssignmentServiceImpl) authorizeRead(ctx context.Context, operationID string) error {
	op, err := s.operationRepo.GetByID(ctx, operationID)
	if err != nil {
		return err
	}
	_, err = requireReader(ctx, s.memberRepo, op)
	return err
}

// readable loads an assignment the actor may see.
func (s *AssignmentServiceImpl) readable(ctx context.Context, assignmentID string) (*secondary.AssignmentRecord, error) {
	record, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, record.OperationID); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *AssignmentServiceImpl) transition(
	ctx context.Context,
	assignmentID string,
	next assignment.Status,
	check func(assignment.TransitionContext) guard.Result,
) (*primary.Assignment, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	record, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	agentID, err := caseAgentID(ctx, s.memberRepo, record.OperationID)
	if err != nil {
		return nil, err
	}

	result := check(assignment.TransitionContext{
		AssignmentID: record.ID,
		ActorID:      actorID,
		AssigneeID:   record.AssignedToUserID,
		CaseAgentID:  agentID,
		Status:       assignment.Status(record.Status),
	})
	if err := result.Error(); err != nil {
		return nil, err
	}

	t := assignment.ApplyTransition(next, s.now())
	if err := s.assignmentRepo.UpdateStatus(ctx, record.ID, string(t.Status), t.UpdatedAt, t.CompletedAt); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	s.logger.Info("assignment status changed",
		zap.String("assignment_id", record.ID),
		zap.String("from", record.Status),
		zap.String("to", string(t.Status)))

	record.Status = string(t.Status)
	record.UpdatedAt = &t.UpdatedAt
	if t.CompletedAt != nil {
		record.CompletedAt = t.CompletedAt
	}
	return recordToAssignment(record), nil
}

func (s *AssignmentServiceImpl) activeFor(ctx context.Context, operationID, userID string) ([]*secondary.AssignmentRecord, error) {
	records, err := s.assignmentRepo.List(ctx, secondary.AssignmentFilters{
		OperationID:      operationID,
		AssignedToUserID: userID,
		Statuses:         []string{string(assignment.StatusAssigned), string(assignment.StatusEnRoute)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return records, nil
}

func recordToAssignment(r *secondary.AssignmentRecord) *primary.Assignment {
	return &primary.Assignment{
		ID:               r.ID,
		OperationID:      r.OperationID,
		AssignedByUserID: r.AssignedByUserID,
		AssignedToUserID: r.AssignedToUserID,
		Lat:              r.Lat,
		Lng:              r.Lng,
		Label:            r.Label,
		Notes:            r.Notes,
		Status:           r.Status,
		AssignedAt:       r.AssignedAt,
		UpdatedAt:        r.UpdatedAt,
		CompletedAt:      r.CompletedAt,
	}
}

func routeToPrimary(r *secondary.RouteInfo) *primary.Route {
	route := &primary.Route{
		DistanceMeters: r.DistanceMeters,
		ExpectedTravel: r.ExpectedTravel,
		ComputedAt:     r.ComputedAt,
	}
	for _, c := range r.Polyline {
		route.Polyline = append(route.Polyline, [2]float64{c.Lat, c.Lng})
	}
	for _, step := range r.Steps {
		route.Steps = append(route.Steps, step.Instruction)
	}
	return route
}

// Ensure AssignmentServiceImpl implements the interface
var _ primary.AssignmentService = (*AssignmentServiceImpl)(nil)
