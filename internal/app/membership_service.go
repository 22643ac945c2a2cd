package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/core/membership"
	"github.com/example/stakeout/internal/core/operation"
	"github.com/example/stakeout/internal/ports/primary"
	"github.com/example/stakeout/internal/ports/secondary"
)

// MembershipServiceImpl implements the MembershipService interface.
type MembershipServiceImpl struct {
	identityRepo   secondary.IdentityRepository
	operationRepo  secondary.OperationRepository
	memberRepo     secondary.MemberRepository
	inviteRepo     secondary.InviteRepository
	joinRepo       secondary.JoinRequestRepository
	inviteTTL      time.Duration
	joinRequestTTL time.Duration
	now            Clock
	logger         *zap.Logger
}

// NewMembershipService creates a new MembershipService with injected dependencies.
// Zero TTLs fall back to membership.DefaultTTL.
func NewMembershipService(
	identityRepo secondary.IdentityRepository,
	operationRepo secondary.OperationRepository,
	memberRepo secondary.MemberRepository,
	inviteRepo secondary.InviteRepository,
	joinRepo secondary.JoinRequestRepository,
	inviteTTL, joinRequestTTL time.Duration,
	now Clock,
	logger *zap.Logger,
) *MembershipServiceImpl {
	if inviteTTL <= 0 {
		inviteTTL = membership.DefaultTTL
	}
	if joinRequestTTL <= 0 {
		joinRequestTTL = membership.DefaultTTL
	}
	if now == nil {
		now = SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipServiceImpl{
		identityRepo:   identityRepo,
		operationRepo:  operationRepo,
		memberRepo:     memberRepo,
		inviteRepo:     inviteRepo,
		joinRepo:       joinRepo,
		inviteTTL:      inviteTTL,
		joinRequestTTL: joinRequestTTL,
		now:            now,
		logger:         logger,
	}
}

// InviteUser invites another user to an operation.
func (s *MembershipServiceImpl) InviteUser(ctx context.Context, req primary.InviteUserRequest) (*primary.Invite, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	op, err := s.operationRepo.GetByID(ctx, req.OperationID)
	if err != nil {
		return nil, err
	}

	_, inviterIsMember, err := activeMember(ctx, s.memberRepo, op.ID, actorID)
	if err != nil {
		return nil, err
	}
	inviteeExists, err := s.userExists(ctx, req.InviteeUserID)
	if err != nil {
		return nil, err
	}
	_, inviteeIsMember, err := activeMember(ctx, s.memberRepo, op.ID, req.InviteeUserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pending, err := s.inviteRepo.List(ctx, secondary.InviteFilters{
		OperationID:   op.ID,
		InviteeUserID: req.InviteeUserID,
		Status:        string(membership.InvitePending),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check pending invites: %w", err)
	}
	hasPending := false
	for _, inv := range pending {
		if !membership.IsPastExpiry(inv.ExpiresAt, now) {
			hasPending = true
			break
		}
	}

	// Guard check
	result := membership.CanInvite(membership.InviteContext{
		OperationID:      op.ID,
		OperationEnded:   operation.State(op.State) == operation.StateEnded,
		InviterIsMember:  inviterIsMember,
		InviteeID:        req.InviteeUserID,
		InviteeExists:    inviteeExists,
		InviteeIsMember:  inviteeIsMember,
		HasPendingInvite: hasPending,
	})
	if err := result.Error(); err != nil {
		return nil, err
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = s.inviteTTL
	}
	record := &secondary.InviteRecord{
		ID:            newID(),
		OperationID:   op.ID,
		InviterUserID: actorID,
		InviteeUserID: req.InviteeUserID,
		Status:        string(membership.InvitePending),
		CreatedAt:     now,
		ExpiresAt:     membership.ExpiresAt(now, ttl),
	}
	if err := s.inviteRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	s.logger.Info("user invited",
		zap.String("operation_id", op.ID),
		zap.String("invite_id", record.ID),
		zap.String("invitee", req.InviteeUserID))
	return recordToInvite(record, now), nil
}

// AcceptInvite accepts an invite addressed to the actor.
func (s *MembershipServiceImpl) AcceptInvite(ctx context.Context, inviteID string) (*primary.Member, error) {
	actorID, record, rc, err := s.respondInviteContext(ctx, inviteID)
	if err != nil {
		return nil, err
	}

	result := membership.CanAcceptInvite(rc)
	if err := result.Error(); err != nil {
		return nil, err
	}

	now := s.now()
	member := &secondary.MemberRecord{
		OperationID: record.OperationID,
		UserID:      actorID,
		Role:        string(membership.RoleMember),
		JoinedAt:    now,
	}
	if err := s.inviteRepo.Accept(ctx, record.ID, now, member); err != nil {
		return nil, fmt.Errorf("failed to accept invite: %w", err)
	}

	s.logger.Info("invite accepted",
		zap.String("operation_id", record.OperationID),
		zap.String("invite_id", record.ID),
		zap.String("user_id", actorID))
	return s.toMember(ctx, member)
}

// DeclineInvite declines an invite addressed to the actor.
func (s *MembershipServiceImpl) DeclineInvite(ctx context.Context, inviteID string) (*primary.Invite, error) {
	_, record, rc, err := s.respondInviteContext(ctx, inviteID)
	if err != nil {
		return nil, err
	}

	result := membership.CanDeclineInvite(rc)
	if err := result.Error(); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.inviteRepo.Decline(ctx, record.ID, now); err != nil {
		return nil, fmt.Errorf("failed to decline invite: %w", err)
	}
	record.Status = string(membership.InviteDeclined)
	record.RespondedAt = &now
	return recordToInvite(record, now), nil
}

// ListMyInvites lists invites addressed to the actor.
func (s *MembershipServiceImpl) ListMyInvites(ctx context.Context) ([]*primary.Invite, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	return s.listInvites(ctx, secondary.InviteFilters{InviteeUserID: actorID})
}

// ListOperationInvites lists invites of an operation.
func (s *MembershipServiceImpl) ListOperationInvites(ctx context.Context, operationID string) ([]*primary.Invite, error) {
	if err := s.requireMember(ctx, operationID); err != nil {
		return nil, err
	}
	return s.listInvites(ctx, secondary.InviteFilters{OperationID: operationID})
}

// RequestJoin asks to join an operation.
func (s *MembershipServiceImpl) RequestJoin(ctx context.Context, operationID string) (*primary.JoinRequest, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	op, err := s.operationRepo.GetByID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	_, isMember, err := activeMember(ctx, s.memberRepo, op.ID, actorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pending, err := s.joinRepo.List(ctx, secondary.JoinRequestFilters{
		OperationID:     op.ID,
		RequesterUserID: actorID,
		Status:          string(membership.JoinPending),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check pending join requests: %w", err)
	}
	hasPending := false
	for _, jr := range pending {
		if !membership.IsPastExpiry(jr.ExpiresAt, now) {
			hasPending = true
			break
		}
	}

	// Guard check
	result := membership.CanRequestJoin(membership.RequestJoinContext{
		OperationID:       op.ID,
		OperationEnded:    operation.State(op.State) == operation.StateEnded,
		RequesterIsMember: isMember,
		HasPendingRequest: hasPending,
	})
	if err := result.Error(); err != nil {
		return nil, err
	}

	record := &secondary.JoinRequestRecord{
		ID:              newID(),
		OperationID:     op.ID,
		RequesterUserID: actorID,
		Status:          string(membership.JoinPending),
		CreatedAt:       now,
		ExpiresAt:       membership.ExpiresAt(now, s.joinRequestTTL),
	}
	if err := s.joinRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create join request: %w", err)
	}

	s.logger.Info("join requested",
		zap.String("operation_id", op.ID),
		zap.String("request_id", record.ID),
		zap.String("requester", actorID))
	return recordToJoinRequest(record, now), nil
}

// RespondJoin approves or denies a join request.
func (s *MembershipServiceImpl) RespondJoin(ctx context.Context, requestID string, approve bool) (*primary.JoinRequest, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	record, err := s.joinRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	op, err := s.operationRepo.GetByID(ctx, record.OperationID)
	if err != nil {
		return nil, err
	}
	agentID, err := caseAgentID(ctx, s.memberRepo, op.ID)
	if err != nil {
		return nil, err
	}
	_, requesterIsMember, err := activeMember(ctx, s.memberRepo, op.ID, record.RequesterUserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := membership.CanRespondJoin(membership.RespondJoinContext{
		RequestID:         record.ID,
		ActorID:           actorID,
		CaseAgentID:       agentID,
		Status:            membership.EffectiveJoinStatus(membership.JoinStatus(record.Status), record.ExpiresAt, now),
		OperationEnded:    operation.State(op.State) == operation.StateEnded,
		RequesterIsMember: requesterIsMember,
		Approve:           approve,
	})
	if err := result.Error(); err != nil {
		return nil, err
	}

	if approve {
		member := &secondary.MemberRecord{
			OperationID: op.ID,
			UserID:      record.RequesterUserID,
			Role:        string(membership.RoleMember),
			JoinedAt:    now,
		}
		if err := s.joinRepo.Approve(ctx, record.ID, actorID, now, member); err != nil {
			return nil, fmt.Errorf("failed to approve join request: %w", err)
		}
		record.Status = string(membership.JoinApproved)
	} else {
		if err := s.joinRepo.Deny(ctx, record.ID, actorID, now); err != nil {
			return nil, fmt.Errorf("failed to deny join request: %w", err)
		}
		record.Status = string(membership.JoinDenied)
	}
	record.RespondedAt = &now
	record.RespondedByUserID = actorID

	s.logger.Info("join request answered",
		zap.String("operation_id", op.ID),
		zap.String("request_id", record.ID),
		zap.String("status", record.Status))
	return recordToJoinRequest(record, now), nil
}

// ListJoinRequests lists join requests of an operation.
func (s *MembershipServiceImpl) ListJoinRequests(ctx context.Context, operationID string) ([]*primary.JoinRequest, error) {
	if err := s.requireCaseAgent(ctx, operationID, "view join requests"); err != nil {
		return nil, err
	}
	records, err := s.joinRepo.List(ctx, secondary.JoinRequestFilters{OperationID: operationID})
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	now := s.now()
	requests := make([]*primary.JoinRequest, len(records))
	for i, r := range records {
		requests[i] = recordToJoinRequest(r, now)
	}
	return requests, nil
}

// TransferCaseAgent hands case agent status from the actor to another member.
func (s *MembershipServiceImpl) TransferCaseAgent(ctx context.Context, operationID, toUserID string) error {
	actorID, err := requireActor(ctx)
	if err != nil {
		return err
	}
	op, err := s.operationRepo.GetByID(ctx, operationID)
	if err != nil {
		return err
	}
	agentID, err := caseAgentID(ctx, s.memberRepo, op.ID)
	if err != nil {
		return err
	}
	_, toIsMember, err := activeMember(ctx, s.memberRepo, op.ID, toUserID)
	if err != nil {
		return err
	}

	result := membership.CanTransferCaseAgent(membership.TransferContext{
		OperationID:    op.ID,
		OperationEnded: operation.State(op.State) == operation.StateEnded,
		FromID:         actorID,
		CaseAgentID:    agentID,
		ToID:           toUserID,
		ToIsMember:     toIsMember,
	})
	if err := result.Error(); err != nil {
		return err
	}

	if err := s.memberRepo.Transfer(ctx, op.ID, actorID, toUserID); err != nil {
		return fmt.Errorf("failed to transfer case agent: %w", err)
	}
	s.logger.Info("case agent transferred",
		zap.String("operation_id", op.ID),
		zap.String("from", actorID),
		zap.String("to", toUserID))
	return nil
}

// LeaveOperation removes the actor from the roster.
func (s *MembershipServiceImpl) LeaveOperation(ctx context.Context, operationID string) error {
	actorID, err := requireActor(ctx)
	if err != nil {
		return err
	}
	member, joined, err := activeMember(ctx, s.memberRepo, operationID, actorID)
	if err != nil {
		return err
	}

	result := membership.CanLeave(membership.LeaveContext{
		OperationID: operationID,
		UserID:      actorID,
		IsMember:    joined,
		IsCaseAgent: joined && member.Role == string(membership.RoleCaseAgent),
	})
	if err := result.Error(); err != nil {
		return err
	}

	if err := s.memberRepo.MarkLeft(ctx, operationID, actorID, s.now()); err != nil {
		return fmt.Errorf("failed to leave operation: %w", err)
	}
	s.logger.Info("member left", zap.String("operation_id", operationID), zap.String("user_id", actorID))
	return nil
}

// RemoveMember removes another member.
func (s *MembershipServiceImpl) RemoveMember(ctx context.Context, operationID, userID string) error {
	actorID, err := requireActor(ctx)
	if err != nil {
		return err
	}
	op, err := s.operationRepo.GetByID(ctx, operationID)
	if err != nil {
		return err
	}
	agentID, err := caseAgentID(ctx, s.memberRepo, op.ID)
	if err != nil {
		return err
	}
	_, targetIsMember, err := activeMember(ctx, s.memberRepo, op.ID, userID)
	if err != nil {
		return err
	}

	result := membership.CanRemoveMember(membership.RemoveContext{
		OperationID:    op.ID,
		OperationEnded: operation.State(op.State) == operation.StateEnded,
		ActorID:        actorID,
		CaseAgentID:    agentID,
		TargetID:       userID,
		TargetIsMember: targetIsMember,
	})
	if err := result.Error(); err != nil {
		return err
	}

	if err := s.memberRepo.MarkLeft(ctx, op.ID, userID, s.now()); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	s.logger.Info("member removed", zap.String("operation_id", op.ID), zap.String("user_id", userID))
	return nil
}

// AddMembers adds users directly. Active members are skipped; members who
// had left are re-activated.
func (s *MembershipServiceImpl) AddMembers(ctx context.Context, operationID string, userIDs []string) (int, error) {
	if err := s.requireCaseAgent(ctx, operationID, "add members"); err != nil {
		return 0, err
	}

	now := s.now()
	seen := make(map[string]bool, len(userIDs))
	var records []*secondary.MemberRecord
	for _, userID := range userIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true

		exists, err := s.userExists(ctx, userID)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, fmt.Errorf("%w: user %s not found", guard.ErrNotFound, userID)
		}
		_, joined, err := activeMember(ctx, s.memberRepo, operationID, userID)
		if err != nil {
			return 0, err
		}
		if joined {
			continue
		}
		records = append(records, &secondary.MemberRecord{
			OperationID: operationID,
			UserID:      userID,
			Role:        string(membership.RoleMember),
			JoinedAt:    now,
		})
	}
	if len(records) == 0 {
		return 0, nil
	}

	added, err := s.memberRepo.Add(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("failed to add members: %w", err)
	}
	s.logger.Info("members added", zap.String("operation_id", operationID), zap.Int("count", added))
	return added, nil
}

// ListMembers returns the active roster with user profiles.
func (s *MembershipServiceImpl) ListMembers(ctx context.Context, operationID string) ([]*primary.Member, error) {
	op, err := s.operationRepo.GetByID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if _, err := requireReader(ctx, s.memberRepo, op); err != nil {
		return nil, err
	}
	records, err := s.memberRepo.List(ctx, operationID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	members := make([]*primary.Member, 0, len(records))
	for _, r := range records {
		m, err := s.toMember(ctx, r)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

// SetPublishing toggles whether the actor is publishing location.
func (s *MembershipServiceImpl) SetPublishing(ctx context.Context, operationID string, active bool) error {
	actorID, err := requireActor(ctx)
	if err != nil {
		return err
	}
	if err := s.requireMember(ctx, operationID); err != nil {
		return err
	}
	if err := s.memberRepo.SetPublishing(ctx, operationID, actorID, active); err != nil {
		return fmt.Errorf("failed to update publishing: %w", err)
	}
	return nil
}

// Helper methods

func (s *MembershipServiceImpl) respondInviteContext(ctx context.Context, inviteID string) (string, *secondary.InviteRecord, membership.RespondInviteContext, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return "", nil, membership.RespondInviteContext{}, err
	}
	record, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		return "", nil, membership.RespondInviteContext{}, err
	}
	op, err := s.operationRepo.GetByID(ctx, record.OperationID)
	if err != nil {
		return "", nil, membership.RespondInviteContext{}, err
	}
	_, inviteeIsMember, err := activeMember(ctx, s.memberRepo, op.ID, record.InviteeUserID)
	if err != nil {
		return "", nil, membership.RespondInviteContext{}, err
	}
	return actorID, record, membership.RespondInviteContext{
		InviteID:        record.ID,
		ActorID:         actorID,
		InviteeID:       record.InviteeUserID,
		Status:          membership.EffectiveInviteStatus(membership.InviteStatus(record.Status), record.ExpiresAt, s.now()),
		OperationEnded:  operation.State(op.State) == operation.StateEnded,
		InviteeIsMember: inviteeIsMember,
	}, nil
}

func (s *MembershipServiceImpl) requireMember(ctx context.Context, operationID string) error {
	actorID, err := requireActor(ctx)
	if err != nil {
		return err
	}
	if _, err := s.operationRepo.GetByID(ctx, operationID); err != nil {
		return err
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

func (s *MembershipServiceImpl) requireCaseAgent(ctx context.Context, operationID, action string) error {
	actorID, err := requireActor(ctx)
	if err != nil {
		return err
	}
	op, err := s.operationRepo.GetByID(ctx, operationID)
	if err != nil {
		return err
	}
	agentID, err := caseAgentID(ctx, s.memberRepo, op.ID)
	if err != nil {
		return err
	}
	result := membership.RequireCaseAgent(membership.CaseAgentContext{
		OperationID:    op.ID,
		OperationEnded: operation.State(op.State) == operation.StateEnded,
		ActorID:        actorID,
		CaseAgentID:    agentID,
		Action:         action,
	})
	return result.Error()
}

func (s *MembershipServiceImpl) userExists(ctx context.Context, userID string) (bool, error) {
	if _, err := s.identityRepo.GetUser(ctx, userID); err != nil {
		if errors.Is(err, guard.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load user: %w", err)
	}
	return true, nil
}

func (s *MembershipServiceImpl) listInvites(ctx context.Context, filters secondary.InviteFilters) ([]*primary.Invite, error) {
	records, err := s.inviteRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	now := s.now()
	invites := make([]*primary.Invite, len(records))
	for i, r := range records {
		invites[i] = recordToInvite(r, now)
	}
	return invites, nil
}

func (s *MembershipServiceImpl) toMember(ctx context.Context, r *secondary.MemberRecord) (*primary.Member, error) {
	m := &primary.Member{
		OperationID: r.OperationID,
		UserID:      r.UserID,
		Role:        r.Role,
		JoinedAt:    r.JoinedAt,
		LeftAt:      r.LeftAt,
		IsActive:    r.IsActive,
	}
	user, err := s.identityRepo.GetUser(ctx, r.UserID)
	if err != nil {
		if errors.Is(err, guard.ErrNotFound) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to load member profile: %w", err)
	}
	m.Name = user.Name
	m.Callsign = user.Callsign
	m.VehicleType = user.VehicleType
	m.VehicleColor = user.VehicleColor
	return m, nil
}

// recordToInvite reports the effective status at now.
func recordToInvite(r *secondary.InviteRecord, now time.Time) *primary.Invite {
	return &primary.Invite{
		ID:            r.ID,
		OperationID:   r.OperationID,
		InviterUserID: r.InviterUserID,
		InviteeUserID: r.InviteeUserID,
		Status:        string(membership.EffectiveInviteStatus(membership.InviteStatus(r.Status), r.ExpiresAt, now)),
		CreatedAt:     r.CreatedAt,
		ExpiresAt:     r.ExpiresAt,
		RespondedAt:   r.RespondedAt,
	}
}

// recordToJoinRequest reports the effective status at now.
func recordToJoinRequest(r *secondary.JoinRequestRecord, now time.Time) *primary.JoinRequest {
	return &primary.JoinRequest{
		ID:                r.ID,
		OperationID:       r.OperationID,
		RequesterUserID:   r.RequesterUserID,
		Status:            string(membership.EffectiveJoinStatus(membership.JoinStatus(r.Status), r.ExpiresAt, now)),
		CreatedAt:         r.CreatedAt,
		ExpiresAt:         r.ExpiresAt,
		RespondedAt:       r.RespondedAt,
		RespondedByUserID: r.RespondedByUserID,
	}
}

// Ensure MembershipServiceImpl implements the interface
var _ primary.MembershipService = (*MembershipServiceImpl)(nil)
