package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/ports/primary"
	"github.com/example/stakeout/internal/ports/secondary"
)

// IdentityServiceImpl implements the IdentityService interface.
type IdentityServiceImpl struct {
	identityRepo secondary.IdentityRepository
	now          Clock
}

// NewIdentityService creates a new IdentityService with injected dependencies.
func NewIdentityService(identityRepo secondary.IdentityRepository, now Clock) *IdentityServiceImpl {
	if now == nil {
		now = SystemClock
	}
	return &IdentityServiceImpl{identityRepo: identityRepo, now: now}
}

// CreateAgency creates an agency.
func (s *IdentityServiceImpl) CreateAgency(ctx context.Context, name string) (*primary.Agency, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: agency name is required", guard.ErrMissingPrecondition)
	}
	record := &secondary.AgencyRecord{ID: newID(), Name: name, CreatedAt: s.now()}
	if err := s.identityRepo.CreateAgency(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create agency: %w", err)
	}
	return &primary.Agency{ID: record.ID, Name: record.Name, CreatedAt: record.CreatedAt}, nil
}

// CreateTeam creates a team under an agency.
func (s *IdentityServiceImpl) CreateTeam(ctx context.Context, agencyID, name string) (*primary.Team, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: team name is required", guard.ErrMissingPrecondition)
	}
	if _, err := s.identityRepo.GetAgency(ctx, agencyID); err != nil {
		return nil, err
	}
	record := &secondary.TeamRecord{ID: newID(), AgencyID: agencyID, Name: name, CreatedAt: s.now()}
	if err := s.identityRepo.CreateTeam(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return &primary.Team{ID: record.ID, AgencyID: record.AgencyID, Name: record.Name, CreatedAt: record.CreatedAt}, nil
}

// CreateUser creates a user on a team; the agency comes from the team.
func (s *IdentityServiceImpl) CreateUser(ctx context.Context, req primary.CreateUserRequest) (*primary.User, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: user name is required", guard.ErrMissingPrecondition)
	}
	team, err := s.identityRepo.GetTeam(ctx, req.TeamID)
	if err != nil {
		return nil, err
	}
	record := &secondary.UserRecord{
		ID:           newID(),
		TeamID:       team.ID,
		AgencyID:     team.AgencyID,
		Name:         req.Name,
		Callsign:     req.Callsign,
		VehicleType:  req.VehicleType,
		VehicleColor: req.VehicleColor,
		CreatedAt:    s.now(),
	}
	if err := s.identityRepo.CreateUser(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return recordToUser(record), nil
}

// UpdateProfile updates callsign and vehicle fields. Users may only edit
// their own profile.
func (s *IdentityServiceImpl) UpdateProfile(ctx context.Context, req primary.UpdateProfileRequest) (*primary.User, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if actorID != req.UserID {
		return nil, fmt.Errorf("%w: users can only edit their own profile", guard.ErrNotAuthorized)
	}
	if err := s.identityRepo.UpdateProfile(ctx, req.UserID, req.Callsign, req.VehicleType, req.VehicleColor); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.GetUser(ctx, req.UserID)
}

// GetUser retrieves a user by ID.
func (s *IdentityServiceImpl) GetUser(ctx context.Context, userID string) (*primary.User, error) {
	record, err := s.identityRepo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return recordToUser(record), nil
}

// ListUsers lists users of a team or agency.
func (s *IdentityServiceImpl) ListUsers(ctx context.Context, filters primary.UserFilters) ([]*primary.User, error) {
	records, err := s.identityRepo.ListUsers(ctx, secondary.UserFilters{
		TeamID:   filters.TeamID,
		AgencyID: filters.AgencyID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]*primary.User, len(records))
	for i, r := range records {
		users[i] = recordToUser(r)
	}
	return users, nil
}

func recordToUser(r *secondary.UserRecord) *primary.User {
	return &primary.User{
		ID:           r.ID,
		TeamID:       r.TeamID,
		AgencyID:     r.AgencyID,
		Name:         r.Name,
		Callsign:     r.Callsign,
		VehicleType:  r.VehicleType,
		VehicleColor: r.VehicleColor,
		CreatedAt:    r.CreatedAt,
	}
}

// Ensure IdentityServiceImpl implements the interface
var _ primary.IdentityService = (*IdentityServiceImpl)(nil)
