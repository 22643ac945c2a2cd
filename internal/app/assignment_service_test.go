package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stakeout/internal/core/assignment"
	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/ports/primary"
	"github.com/example/stakeout/internal/ports/secondary"
)

// stubRoutes answers GetRoute from a fixed table.
type stubRoutes struct {
	routes map[string]*secondary.RouteInfo
	err    error
}

func (s *stubRoutes) GetRoute(_ context.Context, assignmentID string) (*secondary.RouteInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.routes[assignmentID], nil
}

func (h *harness) assign(opID, assignee string) *primary.Assignment {
	h.t.Helper()
	a, err := h.assignments.Assign(as(reyes), primary.AssignRequest{
		OperationID:    opID,
		AssigneeUserID: assignee,
		Lat:            37.7849,
		Lng:            -122.4094,
		Label:          "North corner of the lot",
	})
	require.NoError(h.t, err)
	return a
}

func TestAssign_Guards(t *testing.T) {
	h := newHarness(t)
	opID := h.createOperation(reyes, okafor)

	tests := []struct {
		name    string
		actor   string
		req     primary.AssignRequest
		wantErr error
	}{
		{"member cannot assign", okafor, primary.AssignRequest{OperationID: opID, AssigneeUserID: okafor}, guard.ErrNotAuthorized},
		{"assignee must be a member", reyes, primary.AssignRequest{OperationID: opID, AssigneeUserID: park}, guard.ErrNotAMember},
		{"coordinate out of range", reyes, primary.AssignRequest{OperationID: opID, AssigneeUserID: okafor, Lat: 91}, guard.ErrMissingPrecondition},
		{"unknown operation", reyes, primary.AssignRequest{OperationID: "op-missing", AssigneeUserID: okafor}, guard.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.assignments.Assign(as(tt.actor), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAssignment_HappyPath(t *testing.T) {
	h := newHarness(t)
	opID := h.createOperation(reyes, okafor)

	a := h.assign(opID, okafor)
	assert.Equal(t, "assigned", a.Status)
	assert.Equal(t, reyes, a.AssignedByUserID)

	_, err := h.assignments.MarkArrived(as(okafor), a.ID)
	assert.ErrorIs(t, err, guard.ErrInvalidTransition, "must acknowledge first")
	_, err = h.assignments.Acknowledge(as(reyes), a.ID)
	assert.ErrorIs(t, err, guard.ErrNotAuthorized, "only the assignee acknowledges")

	h.clock.Advance(time.Minute)
	a, err = h.assignments.Acknowledge(as(okafor), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "enRoute", a.Status)
	assert.Nil(t, a.CompletedAt)

	h.clock.Advance(9 * time.Minute)
	a, err = h.assignments.MarkArrived(as(okafor), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "arrived", a.Status)
	require.NotNil(t, a.CompletedAt)
	assert.True(t, a.CompletedAt.Equal(testEpoch.Add(10*time.Minute)))

	_, err = h.assignments.Cancel(as(reyes), a.ID)
	assert.ErrorIs(t, err, guard.ErrInvalidTransition, "arrived is terminal")

	stored, err := h.assignments.GetAssignment(as(reyes), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "arrived", stored.Status)
}

func TestAssign_SupersedesActiveAssignment(t *testing.T) {
	h := newHarness(t)
	opID := h.createOperation(reyes, okafor)

	first := h.assign(opID, okafor)
	_, err := h.assignments.Acknowledge(as(okafor), first.ID)
	require.NoError(t, err)

	h.clock.Advance(time.Minute)
	second := h.assign(opID, okafor)

	prev, err := h.assignments.GetAssignment(as(reyes), first.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", prev.Status)

	active, err := h.assignments.ActiveAssignmentFor(as(okafor), opID, okafor)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)

	all, err := h.assignments.ListAssignments(as(reyes), opID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
}

func TestCancel_ByAssigneeOrCaseAgent(t *testing.T) {
	h := newHarness(t)
	opID := h.createOperation(reyes, okafor, park)

	a := h.assign(opID, okafor)
	_, err := h.assignments.Cancel(as(park), a.ID)
	assert.ErrorIs(t, err, guard.ErrNotAuthorized)

	cancelled, err := h.assignments.Cancel(as(okafor), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Nil(t, cancelled.CompletedAt)

	b := h.assign(opID, park)
	_, err = h.assignments.Cancel(as(reyes), b.ID)
	require.NoError(t, err)

	active, err := h.assignments.ActiveAssignmentFor(as(reyes), opID, park)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestProgress(t *testing.T) {
	h := newHarness(t)
	opID := h.createOperation(reyes, okafor, park)
	routed := h.assign(opID, okafor)
	pending := h.assign(opID, park)

	routes := &stubRoutes{routes: map[string]*secondary.RouteInfo{
		routed.ID: {
			AssignmentID:   routed.ID,
			DistanceMeters: 2.3 * 1609.344,
			ExpectedTravel: 7*time.Minute + 30*time.Second,
			Polyline:       []secondary.Coordinate{{Lat: 37.77, Lng: -122.42}, {Lat: 37.7849, Lng: -122.4094}},
			Steps:          []secondary.RouteStep{{Instruction: "Head north"}},
			ComputedAt:     testEpoch,
		},
	}}
	svc := NewAssignmentService(h.operationRepo, h.memberRepo, h.assignmentRepo, routes, h.clock.Now, nil)

	progress, err := svc.Progress(as(okafor), routed.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.3 mi", progress.Distance)
	assert.Equal(t, "8 min", progress.ETA)
	require.NotNil(t, progress.Route)
	assert.Equal(t, []string{"Head north"}, progress.Route.Steps)
	assert.Len(t, progress.Route.Polyline, 2)

	progress, err = svc.Progress(as(park), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.Calculating, progress.Distance)
	assert.Equal(t, assignment.Calculating, progress.ETA)
	assert.Nil(t, progress.Route)

	routes.err = errors.New("routing backend unavailable")
	progress, err = svc.Progress(as(okafor), routed.ID)
	require.NoError(t, err, "oracle failures never fail the call")
	assert.Equal(t, assignment.Calculating, progress.ETA)

	_, err = svc.Cancel(as(reyes), routed.ID)
	require.NoError(t, err)
	progress, err = svc.Progress(as(okafor), routed.ID)
	require.NoError(t, err)
	assert.Empty(t, progress.Distance, "terminal assignments have no distance")
}

func TestAssignmentReads_RequireMembership(t *testing.T) {
	h := newHarness(t)
	opID := h.createOperation(reyes, okafor)
	a := h.assign(opID, okafor)

	_, err := h.assignments.GetAssignment(as(lindqvist), a.ID)
	assert.ErrorIs(t, err, guard.ErrNotAMember)
	_, err = h.assignments.ListAssignments(as(lindqvist), opID)
	assert.ErrorIs(t, err, guard.ErrNotAMember)
	_, err = h.assignments.ActiveAssignmentFor(as(lindqvist), opID, okafor)
	assert.ErrorIs(t, err, guard.ErrNotAMember)
	_, err = h.assignments.Progress(as(lindqvist), a.ID)
	assert.ErrorIs(t, err, guard.ErrNotAMember)

	progress, err := h.assignments.Progress(as(okafor), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, progress.Assignment.ID)
}

func TestJoinThenAssignAndAcknowledge(t *testing.T) {
	h := newHarness(t)
	opID := h.createOperation(reyes)

	jr, err := h.memberships.RequestJoin(as(park), opID)
	require.NoError(t, err)
	_, err = h.memberships.RespondJoin(as(reyes), jr.ID, true)
	require.NoError(t, err)

	members, err := h.memberships.ListMembers(as(reyes), opID)
	require.NoError(t, err)
	roles := map[string]string{}
	for _, m := range members {
		roles[m.UserID] = m.Role
	}
	assert.Equal(t, map[string]string{reyes: "case_agent", park: "member"}, roles)

	a, err := h.assignments.Assign(as(reyes), primary.AssignRequest{
		OperationID:    opID,
		AssigneeUserID: park,
		Lat:            37.7849,
		Lng:            -122.4094,
		Label:          "Post 1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Post 1", a.Label)

	a, err = h.assignments.Acknowledge(as(park), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "enRoute", a.Status)
}
