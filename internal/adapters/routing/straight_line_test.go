package routing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/ports/secondary"
)

type stubAssignments struct {
	secondary.AssignmentRepository
	records map[string]*secondary.AssignmentRecord
}

func (s *stubAssignments) GetByID(_ context.Context, id string) (*secondary.AssignmentRecord, error) {
	r, ok := s.records[id]
	if !ok {
		return nil, guard.ErrNotFound
	}
	return r, nil
}

type stubPositions map[string][2]float64

func (p stubPositions) LatestPosition(_, userID string) (float64, float64, bool) {
	pos, ok := p[userID]
	return pos[0], pos[1], ok
}

func newOracle(positions stubPositions) *StraightLine {
	repo := &stubAssignments{records: map[string]*secondary.AssignmentRecord{
		"as-1": {ID: "as-1", OperationID: "op-1", AssignedToUserID: "u2", Lat: 37.7849, Lng: -122.4194, Label: "Post 1"},
	}}
	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return NewStraightLine(repo, positions, 10, func() time.Time { return fixed })
}

func TestHaversine(t *testing.T) {
	// One hundredth of a degree of latitude is about 1112 m.
	d := Haversine(37.7749, -122.4194, 37.7849, -122.4194)
	assert.InDelta(t, 1112, d, 2)
	assert.Zero(t, Haversine(10, 10, 10, 10))
}

func TestBearing(t *testing.T) {
	assert.Equal(t, "north", Bearing(0, 0, 1, 0))
	assert.Equal(t, "east", Bearing(0, 0, 0, 1))
	assert.Equal(t, "southwest", Bearing(0, 0, -1, -1))
}

func TestStraightLine_GetRoute(t *testing.T) {
	oracle := newOracle(stubPositions{"u2": {37.7749, -122.4194}})

	route, err := oracle.GetRoute(context.Background(), "as-1")
	require.NoError(t, err)
	require.NotNil(t, route)

	assert.InDelta(t, 1112, route.DistanceMeters, 2)
	assert.InDelta(t, 111.2, route.ExpectedTravel.Seconds(), 0.5)
	require.Len(t, route.Polyline, 2)
	assert.Equal(t, 37.7849, route.Polyline[1].Lat)
	require.Len(t, route.Steps, 1)
	assert.Contains(t, route.Steps[0].Instruction, "Head north")
	assert.Contains(t, route.Steps[0].Instruction, "Post 1")
	assert.Equal(t, 2026, route.ComputedAt.Year())
}

func TestStraightLine_NoPositionYet(t *testing.T) {
	oracle := newOracle(stubPositions{})

	route, err := oracle.GetRoute(context.Background(), "as-1")
	require.NoError(t, err)
	assert.Nil(t, route)
}

func TestStraightLine_UnknownAssignment(t *testing.T) {
	oracle := newOracle(stubPositions{})

	_, err := oracle.GetRoute(context.Background(), "missing")
	assert.ErrorIs(t, err, guard.ErrNotFound)
}
