package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stakeout/internal/adapters/sqlite"
	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/ports/secondary"
)

func TestAssignmentRepository_Lifecycle(t *testing.T) {
	testDB := setupTestDB(t)
	seedUsers(t, testDB, "u1", "u2")
	seedOperation(t, testDB, "op-1", "active", "u1")
	seedMember(t, testDB, "op-1", "u2")
	repo := sqlite.NewAssignmentRepository(testDB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &secondary.AssignmentRecord{
		ID: "as-1", OperationID: "op-1", AssignedByUserID: "u1", AssignedToUserID: "u2",
		Lat: 37.77, Lng: -122.42, Label: "Post 1", Status: "assigned", AssignedAt: baseTime,
	}))

	got, err := repo.GetByID(ctx, "as-1")
	require.NoError(t, err)
	assert.Equal(t, "assigned", got.Status)
	assert.Equal(t, "Post 1", got.Label)
	assert.Nil(t, got.UpdatedAt)

	enRoute := baseTime.Add(time.Minute)
	require.NoError(t, repo.UpdateStatus(ctx, "as-1", "enRoute", enRoute, nil))
	arrived := baseTime.Add(5 * time.Minute)
	require.NoError(t, repo.UpdateStatus(ctx, "as-1", "arrived", arrived, &arrived))

	got, err = repo.GetByID(ctx, "as-1")
	require.NoError(t, err)
	assert.Equal(t, "arrived", got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(arrived))

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", "arrived", arrived, nil), guard.ErrNotFound)
}

func TestAssignmentRepository_ListByStatus(t *testing.T) {
	testDB := setupTestDB(t)
	seedUsers(t, testDB, "u1", "u2")
	seedOperation(t, testDB, "op-1", "active", "u1")
	repo := sqlite.NewAssignmentRepository(testDB)
	ctx := context.Background()

	for i, status := range []string{"cancelled", "enRoute"} {
		require.NoError(t, repo.Create(ctx, &secondary.AssignmentRecord{
			ID: []string{"as-1", "as-2"}[i], OperationID: "op-1", AssignedByUserID: "u1", AssignedToUserID: "u2",
			Status: status, AssignedAt: baseTime.Add(time.Duration(i) * time.Minute),
		}))
	}

	active, err := repo.List(ctx, secondary.AssignmentFilters{
		OperationID:      "op-1",
		AssignedToUserID: "u2",
		Statuses:         []string{"assigned", "enRoute"},
	})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "as-2", active[0].ID)

	all, err := repo.List(ctx, secondary.AssignmentFilters{OperationID: "op-1"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "as-2", all[0].ID, "newest first")
}
