package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stakeout/internal/adapters/sqlite"
	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/ports/secondary"
)

func TestStagingRepository_CreateListDelete(t *testing.T) {
	testDB := setupTestDB(t)
	seedUsers(t, testDB, "u1")
	seedOperation(t, testDB, "op-1", "active", "u1")
	repo := sqlite.NewStagingRepository(testDB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &secondary.StagingRecord{
		ID: "s-1", OperationID: "op-1", Label: "Lot B", Address: "500 Main St",
		Lat: 37.7749, Lng: -122.4194, CreatedAt: baseTime,
	}))
	require.NoError(t, repo.Create(ctx, &secondary.StagingRecord{
		ID: "s-2", OperationID: "op-1", Label: "Gas station", Lat: 37.78, Lng: -122.41, CreatedAt: baseTime,
	}))

	points, err := repo.ListByOperation(ctx, "op-1")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "s-1", points[0].ID)
	assert.Equal(t, "500 Main St", points[0].Address)
	assert.InDelta(t, 37.7749, points[0].Lat, 1e-9)

	require.NoError(t, repo.Delete(ctx, "s-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "s-1"), guard.ErrNotFound)

	points, err = repo.ListByOperation(ctx, "op-1")
	require.NoError(t, err)
	assert.Len(t, points, 1)
}
