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

func TestTargetRepository_CreateWithImages(t *testing.T) {
	testDB := setupTestDB(t)
	seedUsers(t, testDB, "u1")
	seedOperation(t, testDB, "op-1", "active", "u1")
	repo := sqlite.NewTargetRepository(testDB)
	ctx := context.Background()

	err := repo.Create(ctx, &secondary.TargetRecord{
		ID:          "t-1",
		OperationID: "op-1",
		Kind:        "vehicle",
		Status:      "active",
		Fields:      map[string]string{"plate": "7ABC123", "make": "Toyota"},
		Images: []secondary.TargetImageRecord{
			{ID: "img-1", StorageKind: "remote", Filename: "front.jpg", RemoteURL: "https://img.example/front.jpg",
				Width: 1024, Height: 768, ByteSize: 20480, Position: 0, CreatedAt: baseTime},
			{ID: "img-2", StorageKind: "local", Filename: "rear.jpg", LocalPath: "/tmp/rear.jpg",
				Caption: "rear bumper", Position: 1, CreatedAt: baseTime},
		},
		CreatedAt: baseTime,
	})
	require.NoError(t, err)

	targets, err := repo.ListByOperation(ctx, "op-1")
	require.NoError(t, err)
	require.Len(t, targets, 1)

	got := targets[0]
	assert.Equal(t, "vehicle", got.Kind)
	assert.Equal(t, "7ABC123", got.Fields["plate"])
	require.Len(t, got.Images, 2)
	assert.Equal(t, "img-1", got.Images[0].ID)
	assert.Equal(t, 1024, got.Images[0].Width)
	assert.Equal(t, int64(20480), got.Images[0].ByteSize)
	assert.Equal(t, "rear bumper", got.Images[1].Caption)
	assert.Equal(t, "/tmp/rear.jpg", got.Images[1].LocalPath)
}

func TestTargetRepository_DeleteCascadesImages(t *testing.T) {
	testDB := setupTestDB(t)
	seedUsers(t, testDB, "u1")
	seedOperation(t, testDB, "op-1", "active", "u1")
	repo := sqlite.NewTargetRepository(testDB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &secondary.TargetRecord{
		ID: "t-1", OperationID: "op-1", Kind: "person", Status: "pending",
		Images:    []secondary.TargetImageRecord{{ID: "img-1", StorageKind: "local", Filename: "a.jpg", CreatedAt: baseTime}},
		CreatedAt: baseTime,
	}))

	require.NoError(t, repo.Delete(ctx, "t-1"))

	var images int
	require.NoError(t, testDB.QueryRow("SELECT COUNT(*) FROM op_target_images").Scan(&images))
	assert.Equal(t, 0, images)

	assert.ErrorIs(t, repo.Delete(ctx, "t-1"), guard.ErrNotFound)
}

func TestTargetRepository_CreateFailureIsTransport(t *testing.T) {
	testDB := setupTestDB(t)
	seedUsers(t, testDB, "u1")
	repo := sqlite.NewTargetRepository(testDB)

	// Unknown operation violates the foreign key.
	err := repo.Create(context.Background(), &secondary.TargetRecord{
		ID: "t-1", OperationID: "missing", Kind: "person", Status: "pending", CreatedAt: baseTime,
	})
	assert.ErrorIs(t, err, guard.ErrTransport)
}
