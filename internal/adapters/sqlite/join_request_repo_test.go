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

func newJoinRequest(id, requester string) *secondary.JoinRequestRecord {
	return &secondary.JoinRequestRecord{
		ID:              id,
		OperationID:     "op-1",
		RequesterUserID: requester,
		Status:          "pending",
		CreatedAt:       baseTime,
		ExpiresAt:       baseTime.Add(time.Hour),
	}
}

func TestJoinRequestRepository_Approve(t *testing.T) {
	testDB := setupTestDB(t)
	seedUsers(t, testDB, "u1", "u2")
	seedOperation(t, testDB, "op-1", "active", "u1")
	repo := sqlite.NewJoinRequestRepository(testDB)
	members := sqlite.NewMemberRepository(testDB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newJoinRequest("jr-1", "u2")))
	require.NoError(t, repo.Approve(ctx, "jr-1", "u1", baseTime, &secondary.MemberRecord{
		OperationID: "op-1", UserID: "u2", Role: "member", JoinedAt: baseTime,
	}))

	got, err := repo.GetByID(ctx, "jr-1")
	require.NoError(t, err)
	assert.Equal(t, "approved", got.Status)
	assert.Equal(t, "u1", got.RespondedByUserID)

	roster, err := members.List(ctx, "op-1", false)
	require.NoError(t, err)
	assert.Len(t, roster, 2)
}

func TestJoinRequestRepository_DenyIsTerminal(t *testing.T) {
	testDB := setupTestDB(t)
	seedUsers(t, testDB, "u1", "u2")
	seedOperation(t, testDB, "op-1", "active", "u1")
	repo := sqlite.NewJoinRequestRepository(testDB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newJoinRequest("jr-1", "u2")))
	require.NoError(t, repo.Deny(ctx, "jr-1", "u1", baseTime))

	err := repo.Deny(ctx, "jr-1", "u1", baseTime)
	assert.ErrorIs(t, err, guard.ErrInvalidTransition)

	list, err := repo.List(ctx, secondary.JoinRequestFilters{OperationID: "op-1", RequesterUserID: "u2"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "denied", list[0].Status)
}
