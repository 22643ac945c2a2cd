package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/db"
	"github.com/example/stakeout/internal/ports/primary"
)

func TestIdentity_CreateHierarchy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	agency, err := h.identity.CreateAgency(ctx, "County Sheriff")
	require.NoError(t, err)
	team, err := h.identity.CreateTeam(ctx, agency.ID, "Narcotics")
	require.NoError(t, err)
	user, err := h.identity.CreateUser(ctx, primary.CreateUserRequest{
		TeamID:   team.ID,
		Name:     "Ari Stone",
		Callsign: "Sam 7",
	})
	require.NoError(t, err)
	assert.Equal(t, agency.ID, user.AgencyID, "agency comes from the team")

	users, err := h.identity.ListUsers(ctx, primary.UserFilters{AgencyID: agency.ID})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Sam 7", users[0].Callsign)

	squad, err := h.identity.ListUsers(ctx, primary.UserFilters{TeamID: db.FixtureTeamID})
	require.NoError(t, err)
	assert.Len(t, squad, 4)
}

func TestIdentity_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.identity.CreateAgency(ctx, "")
	assert.ErrorIs(t, err, guard.ErrMissingPrecondition)
	_, err = h.identity.CreateTeam(ctx, "agency-missing", "Narcotics")
	assert.ErrorIs(t, err, guard.ErrNotFound)
	_, err = h.identity.CreateUser(ctx, primary.CreateUserRequest{TeamID: "team-missing", Name: "Ari"})
	assert.ErrorIs(t, err, guard.ErrNotFound)
}

func TestUpdateProfile_OwnOnly(t *testing.T) {
	h := newHarness(t)

	user, err := h.identity.UpdateProfile(as(okafor), primary.UpdateProfileRequest{
		UserID:       okafor,
		Callsign:     "Nora 9",
		VehicleType:  "van",
		VehicleColor: "tan",
	})
	require.NoError(t, err)
	assert.Equal(t, "Nora 9", user.Callsign)
	assert.Equal(t, "van", user.VehicleType)

	_, err = h.identity.UpdateProfile(as(reyes), primary.UpdateProfileRequest{UserID: okafor, Callsign: "x"})
	assert.ErrorIs(t, err, guard.ErrNotAuthorized)
}
