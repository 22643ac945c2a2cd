package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/stakeout/internal/ports/primary"
)

// IdentityAdapter translates CLI operations to IdentityService calls.
type IdentityAdapter struct {
	service primary.IdentityService
	out     io.Writer
}

// NewIdentityAdapter creates a new IdentityAdapter with the given service.
func NewIdentityAdapter(service primary.IdentityService, out io.Writer) *IdentityAdapter {
	return &IdentityAdapter{service: service, out: out}
}

// CreateAgency creates an agency.
func (a *IdentityAdapter) CreateAgency(ctx context.Context, name string) error {
	agency, err := a.service.CreateAgency(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Created agency %s: %s\n", agency.ID, agency.Name)
	return nil
}

// CreateTeam creates a team under an agency.
func (a *IdentityAdapter) CreateTeam(ctx context.Context, agencyID, name string) error {
	team, err := a.service.CreateTeam(ctx, agencyID, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Created team %s: %s\n", team.ID, team.Name)
	return nil
}

// CreateUser creates a user on a team.
func (a *IdentityAdapter) CreateUser(ctx context.Context, req primary.CreateUserRequest) error {
	user, err := a.service.CreateUser(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Created user %s: %s\n", user.ID, user.Name)
	return nil
}

// UpdateProfile updates callsign and vehicle fields.
func (a *IdentityAdapter) UpdateProfile(ctx context.Context, req primary.UpdateProfileRequest) error {
	user, err := a.service.UpdateProfile(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Updated profile of %s (%s)\n", user.Name, orDash(user.Callsign))
	return nil
}

// List prints the users of a team or agency.
func (a *IdentityAdapter) List(ctx context.Context, filters primary.UserFilters) error {
	users, err := a.service.ListUsers(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		fmt.Fprintln(a.out, "No users found")
		return nil
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tNAME\tCALLSIGN\tTEAM\tVEHICLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, orDash(u.Callsign), u.TeamID, orDash(joinNonEmpty(u.VehicleColor, u.VehicleType)))
	}
	return tw.Flush()
}
