package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/example/stakeout/internal/ports/primary"
)

// MembershipAdapter translates CLI operations to MembershipService calls.
type MembershipAdapter struct {
	service primary.MembershipService
	out     io.Writer
}

// NewMembershipAdapter creates a new MembershipAdapter with the given service.
func NewMembershipAdapter(service primary.MembershipService, out io.Writer) *MembershipAdapter {
	return &MembershipAdapter{service: service, out: out}
}

// Members prints the active roster.
func (a *MembershipAdapter) Members(ctx context.Context, operationID string) error {
	members, err := a.service.ListMembers(ctx, operationID)
	if err != nil {
		return fmt.Errorf("failed to list members: %w", err)
	}
	if len(members) == 0 {
		fmt.Fprintln(a.out, "No members")
		return nil
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "USER\tNAME\tCALLSIGN\tROLE\tVEHICLE\tPUBLISHING\tJOINED")
	for _, m := range members {
		publishing := ""
		if m.IsActive {
			publishing = green.Sprint("live")
		}
		vehicle := orDash(joinNonEmpty(m.VehicleColor, m.VehicleType))
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", m.UserID, m.Name, orDash(m.Callsign), m.Role, vehicle, publishing, ago(&m.JoinedAt))
	}
	return tw.Flush()
}

// Add adds users directly to the roster.
func (a *MembershipAdapter) Add(ctx context.Context, operationID string, userIDs []string) error {
	n, err := a.service.AddMembers(ctx, operationID, userIDs)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Added %d member(s) to %s\n", n, operationID)
	return nil
}

// Remove removes a member.
func (a *MembershipAdapter) Remove(ctx context.Context, operationID, userID string) error {
	if err := a.service.RemoveMember(ctx, operationID, userID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Removed %s from %s\n", userID, operationID)
	return nil
}

// Leave removes the actor from the roster.
func (a *MembershipAdapter) Leave(ctx context.Context, operationID string) error {
	if err := a.service.LeaveOperation(ctx, operationID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Left %s\n", operationID)
	return nil
}

// Transfer hands case agent status to another member.
func (a *MembershipAdapter) Transfer(ctx context.Context, operationID, toUserID string) error {
	if err := a.service.TransferCaseAgent(ctx, operationID, toUserID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ %s is now case agent of %s\n", toUserID, operationID)
	return nil
}

// Publishing toggles the actor's location publishing flag.
func (a *MembershipAdapter) Publishing(ctx context.Context, operationID string, active bool) error {
	if err := a.service.SetPublishing(ctx, operationID, active); err != nil {
		return err
	}
	state := "stopped"
	if active {
		state = "started"
	}
	fmt.Fprintf(a.out, "✓ Location publishing %s for %s\n", state, operationID)
	return nil
}

// Invite invites a user.
func (a *MembershipAdapter) Invite(ctx context.Context, operationID, inviteeID string, ttl time.Duration) error {
	inv, err := a.service.InviteUser(ctx, primary.InviteUserRequest{OperationID: operationID, InviteeUserID: inviteeID, TTL: ttl})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Invited %s to %s (invite %s, expires %s)\n", inviteeID, operationID, inv.ID, ago(&inv.ExpiresAt))
	return nil
}

// Invites lists the actor's invites, or an operation's when operationID is set.
func (a *MembershipAdapter) Invites(ctx context.Context, operationID string) error {
	var invites []*primary.Invite
	var err error
	if operationID != "" {
		invites, err = a.service.ListOperationInvites(ctx, operationID)
	} else {
		invites, err = a.service.ListMyInvites(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list invites: %w", err)
	}
	if len(invites) == 0 {
		fmt.Fprintln(a.out, "No invites")
		return nil
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tOPERATION\tFROM\tTO\tSTATUS\tEXPIRES")
	for _, inv := range invites {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", inv.ID, inv.OperationID, inv.InviterUserID, inv.InviteeUserID, badge(inv.Status), ago(&inv.ExpiresAt))
	}
	return tw.Flush()
}

// Respond accepts or declines an invite.
func (a *MembershipAdapter) Respond(ctx context.Context, inviteID string, accept bool) error {
	if accept {
		m, err := a.service.AcceptInvite(ctx, inviteID)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "✓ Joined %s as %s\n", m.OperationID, m.Role)
		return nil
	}
	inv, err := a.service.DeclineInvite(ctx, inviteID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Invite %s %s\n", inv.ID, badge(inv.Status))
	return nil
}

// RequestJoin asks to join an operation.
func (a *MembershipAdapter) RequestJoin(ctx context.Context, operationID string) error {
	jr, err := a.service.RequestJoin(ctx, operationID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Requested to join %s (request %s)\n", operationID, jr.ID)
	return nil
}

// JoinRequests lists an operation's join requests.
func (a *MembershipAdapter) JoinRequests(ctx context.Context, operationID string) error {
	requests, err := a.service.ListJoinRequests(ctx, operationID)
	if err != nil {
		return fmt.Errorf("failed to list join requests: %w", err)
	}
	if len(requests) == 0 {
		fmt.Fprintln(a.out, "No join requests")
		return nil
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tREQUESTER\tSTATUS\tREQUESTED\tEXPIRES")
	for _, jr := range requests {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", jr.ID, jr.RequesterUserID, badge(jr.Status), ago(&jr.CreatedAt), ago(&jr.ExpiresAt))
	}
	return tw.Flush()
}

// RespondJoin approves or denies a join request.
func (a *MembershipAdapter) RespondJoin(ctx context.Context, requestID string, approve bool) error {
	jr, err := a.service.RespondJoin(ctx, requestID, approve)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Join request %s %s\n", jr.ID, badge(jr.Status))
	return nil
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
