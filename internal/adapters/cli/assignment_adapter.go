package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/stakeout/internal/ports/primary"
)

// AssignmentAdapter translates CLI operations to AssignmentService calls.
type AssignmentAdapter struct {
	service primary.AssignmentService
	out     io.Writer
}

// NewAssignmentAdapter creates a new AssignmentAdapter with the given service.
func NewAssignmentAdapter(service primary.AssignmentService, out io.Writer) *AssignmentAdapter {
	return &AssignmentAdapter{service: service, out: out}
}

// Assign sends a member to a location.
func (a *AssignmentAdapter) Assign(ctx context.Context, req primary.AssignRequest) error {
	as, err := a.service.Assign(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Assigned %s to %s (%.5f, %.5f) as %s\n", as.AssignedToUserID, orDash(as.Label), as.Lat, as.Lng, as.ID)
	return nil
}

// Acknowledge marks the actor's assignment en route.
func (a *AssignmentAdapter) Acknowledge(ctx context.Context, assignmentID string) error {
	return a.transition(a.service.Acknowledge(ctx, assignmentID))
}

// Arrive marks the actor's assignment arrived.
func (a *AssignmentAdapter) Arrive(ctx context.Context, assignmentID string) error {
	return a.transition(a.service.MarkArrived(ctx, assignmentID))
}

// Cancel cancels an assignment.
func (a *AssignmentAdapter) Cancel(ctx context.Context, assignmentID string) error {
	return a.transition(a.service.Cancel(ctx, assignmentID))
}

func (a *AssignmentAdapter) transition(as *primary.Assignment, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Assignment %s %s\n", as.ID, badge(as.Status))
	return nil
}

// List prints an operation's assignments, newest first.
func (a *AssignmentAdapter) List(ctx context.Context, operationID string) error {
	assignments, err := a.service.ListAssignments(ctx, operationID)
	if err != nil {
		return fmt.Errorf("failed to list assignments: %w", err)
	}
	if len(assignments) == 0 {
		fmt.Fprintln(a.out, "No assignments")
		return nil
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tASSIGNEE\tLABEL\tSTATUS\tASSIGNED")
	for _, as := range assignments {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", as.ID, as.AssignedToUserID, orDash(as.Label), badge(as.Status), ago(&as.AssignedAt))
	}
	return tw.Flush()
}

// Progress prints an assignment with its distance, ETA and route steps.
func (a *AssignmentAdapter) Progress(ctx context.Context, assignmentID string) error {
	p, err := a.service.Progress(ctx, assignmentID)
	if err != nil {
		return err
	}
	as := p.Assignment
	fmt.Fprintf(a.out, "\nAssignment: %s\n", as.ID)
	fmt.Fprintf(a.out, "Assignee:   %s\n", as.AssignedToUserID)
	fmt.Fprintf(a.out, "Location:   %s (%.5f, %.5f)\n", orDash(as.Label), as.Lat, as.Lng)
	if as.Notes != "" {
		fmt.Fprintf(a.out, "Notes:      %s\n", as.Notes)
	}
	fmt.Fprintf(a.out, "Status:     %s\n", badge(as.Status))
	if p.Distance != "" {
		fmt.Fprintf(a.out, "Distance:   %s\n", p.Distance)
		fmt.Fprintf(a.out, "ETA:        %s\n", p.ETA)
	}
	if p.Route != nil {
		for _, step := range p.Route.Steps {
			fmt.Fprintf(a.out, "  → %s\n", step)
		}
	}
	fmt.Fprintln(a.out)
	return nil
}
