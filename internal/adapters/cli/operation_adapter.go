package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/stakeout/internal/ports/primary"
)

// OperationAdapter is a thin adapter that translates CLI operations to OperationService calls.
type OperationAdapter struct {
	service primary.OperationService
	out     io.Writer
}

// NewOperationAdapter creates a new OperationAdapter with the given service.
func NewOperationAdapter(service primary.OperationService, out io.Writer) *OperationAdapter {
	return &OperationAdapter{service: service, out: out}
}

// Create creates an operation, active unless draft is set.
func (a *OperationAdapter) Create(ctx context.Context, req primary.CreateOperationRequest) error {
	resp, err := a.service.CreateOperation(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Created operation %s: %s [%s]\n", resp.OperationID, resp.Operation.Name, badge(resp.Operation.State))
	return nil
}

// List lists active operations, or the actor's previous ones.
func (a *OperationAdapter) List(ctx context.Context, previous bool) error {
	if previous {
		ops, err := a.service.ListPreviousOperations(ctx)
		if err != nil {
			return fmt.Errorf("failed to list operations: %w", err)
		}
		if len(ops) == 0 {
			fmt.Fprintln(a.out, "No previous operations")
			return nil
		}
		tw := newTable(a.out)
		fmt.Fprintln(tw, "ID\tNAME\tINCIDENT\tENDED")
		for _, op := range ops {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.ID, op.Name, orDash(op.IncidentNumber), ago(op.EndsAt))
		}
		return tw.Flush()
	}

	listings, err := a.service.ListActiveOperations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list operations: %w", err)
	}
	if len(listings) == 0 {
		fmt.Fprintln(a.out, "No active operations")
		return nil
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tNAME\tSTATE\tINCIDENT\tSTARTED\tMEMBER")
	for _, l := range listings {
		member := ""
		if l.IsMember {
			member = "✓"
		}
		op := l.Operation
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", op.ID, op.Name, badge(op.State), orDash(op.IncidentNumber), ago(op.StartsAt), member)
	}
	return tw.Flush()
}

// Show displays details for a single operation.
func (a *OperationAdapter) Show(ctx context.Context, operationID string) error {
	op, err := a.service.GetOperation(ctx, operationID)
	if err != nil {
		return fmt.Errorf("failed to get operation: %w", err)
	}

	fmt.Fprintf(a.out, "\nOperation: %s\n", op.ID)
	fmt.Fprintf(a.out, "Name:      %s\n", op.Name)
	fmt.Fprintf(a.out, "State:     %s\n", badge(op.State))
	if op.IncidentNumber != "" {
		fmt.Fprintf(a.out, "Incident:  %s\n", op.IncidentNumber)
	}
	if op.CaseAgentUserID != "" {
		fmt.Fprintf(a.out, "Case agent: %s\n", op.CaseAgentUserID)
	}
	fmt.Fprintf(a.out, "Team:      %s\n", op.TeamID)
	fmt.Fprintf(a.out, "Created:   %s\n", ago(&op.CreatedAt))
	if op.StartsAt != nil {
		fmt.Fprintf(a.out, "Started:   %s\n", ago(op.StartsAt))
	}
	if op.EndsAt != nil {
		fmt.Fprintf(a.out, "Ended:     %s\n", ago(op.EndsAt))
	}
	fmt.Fprintln(a.out)
	return nil
}

// Update edits name and incident number.
func (a *OperationAdapter) Update(ctx context.Context, operationID, name, incident string) error {
	if name == "" && incident == "" {
		return fmt.Errorf("must specify at least --name or --incident")
	}
	if err := a.service.UpdateOperation(ctx, primary.UpdateOperationRequest{
		OperationID:    operationID,
		Name:           name,
		IncidentNumber: incident,
	}); err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Operation %s updated\n", operationID)
	return nil
}

// Start moves a draft operation to active.
func (a *OperationAdapter) Start(ctx context.Context, operationID string) error {
	op, err := a.service.StartOperation(ctx, operationID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Operation %s is %s\n", op.ID, badge(op.State))
	return nil
}

// End ends an operation.
func (a *OperationAdapter) End(ctx context.Context, operationID string) error {
	op, err := a.service.EndOperation(ctx, operationID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Operation %s %s\n", op.ID, badge(op.State))
	return nil
}

// Clone starts a new operation from an ended one and reports what was copied.
func (a *OperationAdapter) Clone(ctx context.Context, sourceID string) error {
	resp, err := a.service.CloneOperation(ctx, sourceID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Cloned %s into %s: %s\n", sourceID, resp.OperationID, resp.Operation.Name)
	if resp.Copy == nil {
		return nil
	}
	return RenderReconcileResult(a.out, resp.Copy)
}
