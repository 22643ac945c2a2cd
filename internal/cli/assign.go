package cli

import (
	"github.com/spf13/cobra"

	cliadapter "github.com/example/stakeout/internal/adapters/cli"
	"github.com/example/stakeout/internal/ports/primary"
)

// AssignCmd returns the assign command
func AssignCmd() *cobra.Command {
	assignCmd := &cobra.Command{
		Use:   "assign",
		Short: "Send members to locations and track their progress",
	}

	sendCmd := &cobra.Command{
		Use:   "send [operation-id] [user-id] [lat,lng]",
		Short: "Assign a member to a location (case agent only)",
		Long:  "Assign a member to a location. Any active assignment they hold is cancelled.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			lat, lng, err := parseLatLng(args[2])
			if err != nil {
				return err
			}
			label, _ := cmd.Flags().GetString("label")
			notes, _ := cmd.Flags().GetString("notes")
			return cliadapter.NewAssignmentAdapter(c.Assignments, cmd.OutOrStdout()).Assign(ctx, primary.AssignRequest{
				OperationID:    args[0],
				AssigneeUserID: args[1],
				Lat:            lat,
				Lng:            lng,
				Label:          label,
				Notes:          notes,
			})
		},
	}
	sendCmd.Flags().StringP("label", "l", "", "Location label")
	sendCmd.Flags().String("notes", "", "Notes for the assignee")

	listCmd := &cobra.Command{
		Use:   "list [operation-id]",
		Short: "List an operation's assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			return cliadapter.NewAssignmentAdapter(c.Assignments, cmd.OutOrStdout()).List(ctx, args[0])
		},
	}

	step := func(use, short string, fn func(*cliadapter.AssignmentAdapter) func(cmd *cobra.Command, id string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " [assignment-id]",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, ctx, err := setup(cmd)
				if err != nil {
					return err
				}
				cmd.SetContext(ctx)
				return fn(cliadapter.NewAssignmentAdapter(c.Assignments, cmd.OutOrStdout()))(cmd, args[0])
			},
		}
	}

	ackCmd := step("ack", "Acknowledge your assignment (en route)", func(a *cliadapter.AssignmentAdapter) func(*cobra.Command, string) error {
		return func(cmd *cobra.Command, id string) error { return a.Acknowledge(cmd.Context(), id) }
	})
	arriveCmd := step("arrive", "Mark your assignment arrived", func(a *cliadapter.AssignmentAdapter) func(*cobra.Command, string) error {
		return func(cmd *cobra.Command, id string) error { return a.Arrive(cmd.Context(), id) }
	})
	cancelCmd := step("cancel", "Cancel an assignment", func(a *cliadapter.AssignmentAdapter) func(*cobra.Command, string) error {
		return func(cmd *cobra.Command, id string) error { return a.Cancel(cmd.Context(), id) }
	})
	progressCmd := step("progress", "Show distance and ETA", func(a *cliadapter.AssignmentAdapter) func(*cobra.Command, string) error {
		return func(cmd *cobra.Command, id string) error { return a.Progress(cmd.Context(), id) }
	})

	assignCmd.AddCommand(sendCmd)
	assignCmd.AddCommand(listCmd)
	assignCmd.AddCommand(ackCmd)
	assignCmd.AddCommand(arriveCmd)
	assignCmd.AddCommand(cancelCmd)
	assignCmd.AddCommand(progressCmd)
	return assignCmd
}
