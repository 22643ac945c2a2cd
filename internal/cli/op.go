package cli

import (
	"github.com/spf13/cobra"

	cliadapter "github.com/example/stakeout/internal/adapters/cli"
	"github.com/example/stakeout/internal/ports/primary"
)

// OperationCmd returns the op command
func OperationCmd() *cobra.Command {
	opCmd := &cobra.Command{
		Use:     "op",
		Aliases: []string{"operation"},
		Short:   "Manage operations (draft, active, ended)",
	}

	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create an operation; you become its case agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			incident, _ := cmd.Flags().GetString("incident")
			teamID, _ := cmd.Flags().GetString("team")
			draft, _ := cmd.Flags().GetBool("draft")
			return cliadapter.NewOperationAdapter(c.Operations, cmd.OutOrStdout()).Create(ctx, primary.CreateOperationRequest{
				Name:           args[0],
				IncidentNumber: incident,
				TeamID:         teamID,
				Draft:          draft,
			})
		},
	}
	createCmd.Flags().StringP("incident", "i", "", "Incident number")
	createCmd.Flags().String("team", "", "Team ID (default: your team)")
	createCmd.Flags().Bool("draft", false, "Save as draft instead of starting")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List active operations in your agency",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			previous, _ := cmd.Flags().GetBool("previous")
			return cliadapter.NewOperationAdapter(c.Operations, cmd.OutOrStdout()).List(ctx, previous)
		},
	}
	listCmd.Flags().BoolP("previous", "p", false, "List ended operations you took part in")

	showCmd := &cobra.Command{
		Use:   "show [operation-id]",
		Short: "Show operation details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			return cliadapter.NewOperationAdapter(c.Operations, cmd.OutOrStdout()).Show(ctx, args[0])
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update [operation-id]",
		Short: "Rename an operation or change its incident number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			incident, _ := cmd.Flags().GetString("incident")
			return cliadapter.NewOperationAdapter(c.Operations, cmd.OutOrStdout()).Update(ctx, args[0], name, incident)
		},
	}
	updateCmd.Flags().StringP("name", "n", "", "New name")
	updateCmd.Flags().StringP("incident", "i", "", "New incident number")

	startCmd := &cobra.Command{
		Use:   "start [operation-id]",
		Short: "Start a draft operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			return cliadapter.NewOperationAdapter(c.Operations, cmd.OutOrStdout()).Start(ctx, args[0])
		},
	}

	endCmd := &cobra.Command{
		Use:   "end [operation-id]",
		Short: "End an operation; every member leaves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			return cliadapter.NewOperationAdapter(c.Operations, cmd.OutOrStdout()).End(ctx, args[0])
		},
	}

	cloneCmd := &cobra.Command{
		Use:   "clone [operation-id]",
		Short: "Start a new operation from an ended one, copying targets and staging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			return cliadapter.NewOperationAdapter(c.Operations, cmd.OutOrStdout()).Clone(ctx, args[0])
		},
	}

	opCmd.AddCommand(createCmd)
	opCmd.AddCommand(listCmd)
	opCmd.AddCommand(showCmd)
	opCmd.AddCommand(updateCmd)
	opCmd.AddCommand(startCmd)
	opCmd.AddCommand(endCmd)
	opCmd.AddCommand(cloneCmd)
	return opCmd
}
