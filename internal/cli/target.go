package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/stakeout/internal/adapters/cli"
)

// TargetCmd returns the target command
func TargetCmd() *cobra.Command {
	targetCmd := &cobra.Command{
		Use:   "target",
		Short: "Edit an operation's targets and staging points",
		Long: `Show and edit targets and staging points. Edits are applied to a
session opened on the stored state and committed as creates and deletes:
a replaced item is deleted and re-created under a new ID, while in-place
edits stay local. Staging points without coordinates are skipped.`,
	}

	showCmd := &cobra.Command{
		Use:   "show [operation-id]",
		Short: "Show stored targets and staging points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			return cliadapter.NewEditAdapter(c.Edits, cmd.OutOrStdout()).Show(ctx, args[0])
		},
	}

	commitCmd := &cobra.Command{
		Use:   "commit [operation-id]",
		Short: "Apply an edit plan (YAML) and send the changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			file, _ := cmd.Flags().GetString("file")
			var r io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open edit plan: %w", err)
				}
				defer f.Close()
				r = f
			}
			plan, err := cliadapter.ParseEditPlan(r)
			if err != nil {
				return err
			}
			return cliadapter.NewEditAdapter(c.Edits, cmd.OutOrStdout()).Commit(ctx, args[0], plan)
		},
	}
	commitCmd.Flags().StringP("file", "f", "", "Edit plan file, or - for stdin (required)")
	_ = commitCmd.MarkFlagRequired("file")

	targetCmd.AddCommand(showCmd)
	targetCmd.AddCommand(commitCmd)
	return targetCmd
}

// StagingCmd returns the staging command
func StagingCmd() *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Add and remove staging points",
	}

	addCmd := &cobra.Command{
		Use:   "add [operation-id] [label]",
		Short: "Add a staging point; without --at it stays local",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			spec := cliadapter.StagingSpec{Label: args[1]}
			spec.Address, _ = cmd.Flags().GetString("address")
			if at, _ := cmd.Flags().GetString("at"); at != "" {
				lat, lng, err := parseLatLng(at)
				if err != nil {
					return err
				}
				spec.Lat, spec.Lng = &lat, &lng
			}
			plan := &cliadapter.EditPlan{Staging: cliadapter.StagingPlan{Add: []cliadapter.StagingSpec{spec}}}
			return cliadapter.NewEditAdapter(c.Edits, cmd.OutOrStdout()).Commit(ctx, args[0], plan)
		},
	}
	addCmd.Flags().String("at", "", "Position as lat,lng")
	addCmd.Flags().String("address", "", "Street address")

	removeCmd := &cobra.Command{
		Use:   "remove [operation-id] [staging-id...]",
		Short: "Remove staging points",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			plan := &cliadapter.EditPlan{Staging: cliadapter.StagingPlan{Remove: args[1:]}}
			return cliadapter.NewEditAdapter(c.Edits, cmd.OutOrStdout()).Commit(ctx, args[0], plan)
		},
	}

	stagingCmd.AddCommand(addCmd)
	stagingCmd.AddCommand(removeCmd)
	return stagingCmd
}
