// Package cli implements the stakeout cobra commands. Commands resolve the
// acting user, build adapters over the wired services and print through them.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/stakeout/internal/ctxutil"
	"github.com/example/stakeout/internal/wire"
)

// NewRootCmd builds the stakeout command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "stakeout",
		Short:   "Stakeout - shared state for surveillance operations",
		Version: version,
		Long: `Stakeout manages surveillance operations: rosters, invites and join
requests, targets and staging points, assigned locations, and the live
location and chat feed relayed between members.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("as", "", "Act as this user ID (default: user_id from config)")

	rootCmd.AddCommand(InitCmd())
	rootCmd.AddCommand(UserCmd())
	rootCmd.AddCommand(OperationCmd())
	rootCmd.AddCommand(MemberCmd())
	rootCmd.AddCommand(InviteCmd())
	rootCmd.AddCommand(JoinCmd())
	rootCmd.AddCommand(TargetCmd())
	rootCmd.AddCommand(StagingCmd())
	rootCmd.AddCommand(AssignCmd())
	rootCmd.AddCommand(TrailCmd())
	rootCmd.AddCommand(ChatCmd())
	rootCmd.AddCommand(BusCmd())

	return rootCmd
}

// loadContainer builds the service container; tests replace it.
var loadContainer = wire.Default

// container returns the process-wide service container.
func container() (*wire.Container, error) {
	c, err := loadContainer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return c, nil
}

// actorContext returns the command context carrying the acting user, taken
// from --as or the configured user_id.
func actorContext(cmd *cobra.Command, c *wire.Container) (context.Context, error) {
	actor, _ := cmd.Flags().GetString("as")
	if actor == "" {
		actor = c.Config.UserID
	}
	if actor == "" {
		return nil, fmt.Errorf("no acting user\nHint: use --as, set STAKEOUT_USER, or run `stakeout init --user <id>`")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctxutil.WithActorID(ctx, actor), nil
}

// setup resolves the container and the acting user in one step.
func setup(cmd *cobra.Command) (*wire.Container, context.Context, error) {
	c, err := container()
	if err != nil {
		return nil, nil, err
	}
	ctx, err := actorContext(cmd, c)
	if err != nil {
		return nil, nil, err
	}
	return c, ctx, nil
}

// untilInterrupted returns a context that ends on SIGINT or SIGTERM.
func untilInterrupted(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
