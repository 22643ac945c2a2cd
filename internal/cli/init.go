package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/stakeout/internal/config"
	"github.com/example/stakeout/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write .stakeout/config.yaml and initialize the database",
		Long: `Write .stakeout/config.yaml in the current directory and create the
database with the current schema. Existing config values are kept unless a
flag overrides them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			cfg, err := config.LoadConfig(dir)
			if err != nil {
				return err
			}

			if v, _ := cmd.Flags().GetString("user"); v != "" {
				cfg.UserID = v
			}
			if v, _ := cmd.Flags().GetString("db"); v != "" {
				cfg.DatabasePath = v
			}
			if v, _ := cmd.Flags().GetString("bus-url"); v != "" {
				cfg.EventBusURL = v
			}
			if v, _ := cmd.Flags().GetString("env"); v != "" {
				cfg.Env = v
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.SaveConfig(dir, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", config.Path(dir))

			path := cfg.DatabasePath
			if path == "" {
				if path, err = db.DefaultPath(); err != nil {
					return err
				}
			}
			database, err := db.Open(path)
			if err != nil {
				return err
			}
			defer database.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Database ready at %s\n", path)

			if seed, _ := cmd.Flags().GetBool("seed"); seed {
				if err := db.SeedFixtures(database); err != nil {
					return fmt.Errorf("failed to seed fixtures: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Seeded %s with team %s\n", db.FixtureAgencyID, db.FixtureTeamID)
			}

			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "Next steps:")
			fmt.Fprintln(cmd.OutOrStdout(), "  stakeout op create \"Harbor Watch\" --incident 24-001873")
			fmt.Fprintln(cmd.OutOrStdout(), "  stakeout op list")
			return nil
		},
	}

	cmd.Flags().String("user", "", "Acting user ID to store in the config")
	cmd.Flags().String("db", "", "Database path (default: ~/.stakeout/stakeout.db)")
	cmd.Flags().String("bus-url", "", "Relay base URL, e.g. http://localhost:8787")
	cmd.Flags().String("env", "", "development or production")
	cmd.Flags().Bool("seed", false, "Seed a development agency, team and users")
	return cmd
}
