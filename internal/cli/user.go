package cli

import (
	"github.com/spf13/cobra"

	cliadapter "github.com/example/stakeout/internal/adapters/cli"
	"github.com/example/stakeout/internal/ctxutil"
	"github.com/example/stakeout/internal/ports/primary"
)

// UserCmd returns the user command
func UserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage agencies, teams and users",
	}

	agencyCreateCmd := &cobra.Command{
		Use:   "agency [name]",
		Short: "Create an agency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := container()
			if err != nil {
				return err
			}
			return cliadapter.NewIdentityAdapter(c.Identity, cmd.OutOrStdout()).CreateAgency(cmd.Context(), args[0])
		},
	}

	teamCreateCmd := &cobra.Command{
		Use:   "team [agency-id] [name]",
		Short: "Create a team under an agency",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := container()
			if err != nil {
				return err
			}
			return cliadapter.NewIdentityAdapter(c.Identity, cmd.OutOrStdout()).CreateTeam(cmd.Context(), args[0], args[1])
		},
	}

	userCreateCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a user on a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := container()
			if err != nil {
				return err
			}
			teamID, _ := cmd.Flags().GetString("team")
			callsign, _ := cmd.Flags().GetString("callsign")
			vehicleType, _ := cmd.Flags().GetString("vehicle-type")
			vehicleColor, _ := cmd.Flags().GetString("vehicle-color")
			return cliadapter.NewIdentityAdapter(c.Identity, cmd.OutOrStdout()).CreateUser(cmd.Context(), primary.CreateUserRequest{
				TeamID:       teamID,
				Name:         args[0],
				Callsign:     callsign,
				VehicleType:  vehicleType,
				VehicleColor: vehicleColor,
			})
		},
	}
	userCreateCmd.Flags().String("team", "", "Team ID (required)")
	userCreateCmd.Flags().String("callsign", "", "Radio callsign")
	userCreateCmd.Flags().String("vehicle-type", "", "Vehicle type, e.g. sedan")
	userCreateCmd.Flags().String("vehicle-color", "", "Vehicle color")
	_ = userCreateCmd.MarkFlagRequired("team")

	userListCmd := &cobra.Command{
		Use:   "list",
		Short: "List users of a team or agency",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := container()
			if err != nil {
				return err
			}
			teamID, _ := cmd.Flags().GetString("team")
			agencyID, _ := cmd.Flags().GetString("agency")
			return cliadapter.NewIdentityAdapter(c.Identity, cmd.OutOrStdout()).List(cmd.Context(), primary.UserFilters{TeamID: teamID, AgencyID: agencyID})
		},
	}
	userListCmd.Flags().String("team", "", "Filter by team ID")
	userListCmd.Flags().String("agency", "", "Filter by agency ID")

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your callsign and vehicle",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			callsign, _ := cmd.Flags().GetString("callsign")
			vehicleType, _ := cmd.Flags().GetString("vehicle-type")
			vehicleColor, _ := cmd.Flags().GetString("vehicle-color")
			return cliadapter.NewIdentityAdapter(c.Identity, cmd.OutOrStdout()).UpdateProfile(ctx, primary.UpdateProfileRequest{
				UserID:       ctxutil.ActorFromContext(ctx),
				Callsign:     callsign,
				VehicleType:  vehicleType,
				VehicleColor: vehicleColor,
			})
		},
	}
	profileCmd.Flags().String("callsign", "", "Radio callsign")
	profileCmd.Flags().String("vehicle-type", "", "Vehicle type")
	profileCmd.Flags().String("vehicle-color", "", "Vehicle color")

	userCmd.AddCommand(agencyCreateCmd)
	userCmd.AddCommand(teamCreateCmd)
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(profileCmd)
	return userCmd
}
