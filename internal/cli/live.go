package cli

import (
	"strings"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/stakeout/internal/adapters/cli"
	"github.com/example/stakeout/internal/ports/primary"
)

func liveAdapter(cmd *cobra.Command) (*cliadapter.LiveAdapter, error) {
	c, ctx, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	live, err := c.Live()
	if err != nil {
		return nil, err
	}
	cmd.SetContext(ctx)
	return cliadapter.NewLiveAdapter(live, cmd.OutOrStdout()), nil
}

func followCmd(short string) *cobra.Command {
	return &cobra.Command{
		Use:   "follow [operation-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := liveAdapter(cmd)
			if err != nil {
				return err
			}
			ctx, stop := untilInterrupted(cmd.Context())
			defer stop()
			return a.Follow(ctx, args[0])
		},
	}
}

// TrailCmd returns the trail command
func TrailCmd() *cobra.Command {
	trailCmd := &cobra.Command{
		Use:   "trail",
		Short: "Publish and follow live locations",
	}

	publishCmd := &cobra.Command{
		Use:   "publish [operation-id] [lat,lng]",
		Short: "Publish your location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lng, err := parseLatLng(args[1])
			if err != nil {
				return err
			}
			a, err := liveAdapter(cmd)
			if err != nil {
				return err
			}
			req := primary.PublishLocationRequest{OperationID: args[0], Lat: lat, Lng: lng}
			req.Accuracy, _ = cmd.Flags().GetFloat64("accuracy")
			if cmd.Flags().Changed("speed") {
				speed, _ := cmd.Flags().GetFloat64("speed")
				req.Speed = &speed
			}
			if cmd.Flags().Changed("heading") {
				heading, _ := cmd.Flags().GetFloat64("heading")
				req.Heading = &heading
			}
			return a.Publish(cmd.Context(), req)
		},
	}
	publishCmd.Flags().Float64("accuracy", 0, "Horizontal accuracy in meters")
	publishCmd.Flags().Float64("speed", 0, "Speed in m/s")
	publishCmd.Flags().Float64("heading", 0, "Heading in degrees")

	trailCmd.AddCommand(publishCmd)
	trailCmd.AddCommand(followCmd("Follow member locations and chat until interrupted"))
	return trailCmd
}

// ChatCmd returns the chat command
func ChatCmd() *cobra.Command {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Send and follow operation chat",
	}

	sendCmd := &cobra.Command{
		Use:   "send [operation-id] [message...]",
		Short: "Send a chat message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := liveAdapter(cmd)
			if err != nil {
				return err
			}
			return a.Say(cmd.Context(), args[0], strings.Join(args[1:], " "))
		},
	}

	chatCmd.AddCommand(sendCmd)
	chatCmd.AddCommand(followCmd("Follow chat and member locations until interrupted"))
	return chatCmd
}
