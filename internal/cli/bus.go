package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/stakeout/internal/adapters/realtime"
	"github.com/example/stakeout/internal/config"
	"github.com/example/stakeout/internal/logging"
)

// BusCmd returns the bus command
func BusCmd() *cobra.Command {
	busCmd := &cobra.Command{
		Use:   "bus",
		Short: "Run the location and chat relay",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the WebSocket relay until interrupted",
		Long: `Serve GET /operations/{id}/locations and /operations/{id}/chat.
Every frame a client sends is relayed to the other clients on the same
stream. Nothing is stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			cfg, err := config.LoadConfig(dir)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Env, cfg.LogLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer logger.Sync()

			addr, _ := cmd.Flags().GetString("addr")
			ctx, stop := untilInterrupted(cmd.Context())
			defer stop()
			return serveRelay(ctx, addr, logger)
		},
	}
	serveCmd.Flags().String("addr", ":8787", "Listen address")

	busCmd.AddCommand(serveCmd)
	return busCmd
}

// serveRelay runs the relay until ctx ends, then closes peers and drains.
func serveRelay(ctx context.Context, addr string, logger *zap.Logger) error {
	hub := realtime.NewHub(logger.Named("hub"))
	server := &http.Server{
		Addr:              addr,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("relay listening", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		hub.Close()
		return fmt.Errorf("relay stopped: %w", err)
	case <-ctx.Done():
	}

	logger.Info("relay shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := server.Shutdown(shutdownCtx)
	hub.Close()
	if serveErr := <-errCh; !errors.Is(serveErr, http.ErrServerClosed) {
		return errors.Join(err, serveErr)
	}
	return err
}
