// Package wire provides dependency injection for the stakeout application.
// New builds a container from a Config; Default lazily builds one for the
// CLI from the working directory's config.
package wire

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/example/stakeout/internal/adapters/realtime"
	"github.com/example/stakeout/internal/adapters/routing"
	"github.com/example/stakeout/internal/adapters/sqlite"
	"github.com/example/stakeout/internal/app"
	"github.com/example/stakeout/internal/config"
	"github.com/example/stakeout/internal/db"
	"github.com/example/stakeout/internal/logging"
	"github.com/example/stakeout/internal/ports/primary"
)

// ErrNoEventBus is returned by Live when no event_bus_url is configured.
var ErrNoEventBus = errors.New("no event bus configured (set event_bus_url or STAKEOUT_BUS_URL)")

// Container holds the services built for one process.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sql.DB

	Identity    primary.IdentityService
	Operations  primary.OperationService
	Memberships primary.MembershipService
	Edits       primary.EditService
	Assignments primary.AssignmentService

	live *app.LiveServiceImpl
	bus  *realtime.WebSocketBus
}

// New opens the store named by cfg and wires every service over it.
// Logs go to logOut (stderr when nil).
func New(cfg *config.Config, logOut io.Writer) (*Container, error) {
	logger, err := logging.New(cfg.Env, cfg.LogLevel, logOut)
	if err != nil {
		return nil, err
	}

	path := cfg.DatabasePath
	if path == "" {
		if path, err = db.DefaultPath(); err != nil {
			return nil, err
		}
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Logger: logger, DB: database}

	// Create repository adapters (secondary ports)
	identityRepo := sqlite.NewIdentityRepository(database)
	operationRepo := sqlite.NewOperationRepository(database)
	memberRepo := sqlite.NewMemberRepository(database)
	inviteRepo := sqlite.NewInviteRepository(database)
	joinRepo := sqlite.NewJoinRequestRepository(database)
	targetRepo := sqlite.NewTargetRepository(database)
	stagingRepo := sqlite.NewStagingRepository(database)
	assignmentRepo := sqlite.NewAssignmentRepository(database)

	if cfg.EventBusURL != "" {
		bus, err := realtime.NewWebSocketBus(cfg.EventBusURL, logger.Named("bus"))
		if err != nil {
			database.Close()
			return nil, err
		}
		c.bus = bus
		c.live = app.NewLiveService(bus, memberRepo, cfg.TrailWindow, app.SystemClock, logger.Named("live"))
	}

	// Create services (primary ports implementation)
	edits := app.NewEditService(operationRepo, memberRepo, targetRepo, stagingRepo, cfg.ReconcileConcurrency, app.SystemClock, logger.Named("edit"))
	c.Edits = edits
	c.Identity = app.NewIdentityService(identityRepo, app.SystemClock)
	c.Operations = app.NewOperationService(identityRepo, operationRepo, memberRepo, targetRepo, stagingRepo, edits, app.SystemClock, logger.Named("operation"))
	c.Memberships = app.NewMembershipService(identityRepo, operationRepo, memberRepo, inviteRepo, joinRepo, cfg.InviteTTL, cfg.JoinRequestTTL, app.SystemClock, logger.Named("membership"))

	// Routes are only known from live trails.
	if c.live != nil {
		oracle := routing.NewStraightLine(assignmentRepo, c.live, cfg.AverageSpeed(), app.SystemClock)
		c.Assignments = app.NewAssignmentService(operationRepo, memberRepo, assignmentRepo, oracle, app.SystemClock, logger.Named("assignment"))
	} else {
		c.Assignments = app.NewAssignmentService(operationRepo, memberRepo, assignmentRepo, nil, app.SystemClock, logger.Named("assignment"))
	}

	return c, nil
}

// Live returns the live feed service, or ErrNoEventBus.
func (c *Container) Live() (primary.LiveService, error) {
	if c.live == nil {
		return nil, ErrNoEventBus
	}
	return c.live, nil
}

// Close releases the bus connections and the store.
func (c *Container) Close() error {
	var errs []error
	if c.bus != nil {
		errs = append(errs, c.bus.Close())
	}
	errs = append(errs, c.DB.Close())
	_ = c.Logger.Sync()
	return errors.Join(errs...)
}

var (
	defaultContainer *Container
	defaultErr       error
	once             sync.Once
)

// Default returns the process-wide container built from the config in the
// working directory. It is built once.
func Default() (*Container, error) {
	once.Do(func() {
		dir, err := os.Getwd()
		if err != nil {
			defaultErr = fmt.Errorf("failed to get working directory: %w", err)
			return
		}
		cfg, err := config.LoadConfig(dir)
		if err != nil {
			defaultErr = err
			return
		}
		defaultContainer, defaultErr = New(cfg, os.Stderr)
	})
	return defaultContainer, defaultErr
}

// CloseDefault closes the container built by Default, if any.
func CloseDefault() error {
	if defaultContainer == nil {
		return nil
	}
	return defaultContainer.Close()
}
