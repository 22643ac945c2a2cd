package wire

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stakeout/internal/adapters/realtime"
	"github.com/example/stakeout/internal/config"
	"github.com/example/stakeout/internal/ctxutil"
	"github.com/example/stakeout/internal/db"
	"github.com/example/stakeout/internal/ports/primary"
)

func memoryConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.DatabasePath = db.MemoryPath
	cfg.LogLevel = "error"
	return cfg
}

func TestNew_WiresServicesOverStore(t *testing.T) {
	var logs bytes.Buffer
	c, err := New(memoryConfig(), &logs)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, db.SeedFixtures(c.DB))

	ctx := ctxutil.WithActorID(context.Background(), "user-reyes")
	resp, err := c.Operations.CreateOperation(ctx, primary.CreateOperationRequest{Name: "Harbor Watch"})
	require.NoError(t, err)

	members, err := c.Memberships.ListMembers(ctx, resp.OperationID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	_, err = c.Live()
	assert.ErrorIs(t, err, ErrNoEventBus)
}

func TestNew_WithEventBus(t *testing.T) {
	hub := realtime.NewHub(nil)
	server := httptest.NewServer(hub.Handler())
	defer server.Close()
	defer hub.Close()

	cfg := memoryConfig()
	cfg.EventBusURL = server.URL
	c, err := New(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	defer c.Close()

	live, err := c.Live()
	require.NoError(t, err)
	assert.NotNil(t, live)
}

func TestNew_RejectsBadBusURL(t *testing.T) {
	cfg := memoryConfig()
	cfg.EventBusURL = "ftp://relay.example"
	_, err := New(cfg, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNew_RejectsBadLogLevel(t *testing.T) {
	cfg := memoryConfig()
	cfg.LogLevel = "chatty"
	_, err := New(cfg, &bytes.Buffer{})
	assert.Error(t, err)
}
