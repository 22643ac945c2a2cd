package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stakeout/internal/config"
	"github.com/example/stakeout/internal/ctxutil"
	"github.com/example/stakeout/internal/db"
	"github.com/example/stakeout/internal/wire"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// useMemoryContainer points commands at a fresh seeded in-memory store.
func useMemoryContainer(t *testing.T) *wire.Container {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DatabasePath = db.MemoryPath
	cfg.LogLevel = "error"
	cfg.UserID = "user-reyes"
	c, err := wire.New(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, db.SeedFixtures(c.DB))

	prev := loadContainer
	loadContainer = func() (*wire.Container, error) { return c, nil }
	t.Cleanup(func() {
		loadContainer = prev
		c.Close()
	})
	return c
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// createdID returns the operation id printed by `op create`.
func createdID(t *testing.T, out string) string {
	t.Helper()
	// ✓ Created operation <id>: <name> [state]
	fields := strings.Fields(out)
	require.GreaterOrEqual(t, len(fields), 4, out)
	return strings.TrimSuffix(fields[3], ":")
}

func TestOperationLifecycleCommands(t *testing.T) {
	useMemoryContainer(t)

	out, err := run(t, "op", "create", "Harbor Watch", "--incident", "24-001873", "--draft")
	require.NoError(t, err)
	assert.Contains(t, out, "[draft]")
	opID := createdID(t, out)

	out, err = run(t, "op", "start", opID)
	require.NoError(t, err)
	assert.Contains(t, out, "is active")

	_, err = run(t, "member", "add", opID, "user-okafor", "user-park")
	require.NoError(t, err)

	out, err = run(t, "member", "list", opID)
	require.NoError(t, err)
	assert.Contains(t, out, "Nora 2")
	assert.Contains(t, out, "case_agent")

	out, err = run(t, "op", "show", opID)
	require.NoError(t, err)
	assert.Contains(t, out, "24-001873")

	_, err = run(t, "op", "end", opID, "--as", "user-okafor")
	assert.Error(t, err, "only the case agent ends")

	out, err = run(t, "op", "end", opID)
	require.NoError(t, err)
	assert.Contains(t, out, "ended")

	out, err = run(t, "op", "list", "--previous")
	require.NoError(t, err)
	assert.Contains(t, out, "Harbor Watch")
}

func TestInviteAndJoinCommands(t *testing.T) {
	c := useMemoryContainer(t)

	out, err := run(t, "op", "create", "Harbor Watch")
	require.NoError(t, err)
	opID := createdID(t, out)

	out, err = run(t, "invite", "send", opID, "user-okafor")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Invited user-okafor")

	invites, err := c.Memberships.ListOperationInvites(asUser(t, "user-reyes"), opID)
	require.NoError(t, err)
	require.Len(t, invites, 1)

	out, err = run(t, "invite", "accept", invites[0].ID, "--as", "user-okafor")
	require.NoError(t, err)
	assert.Contains(t, out, "Joined "+opID+" as member")

	_, err = run(t, "join", "request", opID, "--as", "user-park")
	require.NoError(t, err)

	out, err = run(t, "join", "list", opID)
	require.NoError(t, err)
	assert.Contains(t, out, "user-park")
	assert.Contains(t, out, "pending")
}

func TestTargetCommitCommand(t *testing.T) {
	useMemoryContainer(t)

	out, err := run(t, "op", "create", "Harbor Watch")
	require.NoError(t, err)
	opID := createdID(t, out)

	plan := filepath.Join(t.TempDir(), "edits.yaml")
	require.NoError(t, os.WriteFile(plan, []byte(`
targets:
  add:
    - id: t-1
      kind: vehicle
      fields: {plate: 7ABC123}
staging:
  add:
    - id: s-1
      label: Lot B
      address: 500 Main St
`), 0644))

	out, err = run(t, "target", "commit", opID, "--file", plan)
	require.NoError(t, err)
	assert.Contains(t, out, "1 succeeded, 0 failed, 1 skipped")

	out, err = run(t, "staging", "add", opID, "Gas station", "--at", "37.78,-122.41")
	require.NoError(t, err)
	assert.Contains(t, out, "1 succeeded")

	out, err = run(t, "staging", "remove", opID, "s-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s-missing")

	out, err = run(t, "target", "show", opID)
	require.NoError(t, err)
	assert.Contains(t, out, "plate=7ABC123")
	assert.Contains(t, out, "Gas station")
	assert.NotContains(t, out, "Lot B")
}

func TestAssignCommands(t *testing.T) {
	c := useMemoryContainer(t)

	out, err := run(t, "op", "create", "Harbor Watch")
	require.NoError(t, err)
	opID := createdID(t, out)
	_, err = run(t, "member", "add", opID, "user-okafor")
	require.NoError(t, err)

	_, err = run(t, "assign", "send", opID, "user-okafor", "37.7849,-122.4094", "--label", "North corner")
	require.NoError(t, err)

	list, err := c.Assignments.ListAssignments(asUser(t, "user-reyes"), opID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	out, err = run(t, "assign", "ack", id, "--as", "user-okafor")
	require.NoError(t, err)
	assert.Contains(t, out, "enRoute")

	out, err = run(t, "assign", "progress", id, "--as", "user-okafor")
	require.NoError(t, err)
	assert.Contains(t, out, "ETA:        Calculating…")

	out, err = run(t, "assign", "arrive", id, "--as", "user-okafor")
	require.NoError(t, err)
	assert.Contains(t, out, "arrived")
}

func TestLiveCommandsRequireBus(t *testing.T) {
	useMemoryContainer(t)

	_, err := run(t, "chat", "send", "op-1", "hello")
	assert.ErrorIs(t, err, wire.ErrNoEventBus)
}

func TestCommandsRequireActor(t *testing.T) {
	c := useMemoryContainer(t)
	c.Config.UserID = ""

	_, err := run(t, "op", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no acting user")
}

func asUser(t *testing.T, userID string) context.Context {
	t.Helper()
	return ctxutil.WithActorID(context.Background(), userID)
}
