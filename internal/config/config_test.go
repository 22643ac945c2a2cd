package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvUser, EnvDB, EnvBusURL, EnvEnv, EnvLogLevel} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, time.Hour, cfg.InviteTTL)
	assert.Equal(t, 10*time.Minute, cfg.TrailWindow)
	assert.Equal(t, 4, cfg.ReconcileConcurrency)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.UserID = "user-reyes"
	cfg.EventBusURL = "http://localhost:8787"
	cfg.TrailWindow = 5 * time.Minute
	require.NoError(t, SaveConfig(dir, cfg))

	data, err := os.ReadFile(filepath.Join(dir, ".stakeout", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "trail_window: 5m0s")
	assert.Contains(t, string(data), "user_id: user-reyes")

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".stakeout"), 0755))
	require.NoError(t, os.WriteFile(Path(dir), []byte("user_id: user-park\ninvite_ttl: 30m\n"), 0644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "user-park", cfg.UserID)
	assert.Equal(t, 30*time.Minute, cfg.InviteTTL)
	assert.Equal(t, time.Hour, cfg.JoinRequestTTL)
	assert.Equal(t, 40.0, cfg.AverageSpeedKPH)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.UserID = "user-reyes"
	require.NoError(t, SaveConfig(dir, cfg))

	t.Setenv(EnvUser, "user-okafor")
	t.Setenv(EnvDB, "/tmp/stakeout-test.db")
	t.Setenv(EnvBusURL, "https://relay.example")
	t.Setenv(EnvEnv, "production")
	t.Setenv(EnvLogLevel, "warn")

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "user-okafor", loaded.UserID)
	assert.Equal(t, "/tmp/stakeout-test.db", loaded.DatabasePath)
	assert.Equal(t, "https://relay.example", loaded.EventBusURL)
	assert.Equal(t, "production", loaded.Env)
	assert.Equal(t, "warn", loaded.LogLevel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown env", "env: staging\n"},
		{"zero concurrency", "reconcile_concurrency: 0\n"},
		{"negative speed", "average_speed_kph: -5\n"},
		{"bad duration", "trail_window: soon\n"},
		{"zero trail window", "trail_window: 0s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			require.NoError(t, os.MkdirAll(filepath.Join(dir, ".stakeout"), 0755))
			require.NoError(t, os.WriteFile(Path(dir), []byte(tt.body), 0644))

			_, err := LoadConfig(dir)
			assert.Error(t, err)
		})
	}
}

func TestAverageSpeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AverageSpeedKPH = 36
	assert.InDelta(t, 10.0, cfg.AverageSpeed(), 1e-9)
}
