// Package config loads the stakeout client configuration from
// .stakeout/config.yaml with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvUser     = "STAKEOUT_USER"
	EnvDB       = "STAKEOUT_DB"
	EnvBusURL   = "STAKEOUT_BUS_URL"
	EnvEnv      = "STAKEOUT_ENV"
	EnvLogLevel = "STAKEOUT_LOG_LEVEL"
)

// Dir and FileName locate the config file under a workspace directory.
const (
	Dir      = ".stakeout"
	FileName = "config.yaml"
)

// Config represents the stakeout client configuration.
type Config struct {
	UserID               string        `yaml:"user_id,omitempty"`
	DatabasePath         string        `yaml:"database_path,omitempty"` // empty means ~/.stakeout/stakeout.db
	EventBusURL          string        `yaml:"event_bus_url,omitempty"` // http(s) base URL of the relay
	Env                  string        `yaml:"env"`                     // development, production
	LogLevel             string        `yaml:"log_level,omitempty"`
	InviteTTL            time.Duration `yaml:"invite_ttl"`
	JoinRequestTTL       time.Duration `yaml:"join_request_ttl"`
	TrailWindow          time.Duration `yaml:"trail_window"`
	ReconcileConcurrency int           `yaml:"reconcile_concurrency"`
	AverageSpeedKPH      float64       `yaml:"average_speed_kph"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Env:                  "development",
		InviteTTL:            time.Hour,
		JoinRequestTTL:       time.Hour,
		TrailWindow:          10 * time.Minute,
		ReconcileConcurrency: 4,
		AverageSpeedKPH:      40,
	}
}

// Path returns the config file path under dir.
func Path(dir string) string {
	return filepath.Join(dir, Dir, FileName)
}

// LoadConfig reads .stakeout/config.yaml from dir over the defaults, then
// applies environment overrides. A missing file is not an error.
func LoadConfig(dir string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path(dir))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes config.yaml under dir.
func SaveConfig(dir string, cfg *Config) error {
	configDir := filepath.Join(dir, Dir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s dir: %w", Dir, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(Path(dir), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Env != "development" && c.Env != "production":
		return fmt.Errorf("invalid env %q: want development or production", c.Env)
	case c.InviteTTL <= 0 || c.JoinRequestTTL <= 0:
		return fmt.Errorf("invite_ttl and join_request_ttl must be positive")
	case c.TrailWindow <= 0:
		return fmt.Errorf("trail_window must be positive")
	case c.ReconcileConcurrency < 1:
		return fmt.Errorf("reconcile_concurrency must be at least 1, got %d", c.ReconcileConcurrency)
	case c.AverageSpeedKPH <= 0:
		return fmt.Errorf("average_speed_kph must be positive, got %s", strconv.FormatFloat(c.AverageSpeedKPH, 'f', -1, 64))
	}
	return nil
}

// AverageSpeed returns the routing speed in meters per second.
func (c *Config) AverageSpeed() float64 {
	return c.AverageSpeedKPH / 3.6
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvUser); v != "" {
		c.UserID = v
	}
	if v := os.Getenv(EnvDB); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv(EnvBusURL); v != "" {
		c.EventBusURL = v
	}
	if v := os.Getenv(EnvEnv); v != "" {
		c.Env = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}
