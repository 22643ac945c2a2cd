package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(EnvProduction, "", &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("operation started", zap.String("operation_id", "op-1"))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "operation started", entry["msg"])
	assert.Equal(t, "op-1", entry["operation_id"])
	assert.Equal(t, "stakeout", entry["service"])
	assert.Contains(t, entry["caller"], "logging/logging_test.go")
}

func TestNew_DevelopmentDefaultsToDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(EnvDevelopment, "", &buf)
	require.NoError(t, err)

	logger.Debug("trail trimmed")
	assert.Contains(t, buf.String(), "debug")
	assert.Contains(t, buf.String(), "trail trimmed")
}

func TestNew_ExplicitLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(EnvDevelopment, "WARN", &buf)
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")

	_, err = New(EnvProduction, "chatty", &buf)
	assert.Error(t, err)
}
