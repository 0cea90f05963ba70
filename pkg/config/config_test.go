package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Signal.Address)
	assert.Equal(t, 64, cfg.Relay.SendQueueSize)
	assert.True(t, cfg.Relay.NotifyUnknownTarget)
}

func TestLoadOverridesFromYAML(t *testing.T) {
	content := []byte(`
signal:
  address: ":9999"
  ping_interval: 5s
relay:
  send_queue_size: 16
  notify_unknown_target: false
auth:
  jwt_secret: "file-secret"
`)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Signal.Address)
	assert.Equal(t, 5*time.Second, cfg.Signal.PingInterval)
	assert.Equal(t, 16, cfg.Relay.SendQueueSize)
	assert.False(t, cfg.Relay.NotifyUnknownTarget)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)

	// Untouched sections keep defaults.
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("WHITEBOARD_SIGNAL_ADDRESS", ":7777")
	t.Setenv("WHITEBOARD_JWT_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Signal.Address)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Relay.SendQueueSize = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Signal.PingInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.RateLimiting.Enabled = true
	cfg.RateLimiting.RequestsPerSecond = 0
	assert.Error(t, cfg.Validate())
}
