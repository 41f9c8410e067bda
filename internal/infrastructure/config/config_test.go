package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Breaker defaults
	assert.Equal(t, 0.5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Breaker.MonitoringWindow)
	assert.Equal(t, 10, cfg.Breaker.VolumeThreshold)
	assert.Equal(t, 1, cfg.Breaker.HalfOpenProbeLimit)

	// Pool defaults
	assert.Equal(t, 10, cfg.Pool.MaxConcurrent)
	assert.Equal(t, 10, cfg.Pool.MaxQueueSize)
	assert.Equal(t, time.Second, cfg.Pool.QueueTimeout)

	// Chaos is off unless explicitly enabled
	assert.False(t, cfg.Chaos.Enabled)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                      "9000",
		"HOST":                      "127.0.0.1",
		"LOG_LEVEL":                 "debug",
		"LOG_DEV":                   "true",
		"BREAKER_FAILURE_THRESHOLD": "0.75",
		"BREAKER_TIMEOUT":           "10s",
		"BREAKER_VOLUME_THRESHOLD":  "25",
		"POOL_MAX_CONCURRENT":       "4",
		"POOL_QUEUE_TIMEOUT":        "250ms",
		"CHAOS_ENABLED":             "true",
		"CHAOS_EXPERIMENTS_FILE":    "/etc/bulwark/experiments.yaml",
		"RATE_LIMIT_RPS":            "500",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 0.75, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 10*time.Second, cfg.Breaker.Timeout)
	assert.Equal(t, 25, cfg.Breaker.VolumeThreshold)
	assert.Equal(t, 4, cfg.Pool.MaxConcurrent)
	assert.Equal(t, 250*time.Millisecond, cfg.Pool.QueueTimeout)
	assert.True(t, cfg.Chaos.Enabled)
	assert.Equal(t, "/etc/bulwark/experiments.yaml", cfg.Chaos.ExperimentsFile)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("BREAKER_TIMEOUT", "not-a-duration")

	_, err := Load()
	assert.Error(t, err)
}
