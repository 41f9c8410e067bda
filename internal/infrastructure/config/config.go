package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	Breaker   BreakerConfig
	Pool      PoolConfig
	Chaos     ChaosConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// BreakerConfig holds default circuit breaker settings applied to
// breakers created through the registry.
type BreakerConfig struct {
	FailureThreshold   float64       `envconfig:"BREAKER_FAILURE_THRESHOLD" default:"0.5"`
	Timeout            time.Duration `envconfig:"BREAKER_TIMEOUT" default:"30s"`
	MonitoringWindow   time.Duration `envconfig:"BREAKER_MONITORING_WINDOW" default:"60s"`
	VolumeThreshold    int           `envconfig:"BREAKER_VOLUME_THRESHOLD" default:"10"`
	HalfOpenProbeLimit int           `envconfig:"BREAKER_HALF_OPEN_PROBES" default:"1"`
}

// PoolConfig holds default bulkhead settings applied to pools created
// through the manager.
type PoolConfig struct {
	MaxConcurrent int           `envconfig:"POOL_MAX_CONCURRENT" default:"10"`
	MaxQueueSize  int           `envconfig:"POOL_MAX_QUEUE_SIZE" default:"10"`
	QueueTimeout  time.Duration `envconfig:"POOL_QUEUE_TIMEOUT" default:"1s"`
}

// ChaosConfig holds chaos harness configuration. Injection is only
// active when enabled, which should never happen in production.
type ChaosConfig struct {
	Enabled         bool   `envconfig:"CHAOS_ENABLED" default:"false"`
	ExperimentsFile string `envconfig:"CHAOS_EXPERIMENTS_FILE" default:""`
}

// RateLimitConfig holds per-IP rate limiting configuration for the
// ops server.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Breaker: BreakerConfig{
			FailureThreshold:   0.5,
			Timeout:            30 * time.Second,
			MonitoringWindow:   60 * time.Second,
			VolumeThreshold:    10,
			HalfOpenProbeLimit: 1,
		},
		Pool: PoolConfig{
			MaxConcurrent: 10,
			MaxQueueSize:  10,
			QueueTimeout:  time.Second,
		},
		Chaos: ChaosConfig{
			Enabled: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
