// Package config provides 12-factor configuration management for the resilience service.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - Breaker: default circuit breaker thresholds and windows
//   - Pool: default bulkhead capacity and queue settings
//   - Chaos: fault-injection toggle and experiments file
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - BREAKER_FAILURE_THRESHOLD, BREAKER_TIMEOUT, BREAKER_MONITORING_WINDOW,
//     BREAKER_VOLUME_THRESHOLD, BREAKER_HALF_OPEN_PROBES
//   - POOL_MAX_CONCURRENT, POOL_MAX_QUEUE_SIZE, POOL_QUEUE_TIMEOUT
//   - CHAOS_ENABLED, CHAOS_EXPERIMENTS_FILE
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
