// Package main is the entry point for the Bulwark resilience server.
//
// The server exposes a control plane over the resilience core:
// circuit breakers, bulkhead pools, and chaos experiments, with
// Prometheus metrics and live WebSocket state-change events.
//
// The server provides:
//   - REST API for breaker, pool, and chaos snapshots
//   - WebSocket streaming of breaker transitions
//   - Prometheus /metrics endpoint
//   - Rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
//	# Staging with fault injection armed
//	./server -dev -experiments experiments.yaml
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
