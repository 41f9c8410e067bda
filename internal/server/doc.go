// Package server provides HTTP server setup and initialization for the
// Bulwark control plane.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (recovery, CORS, metrics, rate limiting)
//   - Circuit breaker registry and bulkhead pool manager
//   - Chaos harnesses loaded from the experiments file
//   - WebSocket hub for live state-change events
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Build registries and arm chaos experiments
//  4. Setup HTTP routes and middleware
//  5. Start HTTP server
//  6. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.New(*cfg, logger)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
