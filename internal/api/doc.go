// Package api provides HTTP handlers for the Bulwark control plane.
//
// This package implements all REST endpoints using the Gin framework,
// exposing breaker, pool, and chaos state for dashboards and probes.
//
// Endpoints:
//   - Health: / and /health
//   - Breakers: /breakers, /breakers/:name
//   - Pools: /pools, /pools/:key
//   - Chaos: /chaos
//   - Demo: /demo/call
//   - Snapshot: /snapshot
//
// Features:
//   - JSON request/response handling
//   - Proper HTTP status codes for rejections (503) and failures (502)
//   - sonic-encoded full state dumps
//
// Example Usage:
//
//	handlers := api.NewHandlers(breakers, pools, harnesses, metrics)
//	router.GET("/health", handlers.Health)
//	router.POST("/demo/call", handlers.DemoCall)
package api
