// Package middleware provides HTTP middleware for the control-plane API.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting
//   - GlobalRateLimit: One shared bucket across all clients
//
// Rate Limiting:
//   - Per-IP tracking with automatic cleanup of idle clients
//   - Token bucket algorithm via golang.org/x/time/rate
//   - Configurable RPS and burst capacity
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
