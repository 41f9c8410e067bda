// Package client provides a protected outbound HTTP client.
//
// Every request passes through three layers in order:
//   - Rate limiter: token bucket smoothing of the outbound rate
//   - Bulkhead pool: bounded concurrency with a FIFO overflow queue
//   - Circuit breaker: fast failure once the upstream degrades
//
// Built on go-resty/resty with a go-retryablehttp transport:
//   - Automatic retries with exponential backoff
//   - Connection pooling and keep-alive
//   - Context-based cancellation
//
// Responses with a 5xx status count as breaker failures even when the
// transport call itself succeeds.
//
// Example Usage:
//
//	c, err := client.New("payments", client.Config{RateLimit: 50})
//	resp, err := c.Get(ctx, "https://payments.internal/balance")
package client
