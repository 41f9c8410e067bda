package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/pool"
	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/resilience"
)

// Config tunes the outbound HTTP client.
type Config struct {
	Timeout time.Duration

	// RetryMax is the number of retries on transport errors and 5xx
	// responses. Zero means the default; negative disables retries.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// RateLimit is the sustained request rate in requests per second.
	// Zero or negative means unlimited.
	RateLimit float64

	Breaker resilience.Config
	Pool    pool.Config
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RetryMax == 0 {
		c.RetryMax = 3
	}
	if c.RetryWaitMin <= 0 {
		c.RetryWaitMin = 1 * time.Second
	}
	if c.RetryWaitMax <= 0 {
		c.RetryWaitMax = 30 * time.Second
	}
	return c
}

// Client wraps resty with rate limiting, bulkhead admission, and circuit
// breaker protection. Requests pass the limiter first, then compete for a
// pool slot, and only then count against the breaker.
type Client struct {
	Resty   *resty.Client
	breaker *resilience.Breaker
	pool    *pool.Pool

	mu      sync.RWMutex
	limiter *rate.Limiter
}

// New creates a protected HTTP client. The name labels the breaker and
// the pool for metrics and snapshots.
func New(name string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	breaker, err := resilience.New(name, cfg.Breaker)
	if err != nil {
		return nil, fmt.Errorf("client %q: %w", name, err)
	}

	p, err := pool.New(name, cfg.Pool)
	if err != nil {
		return nil, fmt.Errorf("client %q: %w", name, err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil
	// Surface the final response after retries exhaust so the breaker
	// can classify it, instead of the default "giving up" error.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "Bulwark-HTTP/1.0")
	// StandardClient wraps the retry loop in a RoundTripper, so every
	// resty request inherits the RetryMax/RetryWait policy.
	restyClient.SetTransport(retryClient.StandardClient().Transport)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), int(cfg.RateLimit)+1)
	}

	return &Client{
		Resty:   restyClient,
		breaker: breaker,
		pool:    p,
		limiter: limiter,
	}, nil
}

// SetRateLimit reconfigures the sustained request rate. Zero or negative
// removes the limit.
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
}

// SetHeader adds a default header to every outbound request.
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Resty.SetHeader(key, value)
}

// SetBearerAuth configures bearer token authentication.
func (c *Client) SetBearerAuth(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Resty.SetAuthToken(token)
}

// Execute runs one HTTP operation through the full protection stack.
// Responses with a 5xx status count as breaker failures even when the
// transport succeeds.
func (c *Client) Execute(ctx context.Context, fn func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	result, err := c.pool.Run(ctx, func(ctx context.Context) (interface{}, error) {
		return c.breaker.Execute(func() (interface{}, error) {
			r, err := fn(c.Resty.R().SetContext(ctx))
			if err != nil {
				return nil, err
			}
			if r.StatusCode() >= 500 {
				return r, fmt.Errorf("upstream returned %s", r.Status())
			}
			return r, nil
		})
	})

	resp, _ := result.(*resty.Response)
	return resp, err
}

// Get issues a protected GET request.
func (c *Client) Get(ctx context.Context, url string) (*resty.Response, error) {
	return c.Execute(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.Get(url)
	})
}

// Post issues a protected POST request with a JSON body.
func (c *Client) Post(ctx context.Context, url string, body interface{}) (*resty.Response, error) {
	return c.Execute(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(body).Post(url)
	})
}

// BreakerMetrics returns the breaker snapshot for this client.
func (c *Client) BreakerMetrics() resilience.Metrics {
	return c.breaker.Metrics()
}

// PoolMetrics returns the pool snapshot for this client.
func (c *Client) PoolMetrics() pool.Metrics {
	return c.pool.Metrics()
}
