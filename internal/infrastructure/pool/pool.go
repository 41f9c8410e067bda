package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrRejected = errors.New("resource pool rejected request")

// Reason identifies why a pool rejected a request
type Reason string

const (
	ReasonPoolExhausted Reason = "pool_exhausted"
	ReasonQueueTimeout  Reason = "queue_timeout"
)

// RejectedError is returned when a request is denied admission. It is
// distinguishable from the wrapped operation's own failures so callers
// can apply fallback logic.
type RejectedError struct {
	Key    string
	Reason Reason
	cause  error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("resource pool %q rejected request: %s", e.Key, e.Reason)
}

func (e *RejectedError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrRejected, e.cause}
	}
	return []error{ErrRejected}
}

// Config configures a bulkhead pool
type Config struct {
	// MaxConcurrent is the number of operations allowed in flight
	MaxConcurrent int
	// MaxQueueSize bounds how many callers may wait for a slot
	MaxQueueSize int
	// QueueTimeout is how long a queued caller waits before rejection
	QueueTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 10
	}
	if c.MaxQueueSize == 0 {
		c.MaxQueueSize = 10
	}
	if c.QueueTimeout == 0 {
		c.QueueTimeout = time.Second
	}
	return c
}

func (c Config) validate() error {
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max concurrent must be at least 1, got %d", c.MaxConcurrent)
	}
	if c.MaxQueueSize < 0 {
		return fmt.Errorf("max queue size must not be negative, got %d", c.MaxQueueSize)
	}
	if c.QueueTimeout < 0 {
		return fmt.Errorf("queue timeout must not be negative, got %v", c.QueueTimeout)
	}
	return nil
}

// Metrics is a read-only snapshot of a pool's utilization. Totals are
// monotonic and reset only at process restart.
type Metrics struct {
	Key            string
	Active         int
	QueueLength    int
	AdmittedTotal  uint64
	RejectedTotal  uint64
	MaxConcurrent  int
	MaxQueueSize   int
}

// waiter represents one queued admission request
type waiter struct {
	ready   chan struct{}
	granted bool
}

// Pool is a bulkhead: it bounds concurrent in-flight operations for
// one logical resource and queues bounded overflow in FIFO order.
type Pool struct {
	key    string
	config Config

	mu       sync.Mutex
	active   int
	queue    []*waiter
	admitted uint64
	rejected uint64
}

// New creates a pool for the given resource key. Zero-value config
// fields are replaced with defaults; invalid settings fail fast.
func New(key string, config Config) (*Pool, error) {
	config = config.withDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("pool %q: %w", key, err)
	}
	return &Pool{key: key, config: config}, nil
}

// Key returns the resource key this pool isolates.
func (p *Pool) Key() string {
	return p.key
}

// Run admits the operation through the bulkhead and executes it. The
// slot is released on every exit path, including panics.
func (p *Pool) Run(ctx context.Context, op func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if err := p.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.Release()
	return op(ctx)
}

// Acquire claims a slot, queueing FIFO when the pool is saturated.
// A caller queued longer than QueueTimeout, or whose context is
// cancelled while queued, is removed and rejected.
func (p *Pool) Acquire(ctx context.Context) error {
	p.mu.Lock()

	if p.active < p.config.MaxConcurrent {
		p.active++
		p.admitted++
		p.mu.Unlock()
		return nil
	}

	if len(p.queue) >= p.config.MaxQueueSize {
		p.rejected++
		p.mu.Unlock()
		return &RejectedError{Key: p.key, Reason: ReasonPoolExhausted}
	}

	w := &waiter{ready: make(chan struct{})}
	p.queue = append(p.queue, w)
	p.mu.Unlock()

	timer := time.NewTimer(p.config.QueueTimeout)
	defer timer.Stop()

	select {
	case <-w.ready:
		// Slot handed over by Release; active already accounts for us.
		return nil
	case <-timer.C:
		return p.abandon(w, nil)
	case <-ctx.Done():
		return p.abandon(w, ctx.Err())
	}
}

// Release returns a slot, handing it to the oldest queued waiter if
// one is present.
func (p *Pool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) > 0 {
		w := p.queue[0]
		p.queue = p.queue[1:]
		w.granted = true
		p.admitted++
		close(w.ready)
		return
	}
	p.active--
}

// Metrics returns a snapshot of the pool's utilization counters.
func (p *Pool) Metrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Metrics{
		Key:           p.key,
		Active:        p.active,
		QueueLength:   len(p.queue),
		AdmittedTotal: p.admitted,
		RejectedTotal: p.rejected,
		MaxConcurrent: p.config.MaxConcurrent,
		MaxQueueSize:  p.config.MaxQueueSize,
	}
}

// abandon removes a timed-out or cancelled waiter. If admission raced
// the timeout, the already-granted slot is kept.
func (p *Pool) abandon(w *waiter, cause error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w.granted {
		return nil
	}

	for i, queued := range p.queue {
		if queued == w {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			break
		}
	}
	p.rejected++
	return &RejectedError{Key: p.key, Reason: ReasonQueueTimeout, cause: cause}
}
