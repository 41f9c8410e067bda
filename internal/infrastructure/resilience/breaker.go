package resilience

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// Config configures the circuit breaker behavior
type Config struct {
	// FailureThreshold is the failure-rate fraction (0, 1] that trips the
	// breaker once the window holds at least VolumeThreshold outcomes
	FailureThreshold float64
	// Timeout is the period of the open state until a probe is admitted
	Timeout time.Duration
	// MonitoringWindow is the rolling span over which outcomes are counted
	MonitoringWindow time.Duration
	// VolumeThreshold is the minimum window volume before the failure
	// rate is considered statistically significant
	VolumeThreshold int
	// HalfOpenProbeLimit is the maximum number of concurrent probe calls
	// admitted in half-open state. Defaults to 1.
	HalfOpenProbeLimit int
	// OnStateChange is called whenever the state changes
	OnStateChange func(name string, from State, to State)
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 0.5
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MonitoringWindow == 0 {
		c.MonitoringWindow = 60 * time.Second
	}
	if c.VolumeThreshold == 0 {
		c.VolumeThreshold = 10
	}
	if c.HalfOpenProbeLimit == 0 {
		c.HalfOpenProbeLimit = 1
	}
	return c
}

func (c Config) validate() error {
	if c.FailureThreshold <= 0 || c.FailureThreshold > 1 {
		return fmt.Errorf("failure threshold must be in (0, 1], got %v", c.FailureThreshold)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", c.Timeout)
	}
	if c.MonitoringWindow < 0 {
		return fmt.Errorf("monitoring window must not be negative, got %v", c.MonitoringWindow)
	}
	if c.VolumeThreshold < 0 {
		return fmt.Errorf("volume threshold must not be negative, got %d", c.VolumeThreshold)
	}
	if c.HalfOpenProbeLimit < 0 {
		return fmt.Errorf("half-open probe limit must not be negative, got %d", c.HalfOpenProbeLimit)
	}
	return nil
}

// Metrics is a read-only snapshot of a breaker's runtime statistics
type Metrics struct {
	Name             string
	State            State
	FailureRate      float64
	Volume           int
	SufficientVolume bool
	SinceTransition  time.Duration
}

// Breaker implements an adaptive circuit breaker driven by the failure
// rate observed over a rolling window
type Breaker struct {
	name   string
	config Config

	mu             sync.Mutex
	state          State
	stats          *Window
	openedAt       time.Time
	lastTransition time.Time
	probesInFlight int
	probeSuccesses int

	// now is a clock function, overridable for testing.
	now func() time.Time
}

// New creates a circuit breaker with the given settings. Zero-value
// fields are replaced with defaults; invalid settings fail fast.
func New(name string, config Config) (*Breaker, error) {
	config = config.withDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("breaker %q: %w", name, err)
	}

	return &Breaker{
		name:           name,
		config:         config,
		state:          StateClosed,
		stats:          NewWindow(config.MonitoringWindow),
		lastTransition: time.Now(),
		now:            time.Now,
	}, nil
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance(b.now())
	return b.state
}

// Metrics returns a snapshot of the breaker's state and window statistics
func (b *Breaker) Metrics() Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.advance(now)

	snap := b.stats.Snapshot()
	return Metrics{
		Name:             b.name,
		State:            b.state,
		FailureRate:      snap.FailureRate,
		Volume:           snap.Volume,
		SufficientVolume: snap.Volume >= b.config.VolumeThreshold,
		SinceTransition:  now.Sub(b.lastTransition),
	}
}

// Execute runs the given operation if the circuit breaker accepts it.
// When the breaker is open, ErrCircuitOpen is returned and the
// operation is never invoked. Operation errors propagate unchanged;
// errors matching a deadline are recorded as timeouts.
func (b *Breaker) Execute(op func() (interface{}, error)) (interface{}, error) {
	probe, err := b.beforeRequest()
	if err != nil {
		return nil, err
	}

	defer func() {
		if e := recover(); e != nil {
			b.afterRequest(probe, OutcomeFailure)
			panic(e)
		}
	}()

	result, err := op()
	b.afterRequest(probe, classify(err))
	return result, err
}

// classify maps an operation error to a window outcome
func classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeFailure
	}
}

// beforeRequest decides whether the call is admitted and whether it
// runs as a half-open probe
func (b *Breaker) beforeRequest() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance(b.now())

	switch b.state {
	case StateClosed:
		return false, nil
	case StateOpen:
		return false, ErrCircuitOpen
	default: // StateHalfOpen
		if b.probesInFlight >= b.config.HalfOpenProbeLimit {
			return false, ErrCircuitOpen
		}
		b.probesInFlight++
		return true, nil
	}
}

// afterRequest records the outcome and performs state transitions
func (b *Breaker) afterRequest(probe bool, o Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	if probe {
		b.probesInFlight--
		if b.state != StateHalfOpen {
			// A sibling probe already resolved the evaluation.
			return
		}
		b.stats.Record(o)
		if o != OutcomeSuccess {
			b.trip(now)
			return
		}
		b.probeSuccesses++
		if b.probeSuccesses >= b.config.HalfOpenProbeLimit && b.probesInFlight == 0 {
			b.stats.Reset()
			b.setState(StateClosed, now)
		}
		return
	}

	if b.state != StateClosed {
		// The call was admitted closed but the breaker tripped while it
		// was in flight; its outcome no longer participates.
		return
	}

	b.stats.Record(o)
	snap := b.stats.Snapshot()
	if snap.Volume >= b.config.VolumeThreshold && snap.FailureRate >= b.config.FailureThreshold {
		b.trip(now)
	}
}

// trip moves the breaker to open with a fresh cool-down. When tripped
// from half-open the window is cleared so stale history cannot bias
// the next evaluation.
func (b *Breaker) trip(now time.Time) {
	if b.state == StateHalfOpen {
		b.stats.Reset()
	}
	b.openedAt = now
	b.setState(StateOpen, now)
}

// advance promotes open to half-open once the cool-down has elapsed
func (b *Breaker) advance(now time.Time) {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.config.Timeout {
		b.setState(StateHalfOpen, now)
	}
}

// setState changes the state of the circuit breaker
func (b *Breaker) setState(state State, now time.Time) {
	if b.state == state {
		return
	}

	prev := b.state
	b.state = state
	b.lastTransition = now
	b.probeSuccesses = 0

	if b.config.OnStateChange != nil {
		b.config.OnStateChange(b.name, prev, state)
	}
}
