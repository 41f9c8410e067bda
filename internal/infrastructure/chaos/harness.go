package chaos

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/pool"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"
)

// ExperimentType selects the kind of fault an experiment injects
type ExperimentType string

const (
	Latency            ExperimentType = "latency"
	Error              ExperimentType = "error"
	Exception          ExperimentType = "exception"
	ResourceExhaustion ExperimentType = "resource_exhaustion"
)

// Distribution names for latency injection
const (
	DistUniform = "uniform"
	DistNormal  = "normal"
)

// InjectedError is the synthetic failure returned by an error
// experiment. The real operation is never invoked.
type InjectedError struct {
	ExperimentID string
	Type         ExperimentType
}

func (e *InjectedError) Error() string {
	return fmt.Sprintf("chaos: injected %s fault (experiment %s)", e.Type, e.ExperimentID)
}

// InjectedPanic is the value raised by an exception experiment. It
// propagates through the operation's failure path, distinct from the
// typed error result an error experiment produces.
type InjectedPanic struct {
	ExperimentID string
}

func (p InjectedPanic) String() string {
	return fmt.Sprintf("chaos: injected panic (experiment %s)", p.ExperimentID)
}

// Config configures a chaos experiment
type Config struct {
	// Type selects the fault to inject
	Type ExperimentType `yaml:"type"`
	// Probability in [0, 1] of injecting a fault on each call
	Probability float64 `yaml:"probability"`
	// MinDelay and MaxDelay bound injected latency
	MinDelay time.Duration `yaml:"min_delay"`
	MaxDelay time.Duration `yaml:"max_delay"`
	// Distribution is "uniform" (default) or "normal"
	Distribution string `yaml:"distribution"`
	// HoldDuration is how long resource exhaustion occupies capacity
	HoldDuration time.Duration `yaml:"hold_duration"`
	// Seed makes injection reproducible; 0 seeds from the clock
	Seed uint64 `yaml:"seed"`
}

func (c Config) withDefaults() Config {
	if c.Type == "" {
		c.Type = Error
	}
	if c.Distribution == "" {
		c.Distribution = DistUniform
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = c.MinDelay
	}
	if c.HoldDuration == 0 {
		c.HoldDuration = 100 * time.Millisecond
	}
	return c
}

func (c Config) validate() error {
	switch c.Type {
	case Latency, Error, Exception, ResourceExhaustion:
	default:
		return fmt.Errorf("unknown experiment type %q", c.Type)
	}
	if c.Probability < 0 || c.Probability > 1 {
		return fmt.Errorf("probability must be in [0, 1], got %v", c.Probability)
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("invalid delay range [%v, %v]", c.MinDelay, c.MaxDelay)
	}
	if c.Distribution != DistUniform && c.Distribution != DistNormal {
		return fmt.Errorf("unknown latency distribution %q", c.Distribution)
	}
	if c.HoldDuration < 0 {
		return fmt.Errorf("hold duration must not be negative, got %v", c.HoldDuration)
	}
	return nil
}

// Metrics is a read-only snapshot of a harness's running totals
type Metrics struct {
	ExperimentID   string
	Type           ExperimentType
	ExperimentsRun uint64
	FaultsInjected uint64
	ByType         map[ExperimentType]uint64
}

// Operation is the unit of work a harness wraps
type Operation func(ctx context.Context) (interface{}, error)

// Harness wraps operations with configurable fault injection. Given a
// fixed seed and config, faults land at identical call indices across
// runs, which keeps property tests reproducible.
type Harness struct {
	id     string
	config Config
	pool   *pool.Pool

	mu       sync.Mutex
	rng      *rand.Rand
	normal   distuv.Normal
	runs     uint64
	injected uint64
	byType   map[ExperimentType]uint64

	// sleep is overridable for testing.
	sleep func(time.Duration)
}

// Option customizes harness construction
type Option func(*Harness)

// WithPool pairs the harness with a bulkhead whose capacity a
// resource-exhaustion experiment occupies.
func WithPool(p *pool.Pool) Option {
	return func(h *Harness) { h.pool = p }
}

// New creates a harness for the given experiment config.
func New(config Config, opts ...Option) (*Harness, error) {
	config = config.withDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("chaos experiment: %w", err)
	}

	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewPCG(seed, seed)

	h := &Harness{
		id:     uuid.NewString(),
		config: config,
		rng:    rand.New(src),
		byType: make(map[ExperimentType]uint64),
		sleep:  time.Sleep,
	}

	if config.Distribution == DistNormal {
		mid := float64(config.MinDelay+config.MaxDelay) / 2
		sigma := float64(config.MaxDelay-config.MinDelay) / 6
		if sigma <= 0 {
			sigma = 1
		}
		h.normal = distuv.Normal{Mu: mid, Sigma: sigma, Src: src}
	}

	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ID returns the experiment identifier.
func (h *Harness) ID() string {
	return h.id
}

// Wrap returns an operation that injects faults around op according to
// the configured experiment. Every invocation counts as one experiment
// run whether or not a fault fires.
func (h *Harness) Wrap(op Operation) Operation {
	return func(ctx context.Context) (interface{}, error) {
		inject, delay := h.roll()
		if !inject {
			return op(ctx)
		}

		switch h.config.Type {
		case Latency:
			h.sleep(delay)
			return op(ctx)

		case Error:
			return nil, &InjectedError{ExperimentID: h.id, Type: Error}

		case Exception:
			panic(InjectedPanic{ExperimentID: h.id})

		default: // ResourceExhaustion
			h.exhaust(ctx)
			return op(ctx)
		}
	}
}

// Metrics returns a snapshot of the harness's running totals.
func (h *Harness) Metrics() Metrics {
	h.mu.Lock()
	defer h.mu.Unlock()

	byType := make(map[ExperimentType]uint64, len(h.byType))
	for k, v := range h.byType {
		byType[k] = v
	}
	return Metrics{
		ExperimentID:   h.id,
		Type:           h.config.Type,
		ExperimentsRun: h.runs,
		FaultsInjected: h.injected,
		ByType:         byType,
	}
}

// roll draws exactly one decision sample per call so injection
// positions depend only on the seed and the call index.
func (h *Harness) roll() (inject bool, delay time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs++
	if h.rng.Float64() >= h.config.Probability {
		return false, 0
	}

	h.injected++
	h.byType[h.config.Type]++

	if h.config.Type == Latency {
		delay = h.drawDelay()
	}
	return true, delay
}

// drawDelay samples the injected latency; callers hold h.mu.
func (h *Harness) drawDelay() time.Duration {
	min, max := h.config.MinDelay, h.config.MaxDelay
	if max <= min {
		return min
	}
	if h.config.Distribution == DistNormal {
		d := time.Duration(h.normal.Rand())
		if d < min {
			d = min
		}
		if d > max {
			d = max
		}
		return d
	}
	return min + time.Duration(h.rng.Float64()*float64(max-min))
}

// exhaust occupies one unit of paired pool capacity for the hold
// duration to simulate starvation, then releases it.
func (h *Harness) exhaust(ctx context.Context) {
	if h.pool == nil {
		h.sleep(h.config.HoldDuration)
		return
	}
	if err := h.pool.Acquire(ctx); err != nil {
		// Capacity already starved; the experiment's point stands.
		return
	}
	h.sleep(h.config.HoldDuration)
	h.pool.Release()
}
