package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("dependency failed")

func newTestBreaker(t *testing.T, config Config) (*Breaker, *fakeClock) {
	t.Helper()

	breaker, err := New("test", config)
	require.NoError(t, err)

	clock := newFakeClock()
	breaker.now = clock.Now
	breaker.stats.now = clock.Now
	breaker.lastTransition = clock.Now()
	return breaker, clock
}

func succeed() (interface{}, error) { return "ok", nil }
func fail() (interface{}, error)    { return nil, errBoom }

func TestBreakerConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "defaults are valid", config: Config{}, wantErr: false},
		{name: "threshold of one is valid", config: Config{FailureThreshold: 1}, wantErr: false},
		{name: "negative threshold", config: Config{FailureThreshold: -0.1}, wantErr: true},
		{name: "threshold above one", config: Config{FailureThreshold: 1.5}, wantErr: true},
		{name: "negative timeout", config: Config{Timeout: -time.Second}, wantErr: true},
		{name: "negative window", config: Config{MonitoringWindow: -time.Minute}, wantErr: true},
		{name: "negative volume threshold", config: Config{VolumeThreshold: -1}, wantErr: true},
		{name: "negative probe limit", config: Config{HalfOpenProbeLimit: -2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("test", tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		config        Config
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{
			name:          "stays closed on successes",
			config:        Config{VolumeThreshold: 3},
			requests:      []bool{true, true, true, true},
			expectedState: StateClosed,
		},
		{
			name:          "opens once rate crosses threshold with volume",
			config:        Config{FailureThreshold: 0.5, VolumeThreshold: 4},
			requests:      []bool{false, false, true, false},
			expectedState: StateOpen,
		},
		{
			name:          "stays closed below volume threshold",
			config:        Config{FailureThreshold: 0.5, VolumeThreshold: 10},
			requests:      []bool{false, false, false, false},
			expectedState: StateClosed,
		},
		{
			name:          "stays closed below failure threshold",
			config:        Config{FailureThreshold: 0.9, VolumeThreshold: 4},
			requests:      []bool{false, true, true, false},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker, _ := newTestBreaker(t, tt.config)

			for _, success := range tt.requests {
				if success {
					_, _ = breaker.Execute(succeed)
				} else {
					_, _ = breaker.Execute(fail)
				}
			}

			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

// Exercises the exact boundary arithmetic: with threshold 0.5 and
// volume 10, rates of 4/10 and 5/11 stay closed; 6/12 trips.
func TestBreakerThresholdBoundary(t *testing.T) {
	breaker, _ := newTestBreaker(t, Config{
		FailureThreshold: 0.5,
		VolumeThreshold:  10,
		MonitoringWindow: time.Minute,
		Timeout:          30 * time.Second,
	})

	for i := 0; i < 6; i++ {
		_, err := breaker.Execute(succeed)
		require.NoError(t, err)
	}
	for i := 0; i < 4; i++ {
		_, err := breaker.Execute(fail)
		require.ErrorIs(t, err, errBoom)
	}

	// 4/10 = 0.4 < 0.5
	assert.Equal(t, StateClosed, breaker.State())

	// 5/11 ≈ 0.45 < 0.5
	_, _ = breaker.Execute(fail)
	assert.Equal(t, StateClosed, breaker.State())

	// 6/12 = 0.5 >= 0.5
	_, _ = breaker.Execute(fail)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerOpenRejectsWithoutInvoking(t *testing.T) {
	breaker, clock := newTestBreaker(t, Config{
		FailureThreshold: 0.5,
		VolumeThreshold:  2,
		Timeout:          30 * time.Second,
	})

	_, _ = breaker.Execute(fail)
	_, _ = breaker.Execute(fail)
	require.Equal(t, StateOpen, breaker.State())

	invoked := 0
	for i := 0; i < 5; i++ {
		_, err := breaker.Execute(func() (interface{}, error) {
			invoked++
			return nil, nil
		})
		assert.ErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Zero(t, invoked)

	// Still rejecting just before the cool-down elapses.
	clock.Advance(30*time.Second - time.Millisecond)
	_, err := breaker.Execute(succeed)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerRecovery(t *testing.T) {
	breaker, clock := newTestBreaker(t, Config{
		FailureThreshold: 0.5,
		VolumeThreshold:  2,
		Timeout:          30 * time.Second,
	})

	_, _ = breaker.Execute(fail)
	_, _ = breaker.Execute(fail)
	require.Equal(t, StateOpen, breaker.State())

	// After the cool-down the next call runs as a half-open probe.
	clock.Advance(30 * time.Second)

	result, err := breaker.Execute(succeed)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)

	assert.Equal(t, StateClosed, breaker.State())

	// The window was reset on recovery; old failures don't linger.
	assert.Zero(t, breaker.Metrics().Volume)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	breaker, clock := newTestBreaker(t, Config{
		FailureThreshold: 0.5,
		VolumeThreshold:  2,
		Timeout:          30 * time.Second,
	})

	_, _ = breaker.Execute(fail)
	_, _ = breaker.Execute(fail)
	require.Equal(t, StateOpen, breaker.State())

	clock.Advance(30 * time.Second)

	// Probe fails: back to open with a fresh cool-down.
	_, err := breaker.Execute(fail)
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateOpen, breaker.State())

	// openedAt was reset, so a partial wait still rejects.
	clock.Advance(29 * time.Second)
	_, err = breaker.Execute(succeed)
	assert.ErrorIs(t, err, ErrCircuitOpen)

	clock.Advance(time.Second)
	_, err = breaker.Execute(succeed)
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerHalfOpenProbeLimit(t *testing.T) {
	breaker, clock := newTestBreaker(t, Config{
		FailureThreshold:   0.5,
		VolumeThreshold:    2,
		Timeout:            30 * time.Second,
		HalfOpenProbeLimit: 1,
	})

	_, _ = breaker.Execute(fail)
	_, _ = breaker.Execute(fail)
	require.Equal(t, StateOpen, breaker.State())

	clock.Advance(30 * time.Second)

	probeStarted := make(chan struct{})
	probeRelease := make(chan struct{})
	probeDone := make(chan error, 1)

	go func() {
		_, err := breaker.Execute(func() (interface{}, error) {
			close(probeStarted)
			<-probeRelease
			return "ok", nil
		})
		probeDone <- err
	}()

	<-probeStarted

	// While the probe is outstanding, further calls are rejected, not queued.
	_, err := breaker.Execute(succeed)
	assert.ErrorIs(t, err, ErrCircuitOpen)

	close(probeRelease)
	require.NoError(t, <-probeDone)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerMultipleProbes(t *testing.T) {
	breaker, clock := newTestBreaker(t, Config{
		FailureThreshold:   0.5,
		VolumeThreshold:    2,
		Timeout:            30 * time.Second,
		HalfOpenProbeLimit: 3,
	})

	_, _ = breaker.Execute(fail)
	_, _ = breaker.Execute(fail)
	require.Equal(t, StateOpen, breaker.State())

	clock.Advance(30 * time.Second)

	// Sequential probes: stays half-open until the full evaluation passes.
	_, err := breaker.Execute(succeed)
	require.NoError(t, err)
	assert.Equal(t, StateHalfOpen, breaker.State())

	_, err = breaker.Execute(succeed)
	require.NoError(t, err)
	assert.Equal(t, StateHalfOpen, breaker.State())

	_, err = breaker.Execute(succeed)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerPropagatesOperationError(t *testing.T) {
	breaker, _ := newTestBreaker(t, Config{})

	wrapped := errors.New("wrapped by caller")
	_, err := breaker.Execute(func() (interface{}, error) {
		return nil, wrapped
	})

	// The operation's own error surfaces unchanged.
	assert.Same(t, wrapped, err)
	assert.NotErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerTimeoutOutcome(t *testing.T) {
	breaker, _ := newTestBreaker(t, Config{
		FailureThreshold: 0.5,
		VolumeThreshold:  2,
	})

	// Deadline errors trip the breaker just like plain failures.
	_, _ = breaker.Execute(func() (interface{}, error) {
		return nil, context.DeadlineExceeded
	})
	_, _ = breaker.Execute(func() (interface{}, error) {
		return nil, context.DeadlineExceeded
	})

	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	breaker, _ := newTestBreaker(t, Config{
		FailureThreshold: 0.5,
		VolumeThreshold:  1,
	})

	assert.Panics(t, func() {
		_, _ = breaker.Execute(func() (interface{}, error) {
			panic("dependency blew up")
		})
	})

	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerMetrics(t *testing.T) {
	breaker, clock := newTestBreaker(t, Config{
		FailureThreshold: 0.5,
		VolumeThreshold:  10,
	})

	_, _ = breaker.Execute(succeed)
	_, _ = breaker.Execute(fail)

	clock.Advance(5 * time.Second)

	m := breaker.Metrics()
	assert.Equal(t, "test", m.Name)
	assert.Equal(t, StateClosed, m.State)
	assert.Equal(t, 2, m.Volume)
	assert.InDelta(t, 0.5, m.FailureRate, 1e-9)
	assert.False(t, m.SufficientVolume)
	assert.Equal(t, 5*time.Second, m.SinceTransition)
}

func TestBreakerCallbacks(t *testing.T) {
	var mu sync.Mutex
	var transitions []string

	config := Config{
		FailureThreshold: 0.5,
		VolumeThreshold:  2,
		Timeout:          30 * time.Second,
		OnStateChange: func(name string, from State, to State) {
			mu.Lock()
			transitions = append(transitions, from.String()+"->"+to.String())
			mu.Unlock()
		},
	}
	breaker, clock := newTestBreaker(t, config)

	_, _ = breaker.Execute(fail)
	_, _ = breaker.Execute(fail)

	clock.Advance(30 * time.Second)
	_, _ = breaker.Execute(succeed)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreakerConcurrentExecute(t *testing.T) {
	breaker, _ := newTestBreaker(t, Config{
		FailureThreshold: 0.99,
		VolumeThreshold:  100000,
	})

	const goroutines = 8
	const perGoroutine = 250

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if (g+i)%2 == 0 {
					_, _ = breaker.Execute(succeed)
				} else {
					_, _ = breaker.Execute(fail)
				}
			}
		}(g)
	}
	wg.Wait()

	// No outcomes lost under concurrent recording.
	assert.Equal(t, goroutines*perGoroutine, breaker.Metrics().Volume)
	assert.Equal(t, StateClosed, breaker.State())
}
