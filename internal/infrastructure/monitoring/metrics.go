package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/chaos"
	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/pool"
	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/Bulwark/internal/logging"
	"go.uber.org/zap"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec
	BreakerRejections  *prometheus.CounterVec
	BreakerFailureRate *prometheus.GaugeVec

	// Bulkhead pool metrics
	PoolActive     *prometheus.GaugeVec
	PoolQueued     *prometheus.GaugeVec
	PoolAdmitted   *prometheus.CounterVec
	PoolRejections *prometheus.CounterVec

	// Chaos metrics
	ChaosRuns       *prometheus.CounterVec
	ChaosInjections *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetricsWith creates a metrics collector on the given registerer.
// Tests pass a fresh registry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulwark_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bulwark_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Circuit breaker metrics
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bulwark_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		BreakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulwark_breaker_transitions_total",
				Help: "Total number of circuit breaker state transitions",
			},
			[]string{"name", "from", "to"},
		),
		BreakerRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulwark_breaker_rejections_total",
				Help: "Total number of calls rejected while the breaker was open",
			},
			[]string{"name"},
		),
		BreakerFailureRate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bulwark_breaker_failure_rate",
				Help: "Current failure rate over the breaker's monitoring window",
			},
			[]string{"name"},
		),

		// Bulkhead pool metrics
		PoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bulwark_pool_active",
				Help: "Operations currently in flight per resource key",
			},
			[]string{"key"},
		),
		PoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bulwark_pool_queued",
				Help: "Callers currently waiting for a slot per resource key",
			},
			[]string{"key"},
		),
		PoolAdmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulwark_pool_admitted_total",
				Help: "Total number of admitted operations",
			},
			[]string{"key"},
		),
		PoolRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulwark_pool_rejections_total",
				Help: "Total number of rejected admission requests",
			},
			[]string{"key", "reason"},
		),

		// Chaos metrics
		ChaosRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulwark_chaos_runs_total",
				Help: "Total number of calls through chaos-wrapped operations",
			},
			[]string{"experiment"},
		),
		ChaosInjections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulwark_chaos_injections_total",
				Help: "Total number of injected faults",
			},
			[]string{"experiment", "type"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bulwark_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordBreakerRejection counts a call rejected by an open breaker
func (m *Metrics) RecordBreakerRejection(name string) {
	m.BreakerRejections.WithLabelValues(name).Inc()
}

// RecordPoolAdmission counts an admitted operation
func (m *Metrics) RecordPoolAdmission(key string) {
	m.PoolAdmitted.WithLabelValues(key).Inc()
}

// RecordPoolRejection counts a rejected admission request
func (m *Metrics) RecordPoolRejection(key string, reason pool.Reason) {
	m.PoolRejections.WithLabelValues(key, string(reason)).Inc()
}

// RecordChaosRun counts one call through a chaos-wrapped operation
func (m *Metrics) RecordChaosRun(experimentID string) {
	m.ChaosRuns.WithLabelValues(experimentID).Inc()
}

// RecordChaosInjection counts one injected fault
func (m *Metrics) RecordChaosInjection(experimentID string, t chaos.ExperimentType) {
	m.ChaosInjections.WithLabelValues(experimentID, string(t)).Inc()
}

// BreakerStateHook returns an OnStateChange callback that records
// transitions and logs them through the given logger. Trips are warned;
// recoveries are informational.
func (m *Metrics) BreakerStateHook(logger *logging.Logger) func(name string, from, to resilience.State) {
	return func(name string, from, to resilience.State) {
		m.BreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		m.BreakerState.WithLabelValues(name).Set(float64(to))

		fields := []zap.Field{
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		}
		if to == resilience.StateOpen {
			logger.Warn("circuit breaker opened", fields...)
		} else {
			logger.Info("circuit breaker state change", fields...)
		}
	}
}

// ObserveBreakers refreshes breaker gauges from registry snapshots
func (m *Metrics) ObserveBreakers(snapshots []resilience.Metrics) {
	for _, s := range snapshots {
		m.BreakerState.WithLabelValues(s.Name).Set(float64(s.State))
		m.BreakerFailureRate.WithLabelValues(s.Name).Set(s.FailureRate)
	}
}

// ObservePools refreshes pool utilization gauges from manager snapshots
func (m *Metrics) ObservePools(snapshots []pool.Metrics) {
	for _, s := range snapshots {
		m.PoolActive.WithLabelValues(s.Key).Set(float64(s.Active))
		m.PoolQueued.WithLabelValues(s.Key).Set(float64(s.QueueLength))
	}
}
