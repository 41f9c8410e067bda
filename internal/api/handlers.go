package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/chaos"
	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/pool"
	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/resilience"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	breakers  *resilience.Registry
	pools     *pool.Manager
	harnesses map[string]*chaos.Harness
	metrics   *monitoring.Metrics
	startTime time.Time
}

// NewHandlers creates a new handler set. Harnesses are keyed by the
// target dependency they exercise; the map may be empty when chaos is
// disabled.
func NewHandlers(
	breakers *resilience.Registry,
	pools *pool.Manager,
	harnesses map[string]*chaos.Harness,
	metrics *monitoring.Metrics,
) *Handlers {
	return &Handlers{
		breakers:  breakers,
		pools:     pools,
		harnesses: harnesses,
		metrics:   metrics,
		startTime: time.Now(),
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Bulwark Resilience Service",
		"version": "1.0.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"breakers":       len(h.breakers.All()),
		"pools":          len(h.pools.All()),
		"chaos_enabled":  len(h.harnesses) > 0,
	})
}

// breakerView is the wire shape of one breaker snapshot
type breakerView struct {
	Name              string  `json:"name"`
	State             string  `json:"state"`
	FailureRate       float64 `json:"failure_rate"`
	Volume            int     `json:"volume"`
	SufficientVolume  bool    `json:"sufficient_volume"`
	SinceTransitionMs int64   `json:"since_transition_ms"`
}

func toBreakerView(m resilience.Metrics) breakerView {
	return breakerView{
		Name:              m.Name,
		State:             m.State.String(),
		FailureRate:       m.FailureRate,
		Volume:            m.Volume,
		SufficientVolume:  m.SufficientVolume,
		SinceTransitionMs: m.SinceTransition.Milliseconds(),
	}
}

// ListBreakers lists all registered circuit breakers
func (h *Handlers) ListBreakers(c *gin.Context) {
	snapshots := h.breakers.Metrics()
	h.metrics.ObserveBreakers(snapshots)

	views := make([]breakerView, 0, len(snapshots))
	for _, m := range snapshots {
		views = append(views, toBreakerView(m))
	}
	c.JSON(http.StatusOK, gin.H{
		"breakers": views,
		"count":    len(views),
	})
}

// GetBreaker returns one breaker snapshot by name
func (h *Handlers) GetBreaker(c *gin.Context) {
	name := c.Param("name")
	breaker, ok := h.breakers.All()[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "breaker not found", "name": name})
		return
	}
	c.JSON(http.StatusOK, toBreakerView(breaker.Metrics()))
}

// poolView is the wire shape of one pool snapshot
type poolView struct {
	Key           string `json:"key"`
	Active        int    `json:"active"`
	QueueLength   int    `json:"queue_length"`
	AdmittedTotal uint64 `json:"admitted_total"`
	RejectedTotal uint64 `json:"rejected_total"`
	MaxConcurrent int    `json:"max_concurrent"`
	MaxQueueSize  int    `json:"max_queue_size"`
}

func toPoolView(m pool.Metrics) poolView {
	return poolView{
		Key:           m.Key,
		Active:        m.Active,
		QueueLength:   m.QueueLength,
		AdmittedTotal: m.AdmittedTotal,
		RejectedTotal: m.RejectedTotal,
		MaxConcurrent: m.MaxConcurrent,
		MaxQueueSize:  m.MaxQueueSize,
	}
}

// ListPools lists all resource pools
func (h *Handlers) ListPools(c *gin.Context) {
	snapshots := h.pools.Metrics()
	h.metrics.ObservePools(snapshots)

	views := make([]poolView, 0, len(snapshots))
	for _, m := range snapshots {
		views = append(views, toPoolView(m))
	}
	c.JSON(http.StatusOK, gin.H{
		"pools": views,
		"count": len(views),
	})
}

// GetPool returns one pool snapshot by key
func (h *Handlers) GetPool(c *gin.Context) {
	key := c.Param("key")
	p, ok := h.pools.All()[key]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "pool not found", "key": key})
		return
	}
	c.JSON(http.StatusOK, toPoolView(p.Metrics()))
}

// chaosView is the wire shape of one harness snapshot
type chaosView struct {
	Target         string `json:"target"`
	ExperimentID   string `json:"experiment_id"`
	Type           string `json:"type"`
	ExperimentsRun uint64 `json:"experiments_run"`
	FaultsInjected uint64 `json:"faults_injected"`
}

// ChaosStatus lists active experiments and their running totals
func (h *Handlers) ChaosStatus(c *gin.Context) {
	views := make([]chaosView, 0, len(h.harnesses))
	for target, harness := range h.harnesses {
		m := harness.Metrics()
		views = append(views, chaosView{
			Target:         target,
			ExperimentID:   m.ExperimentID,
			Type:           string(m.Type),
			ExperimentsRun: m.ExperimentsRun,
			FaultsInjected: m.FaultsInjected,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled":     len(views) > 0,
		"experiments": views,
	})
}

// demoRequest drives one call through the protection stack
type demoRequest struct {
	Target  string `json:"target" binding:"required"`
	Fail    bool   `json:"fail"`
	DelayMs int    `json:"delay_ms"`
}

var errDemoFailure = errors.New("demo dependency failure")

// DemoCall executes a fake dependency call through pool admission and
// circuit breaker, with chaos injection when a harness targets the
// dependency. It exists so dashboards have live data to draw.
func (h *Handlers) DemoCall(c *gin.Context) {
	var req demoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dependency := chaos.Operation(func(ctx context.Context) (interface{}, error) {
		if req.DelayMs > 0 {
			select {
			case <-time.After(time.Duration(req.DelayMs) * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if req.Fail {
			return nil, errDemoFailure
		}
		return gin.H{"target": req.Target, "ok": true}, nil
	})

	harness, chaosActive := h.harnesses[req.Target]
	var faultsBefore uint64
	if chaosActive {
		faultsBefore = harness.Metrics().FaultsInjected
		dependency = harness.Wrap(dependency)
	}

	breaker := h.breakers.Get(req.Target)
	start := time.Now()
	result, err := h.pools.Run(c.Request.Context(), req.Target, func(ctx context.Context) (interface{}, error) {
		h.metrics.RecordPoolAdmission(req.Target)
		return breaker.Execute(func() (interface{}, error) {
			return dependency(ctx)
		})
	})
	elapsed := time.Since(start)

	if chaosActive {
		m := harness.Metrics()
		h.metrics.RecordChaosRun(m.ExperimentID)
		if m.FaultsInjected > faultsBefore {
			h.metrics.RecordChaosInjection(m.ExperimentID, m.Type)
		}
	}

	if err != nil {
		status := http.StatusBadGateway
		var rejected *pool.RejectedError
		switch {
		case errors.Is(err, resilience.ErrCircuitOpen):
			h.metrics.RecordBreakerRejection(req.Target)
			status = http.StatusServiceUnavailable
		case errors.As(err, &rejected):
			h.metrics.RecordPoolRejection(req.Target, rejected.Reason)
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"target":      req.Target,
			"error":       err.Error(),
			"breaker":     breaker.Metrics().State.String(),
			"duration_ms": elapsed.Milliseconds(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"target":      req.Target,
		"result":      result,
		"breaker":     breaker.Metrics().State.String(),
		"duration_ms": elapsed.Milliseconds(),
	})
}

// Snapshot dumps the full system state in one document. Encoded with
// sonic since dashboards poll this endpoint aggressively.
func (h *Handlers) Snapshot(c *gin.Context) {
	breakers := make([]breakerView, 0)
	for _, m := range h.breakers.Metrics() {
		breakers = append(breakers, toBreakerView(m))
	}
	pools := make([]poolView, 0)
	for _, m := range h.pools.Metrics() {
		pools = append(pools, toPoolView(m))
	}

	doc := gin.H{
		"taken_at": time.Now().UTC(),
		"breakers": breakers,
		"pools":    pools,
	}
	data, err := sonic.Marshal(doc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}
