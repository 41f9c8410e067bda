package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/Bulwark/internal/api"
	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/chaos"
	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/config"
	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/pool"
	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/Bulwark/internal/logging"
	"github.com/GriffinCanCode/Bulwark/internal/middleware"
	"github.com/GriffinCanCode/Bulwark/internal/ws"
)

// Server wraps the HTTP server and its resilience components
type Server struct {
	config   config.Config
	logger   *logging.Logger
	router   *gin.Engine
	breakers *resilience.Registry
	pools    *pool.Manager
	hub      *ws.Hub
	http     *http.Server
}

// New wires the full control plane: registries, chaos harnesses,
// metrics, websocket hub, and HTTP routes.
func New(cfg config.Config, logger *logging.Logger) (*Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(cfg, logger, reg)
}

// NewWithRegistry is like New but registers metrics on the given
// registry, which also backs the /metrics endpoint. Tests pass a
// fresh registry.
func NewWithRegistry(cfg config.Config, logger *logging.Logger, reg *prometheus.Registry) (*Server, error) {
	metrics := monitoring.NewMetricsWith(reg)
	hub := ws.NewHub(logger.WithComponent("ws"))

	breakerCfg := resilience.Config{
		FailureThreshold:   cfg.Breaker.FailureThreshold,
		Timeout:            cfg.Breaker.Timeout,
		MonitoringWindow:   cfg.Breaker.MonitoringWindow,
		VolumeThreshold:    cfg.Breaker.VolumeThreshold,
		HalfOpenProbeLimit: cfg.Breaker.HalfOpenProbeLimit,
		OnStateChange: composeHooks(
			metrics.BreakerStateHook(logger.WithComponent("breaker")),
			hub.StateHook(),
		),
	}
	breakers, err := resilience.NewRegistry(breakerCfg)
	if err != nil {
		return nil, fmt.Errorf("breaker registry: %w", err)
	}

	pools, err := pool.NewManager(pool.Config{
		MaxConcurrent: cfg.Pool.MaxConcurrent,
		MaxQueueSize:  cfg.Pool.MaxQueueSize,
		QueueTimeout:  cfg.Pool.QueueTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("pool manager: %w", err)
	}

	harnesses, err := loadHarnesses(cfg.Chaos, pools, logger)
	if err != nil {
		return nil, err
	}

	handlers := api.NewHandlers(breakers, pools, harnesses, metrics)

	tracer := tracing.New("bulwark", logger.WithComponent("tracing").Logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.InstrumentMetricHandler(
		reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)))

	router.GET("/breakers", handlers.ListBreakers)
	router.GET("/breakers/:name", handlers.GetBreaker)
	router.GET("/pools", handlers.ListPools)
	router.GET("/pools/:key", handlers.GetPool)
	router.GET("/chaos", handlers.ChaosStatus)
	router.GET("/snapshot", handlers.Snapshot)
	router.POST("/demo/call", handlers.DemoCall)

	// WebSocket
	router.GET("/stream", hub.HandleConnection)

	return &Server{
		config:   cfg,
		logger:   logger,
		router:   router,
		breakers: breakers,
		pools:    pools,
		hub:      hub,
	}, nil
}

// loadHarnesses builds one harness per declared experiment, keyed by
// target. Resource-exhaustion experiments are paired with the target's
// pool so injected load occupies real capacity.
func loadHarnesses(cfg config.ChaosConfig, pools *pool.Manager, logger *logging.Logger) (map[string]*chaos.Harness, error) {
	if !cfg.Enabled || cfg.ExperimentsFile == "" {
		return nil, nil
	}

	experiments, err := chaos.LoadExperiments(cfg.ExperimentsFile)
	if err != nil {
		return nil, fmt.Errorf("chaos experiments: %w", err)
	}

	harnesses := make(map[string]*chaos.Harness, len(experiments))
	for _, exp := range experiments {
		opts := []chaos.Option{}
		if exp.Type == chaos.ResourceExhaustion {
			opts = append(opts, chaos.WithPool(pools.Get(exp.Target)))
		}
		harness, err := chaos.New(exp.Config, opts...)
		if err != nil {
			return nil, fmt.Errorf("chaos experiment %q: %w", exp.Name, err)
		}
		harnesses[exp.Target] = harness
		logger.Warn("chaos experiment armed",
			zap.String("name", exp.Name),
			zap.String("target", exp.Target),
			zap.String("type", string(exp.Type)))
	}
	return harnesses, nil
}

// composeHooks chains state-change callbacks so one transition feeds
// metrics, logs, and live subscribers
func composeHooks(hooks ...func(name string, from, to resilience.State)) func(name string, from, to resilience.State) {
	return func(name string, from, to resilience.State) {
		for _, hook := range hooks {
			hook(name, from, to)
		}
	}
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting server", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	s.logger.Info("shutting down server")
	return s.http.Shutdown(ctx)
}
