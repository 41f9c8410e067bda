/*
Package monitoring provides Prometheus metrics for the resilience core.

# Overview

This package exports the breaker, bulkhead, and chaos snapshots produced
by the resilience core as Prometheus metrics, and collects HTTP metrics
for the ops server. The core itself publishes nothing; all observability
wiring lives here.

# Features

- HTTP request metrics (latency, throughput)
- Circuit breaker state, transition, and rejection metrics
- Bulkhead pool utilization and rejection metrics
- Chaos experiment run and injection counters
- System metrics (uptime)

# Usage

	// Create metrics collector on a dedicated registry
	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetricsWith(registry)

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Wire breaker transitions into metrics and logs
	breakers, _ := resilience.NewRegistry(resilience.Config{
		OnStateChange: metrics.BreakerStateHook(logger),
	})

	// Refresh gauges from snapshots
	metrics.ObserveBreakers(breakers.Metrics())
	metrics.ObservePools(pools.Metrics())

# Metrics Endpoint

Expose the registry via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
*/
package monitoring
