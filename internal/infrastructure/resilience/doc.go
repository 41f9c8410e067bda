/*
Package resilience provides an adaptive circuit breaker for graceful degradation.

# Overview

This package implements the circuit breaker pattern to prevent cascading failures
when external dependencies (caches, databases, third-party APIs) become
unavailable or slow. Trip decisions are driven by the failure rate observed
over a rolling time window rather than consecutive-failure counting, so a
breaker never trips on a handful of requests during low traffic.

# Features

- Three-state circuit breaker (Closed, Open, Half-Open)
- Rolling time-bucketed failure-rate window with lazy eviction
- Volume threshold to ignore statistically insignificant samples
- Bounded concurrent half-open probes (default 1)
- Timeout-aware outcome classification (deadline errors count separately)
- State change callbacks for monitoring
- Explicit registry for named, long-lived breakers

# Usage

	breaker, err := resilience.New("payments-db", resilience.Config{
		FailureThreshold: 0.5,
		Timeout:          30 * time.Second,
		MonitoringWindow: 60 * time.Second,
		VolumeThreshold:  10,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Printf("breaker %s: %s -> %s", name, from, to)
		},
	})
	if err != nil {
		return err
	}

	result, err := breaker.Execute(func() (interface{}, error) {
		return client.Call(ctx)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return serveStale()
	}

# States

- Closed: normal operation; every outcome is recorded into the window
- Open: dependency presumed down; calls fail fast with ErrCircuitOpen
- Half-Open: a limited number of probes test whether it recovered

# Pattern

	Closed --[rate >= threshold, volume >= min]-> Open --[timeout]-> Half-Open --[probes succeed]-> Closed
	                                                                     |
	                                                              [probe failure]
	                                                                     |
	                                                                     v
	                                                                   Open
*/
package resilience
