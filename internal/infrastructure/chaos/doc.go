/*
Package chaos provides deterministic fault injection for resilience testing.

# Overview

A Harness wraps an operation with controlled fault injection so circuit
breaker and bulkhead behavior can be validated under failure in test and
staging configurations. Injection is probabilistic but reproducible:
with a fixed seed and config, faults land at identical call indices on
every run.

# Experiment types

  - latency: delays the call by a duration drawn from [MinDelay, MaxDelay]
    (uniform or normal distribution), then proceeds normally
  - error: returns a synthetic *InjectedError without invoking the operation
  - exception: panics with an InjectedPanic value, exercising the
    failure path of callers that distinguish raised faults from typed errors
  - resource_exhaustion: occupies one slot of a paired bulkhead pool for
    the hold duration to simulate starvation, then releases and proceeds

# Usage

	harness, err := chaos.New(chaos.Config{
		Type:        chaos.Latency,
		Probability: 0.25,
		MinDelay:    50 * time.Millisecond,
		MaxDelay:    250 * time.Millisecond,
		Seed:        42,
	})
	if err != nil {
		return err
	}

	wrapped := harness.Wrap(callDependency)
	result, err := breaker.Execute(func() (interface{}, error) {
		return wrapped(ctx)
	})

Experiments intended for staging are declared in YAML and loaded with
LoadExperiments. This package belongs at the call site of test
configurations only; production wiring composes pool and breaker
without it.
*/
package chaos
