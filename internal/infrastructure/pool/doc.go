/*
Package pool provides bulkhead-style concurrency isolation per logical resource.

# Overview

A Pool bounds the number of operations in flight against one dependency
and converts unbounded backlog into bounded, observable backpressure: a
saturated pool queues a limited number of callers in strict FIFO order,
and everything beyond that fails fast. One overloaded dependency can
never starve the capacity reserved for another.

# Admission control

  1. active < MaxConcurrent: admitted immediately.
  2. queue shorter than MaxQueueSize: caller suspends FIFO until a slot
     frees, the queue timeout elapses, or its context is cancelled.
  3. queue full: rejected immediately with reason "pool_exhausted".

Queue timeout and cancellation both surface as a RejectedError with
reason "queue_timeout"; the context error is wrapped for inspection
with errors.Is.

# Usage

	pools, err := pool.NewManager(pool.Config{
		MaxConcurrent: 10,
		MaxQueueSize:  10,
		QueueTimeout:  time.Second,
	})
	if err != nil {
		return err
	}

	result, err := pools.Run(ctx, "payments-db", func(ctx context.Context) (interface{}, error) {
		return db.Query(ctx, q)
	})

	var rejected *pool.RejectedError
	if errors.As(err, &rejected) {
		// counted, not logged: rejections are expected under load
		return degraded(rejected.Reason)
	}
*/
package pool
