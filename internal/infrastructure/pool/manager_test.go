package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRejectsInvalidDefaults(t *testing.T) {
	_, err := NewManager(Config{MaxConcurrent: -1})
	assert.Error(t, err)
}

func TestManagerFetchOrCreate(t *testing.T) {
	manager, err := NewManager(Config{MaxConcurrent: 2})
	require.NoError(t, err)

	a := manager.Get("cache")
	b := manager.Get("cache")
	c := manager.Get("database")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "cache", a.Key())
	assert.Len(t, manager.All(), 2)
}

func TestManagerGetWithConfig(t *testing.T) {
	manager, err := NewManager(Config{})
	require.NoError(t, err)

	custom, err := manager.GetWithConfig("uploads", Config{MaxConcurrent: 1, MaxQueueSize: 1})
	require.NoError(t, err)

	again, err := manager.GetWithConfig("uploads", Config{MaxConcurrent: 50})
	require.NoError(t, err)
	assert.Same(t, custom, again)

	_, err = manager.GetWithConfig("broken", Config{QueueTimeout: -time.Second})
	assert.Error(t, err)
}

func TestManagerRunIsolatesKeys(t *testing.T) {
	manager, err := NewManager(Config{
		MaxConcurrent: 1,
		MaxQueueSize:  1,
		QueueTimeout:  10 * time.Millisecond,
	})
	require.NoError(t, err)

	// Saturate the "slow" key.
	require.NoError(t, manager.Get("slow").Acquire(context.Background()))
	defer manager.Get("slow").Release()

	// The "fast" key has its own capacity.
	result, err := manager.Run(context.Background(), "fast", func(ctx context.Context) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestManagerConcurrentGet(t *testing.T) {
	manager, err := NewManager(Config{})
	require.NoError(t, err)

	const goroutines = 16
	results := make([]*Pool, goroutines)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			results[g] = manager.Get("shared")
		}(g)
	}
	wg.Wait()

	for g := 1; g < goroutines; g++ {
		assert.Same(t, results[0], results[g])
	}
}

func TestManagerMetrics(t *testing.T) {
	manager, err := NewManager(Config{})
	require.NoError(t, err)

	_, _ = manager.Run(context.Background(), "cache", func(ctx context.Context) (interface{}, error) {
		return nil, nil
	})
	manager.Get("database")

	metrics := manager.Metrics()
	assert.Len(t, metrics, 2)

	byKey := map[string]Metrics{}
	for _, m := range metrics {
		byKey[m.Key] = m
	}
	assert.Equal(t, uint64(1), byKey["cache"].AdmittedTotal)
	assert.Zero(t, byKey["database"].AdmittedTotal)
}
