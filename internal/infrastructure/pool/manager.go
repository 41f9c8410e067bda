package pool

import (
	"context"
	"sync"
)

// Manager owns the process-wide map of resource key to pool. Pools are
// created lazily on first use and reused thereafter. The manager is an
// explicit object passed to the composing application, never a hidden
// module-level singleton.
type Manager struct {
	mu         sync.RWMutex
	pools      map[string]*Pool
	defaultCfg Config
}

// NewManager creates a Manager that uses defaultCfg for pools created
// via Get. The default config is validated up front.
func NewManager(defaultCfg Config) (*Manager, error) {
	defaultCfg = defaultCfg.withDefaults()
	if err := defaultCfg.validate(); err != nil {
		return nil, err
	}
	return &Manager{
		pools:      make(map[string]*Pool),
		defaultCfg: defaultCfg,
	}, nil
}

// Get returns the pool for key, creating one with the default config
// if it does not exist.
func (m *Manager) Get(key string) *Pool {
	m.mu.RLock()
	p, ok := m.pools[key]
	m.mu.RUnlock()
	if ok {
		return p
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring the write lock.
	if p, ok = m.pools[key]; ok {
		return p
	}

	// Default config was validated in NewManager.
	p, _ = New(key, m.defaultCfg)
	m.pools[key] = p
	return p
}

// GetWithConfig returns the pool for key, creating one with cfg if it
// does not exist. An existing pool is returned as-is and cfg is ignored.
func (m *Manager) GetWithConfig(key string, cfg Config) (*Pool, error) {
	m.mu.RLock()
	p, ok := m.pools[key]
	m.mu.RUnlock()
	if ok {
		return p, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok = m.pools[key]; ok {
		return p, nil
	}

	p, err := New(key, cfg)
	if err != nil {
		return nil, err
	}
	m.pools[key] = p
	return p, nil
}

// Run executes the operation through the pool registered for key.
func (m *Manager) Run(ctx context.Context, key string, op func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	return m.Get(key).Run(ctx, op)
}

// All returns a snapshot of all pools keyed by resource key.
func (m *Manager) All() map[string]*Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*Pool, len(m.pools))
	for k, v := range m.pools {
		out[k] = v
	}
	return out
}

// Metrics returns a snapshot for every registered pool.
func (m *Manager) Metrics() []Metrics {
	all := m.All()
	out := make([]Metrics, 0, len(all))
	for _, p := range all {
		out = append(out, p.Metrics())
	}
	return out
}
