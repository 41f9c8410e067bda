package resilience

import "sync"

// Registry manages a collection of named circuit breakers. It is an
// explicit object owned by the composing application, not a
// package-level singleton. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	breakers   map[string]*Breaker
	defaultCfg Config
}

// NewRegistry creates a Registry that uses defaultCfg for breakers
// created via Get. The default config is validated up front.
func NewRegistry(defaultCfg Config) (*Registry, error) {
	defaultCfg = defaultCfg.withDefaults()
	if err := defaultCfg.validate(); err != nil {
		return nil, err
	}
	return &Registry{
		breakers:   make(map[string]*Breaker),
		defaultCfg: defaultCfg,
	}, nil
}

// Get returns the breaker registered under name, creating one with the
// default config if it does not exist.
func (r *Registry) Get(name string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring the write lock.
	if b, ok = r.breakers[name]; ok {
		return b
	}

	// Default config was validated in NewRegistry.
	b, _ = New(name, r.defaultCfg)
	r.breakers[name] = b
	return b
}

// GetWithConfig returns the breaker registered under name, creating
// one with cfg if it does not exist. An existing breaker is returned
// as-is and cfg is ignored.
func (r *Registry) GetWithConfig(name string, cfg Config) (*Breaker, error) {
	r.mu.RLock()
	b, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return b, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok = r.breakers[name]; ok {
		return b, nil
	}

	b, err := New(name, cfg)
	if err != nil {
		return nil, err
	}
	r.breakers[name] = b
	return b, nil
}

// All returns a snapshot of all registered breakers keyed by name.
func (r *Registry) All() map[string]*Breaker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*Breaker, len(r.breakers))
	for k, v := range r.breakers {
		out[k] = v
	}
	return out
}

// Metrics returns a snapshot for every registered breaker.
func (r *Registry) Metrics() []Metrics {
	all := r.All()
	out := make([]Metrics, 0, len(all))
	for _, b := range all {
		out = append(out, b.Metrics())
	}
	return out
}
