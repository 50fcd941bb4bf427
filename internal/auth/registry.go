package auth

import "sync"

// Registry hands out one Manager per account suffix, creating them lazily.
// It replaces an implicit process-wide singleton map: construct one, pass
// it to call sites, and Reset it between tests.
type Registry struct {
	mu       sync.Mutex
	managers map[string]*Manager
	newFn    func(suffix string) (*Manager, error)
}

// NewRegistry creates a Registry whose Managers are built by newFn.
func NewRegistry(newFn func(suffix string) (*Manager, error)) *Registry {
	return &Registry{
		managers: make(map[string]*Manager),
		newFn:    newFn,
	}
}

// ForAccount returns the Manager for suffix, creating it on first use.
// Managers are never evicted.
func (r *Registry) ForAccount(suffix string) (*Manager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.managers[suffix]; ok {
		return m, nil
	}
	m, err := r.newFn(suffix)
	if err != nil {
		return nil, err
	}
	r.managers[suffix] = m
	return m, nil
}

// Reset drops all cached Managers.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.managers = make(map[string]*Manager)
}
