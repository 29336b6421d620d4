package policy

import (
	"fmt"
	"sync"

	"sentry-hq/conduit/pkg/comm"
)

// Registry is the process-wide policy store, keyed by connector kind.
// Lookups dominate; a read-write lock keeps them cheap.
type Registry struct {
	mu       sync.RWMutex
	policies map[comm.ConnectorKind]*Policy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{policies: make(map[comm.ConnectorKind]*Policy)}
}

// Register installs or replaces the policy for its connector kind.
func (r *Registry) Register(p *Policy) error {
	if p == nil {
		return fmt.Errorf("policy must not be nil")
	}
	if !p.ConnectorKind.Valid() {
		return fmt.Errorf("policy %q has unknown connector kind %q", p.Name, p.ConnectorKind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[p.ConnectorKind] = p
	return nil
}

// Get returns the policy for kind, or nil when none is registered.
func (r *Registry) Get(kind comm.ConnectorKind) *Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.policies[kind]
}

// Remove deletes the policy for kind.
func (r *Registry) Remove(kind comm.ConnectorKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.policies, kind)
}

// List returns all registered policies.
func (r *Registry) List() []*Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Policy, 0, len(r.policies))
	for _, p := range r.policies {
		out = append(out, p)
	}
	return out
}
