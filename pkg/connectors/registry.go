package connectors

import (
	"fmt"
	"sort"
	"sync"

	"sentry-hq/conduit/pkg/comm"
)

// Registry holds the connectors the orchestrator dispatches to, keyed by
// connector kind. One connector per kind.
type Registry struct {
	mu         sync.RWMutex
	connectors map[comm.ConnectorKind]Connector
}

// NewRegistry creates an empty connector registry.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[comm.ConnectorKind]Connector)}
}

// Register installs a connector. Registering a second connector for the
// same kind is a wiring bug and returns an error.
func (r *Registry) Register(c Connector) error {
	if c == nil {
		return fmt.Errorf("connector must not be nil")
	}
	kind := c.Kind()
	if !kind.Valid() {
		return fmt.Errorf("connector has unknown kind %q", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.connectors[kind]; exists {
		return fmt.Errorf("connector already registered for kind %q", kind)
	}
	r.connectors[kind] = c
	return nil
}

// Get returns the connector for kind, or a NotRegisteredError.
func (r *Registry) Get(kind comm.ConnectorKind) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[kind]
	if !ok {
		return nil, NewNotRegisteredError(kind)
	}
	return c, nil
}

// Kinds returns the registered kinds in stable order.
func (r *Registry) Kinds() []comm.ConnectorKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]comm.ConnectorKind, 0, len(r.connectors))
	for k := range r.connectors {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// List returns all registered connectors in kind order.
func (r *Registry) List() []Connector {
	kinds := r.Kinds()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Connector, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, r.connectors[k])
	}
	return out
}
