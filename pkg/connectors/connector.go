package connectors

import (
	"context"
	"sync/atomic"

	"sentry-hq/conduit/pkg/comm"
)

// Connector is the interface all back-end adapters implement.
//
// Execute must respect context cancellation and return promptly when the
// context is done. The returned value is connector-specific structured
// data; the orchestrator sanitizes and records it.
type Connector interface {
	// Kind returns the connector class this adapter serves.
	Kind() comm.ConnectorKind

	// Operations returns the operation names the connector supports.
	Operations() []string

	// Execute runs one operation with validated parameters.
	Execute(ctx context.Context, operation string, params map[string]any) (any, error)

	// Enabled reports whether the connector accepts requests.
	Enabled() bool

	// SetEnabled flips the connector's availability at runtime.
	SetEnabled(enabled bool)
}

// HealthChecker is implemented by connectors that can probe their
// back-end. The health subsystem polls it periodically.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Base carries the state every connector shares. Embed it and supply the
// kind and operation set at construction.
type Base struct {
	kind       comm.ConnectorKind
	operations []string
	enabled    atomic.Bool
}

// NewBase creates an enabled Base for kind.
func NewBase(kind comm.ConnectorKind, operations ...string) Base {
	b := Base{kind: kind, operations: operations}
	b.enabled.Store(true)
	return b
}

// Kind implements Connector.
func (b *Base) Kind() comm.ConnectorKind { return b.kind }

// Operations implements Connector.
func (b *Base) Operations() []string {
	out := make([]string, len(b.operations))
	copy(out, b.operations)
	return out
}

// Enabled implements Connector.
func (b *Base) Enabled() bool { return b.enabled.Load() }

// SetEnabled implements Connector.
func (b *Base) SetEnabled(enabled bool) { b.enabled.Store(enabled) }

// Supports reports whether the connector lists the operation.
func (b *Base) Supports(operation string) bool {
	for _, op := range b.operations {
		if op == operation {
			return true
		}
	}
	return false
}
