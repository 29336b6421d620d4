package netmode

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"sentry-hq/conduit/pkg/clock"
)

// DefaultMode is the mode assumed for a fresh store with no persisted
// state.
const DefaultMode = ModeReadOnly

// Manager is the process-wide mode singleton. Reads come from an atomic
// cache; transitions are serialized by a write lock and persisted before
// the cache is updated.
type Manager struct {
	store *Store
	clk   clock.Clock
	log   *slog.Logger

	cached atomic.Value // Mode

	writeMu    sync.Mutex
	lastTickMs int64 // last history timestamp, for monotonic disambiguation
}

// NewManager loads (or initializes) the persisted mode and returns the
// manager.
func NewManager(store *Store, clk clock.Clock, logger *slog.Logger) (*Manager, error) {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		store: store,
		clk:   clk,
		log:   logger.With("component", "netmode"),
	}

	state, err := store.Load(context.Background())
	if err != nil {
		return nil, err
	}
	if state == nil {
		m.cached.Store(DefaultMode)
	} else {
		m.cached.Store(state.Mode)
		m.lastTickMs = state.UpdatedAt.UnixMilli()
	}
	return m, nil
}

// Mode returns the current mode from the cache.
func (m *Manager) Mode() Mode {
	return m.cached.Load().(Mode)
}

// SetMode transitions to the given mode, persisting the new state and a
// history row atomically. Setting the current mode is a no-op returning
// nil. Invalid modes fail synchronously.
func (m *Manager) SetMode(ctx context.Context, mode Mode, updatedBy, reason string, metadata map[string]any) (*TransitionRecord, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid network mode %q", mode)
	}
	if updatedBy == "" {
		return nil, fmt.Errorf("updated_by is required for mode transitions")
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	previous := m.Mode()
	if previous == mode {
		return nil, nil
	}

	rec, err := m.store.Transition(ctx, TransitionRecord{
		PreviousMode: previous,
		NewMode:      mode,
		ChangedAt:    m.nextTickLocked(),
		ChangedBy:    updatedBy,
		Reason:       reason,
		Metadata:     metadata,
	})
	if err != nil {
		return nil, err
	}

	m.cached.Store(mode)
	m.log.Info("network mode changed",
		"previous", previous, "new", mode, "by", updatedBy, "reason", reason)
	return rec, nil
}

// IsOperationAllowed checks an operation against the current mode.
func (m *Manager) IsOperationAllowed(operation string) (bool, string) {
	return IsOperationAllowed(operation, m.Mode())
}

// History returns mode transitions newest-first.
func (m *Manager) History(ctx context.Context, limit int, start, end time.Time) ([]TransitionRecord, error) {
	return m.store.History(ctx, limit, start, end)
}

// nextTickLocked returns a strictly increasing millisecond timestamp so
// no two transitions record the same instant. Caller holds writeMu.
func (m *Manager) nextTickLocked() time.Time {
	nowMs := m.clk.Now().UnixMilli()
	if nowMs <= m.lastTickMs {
		nowMs = m.lastTickMs + 1
	}
	m.lastTickMs = nowMs
	return time.UnixMilli(nowMs).UTC()
}
