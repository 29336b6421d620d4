package netmode

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"sentry-hq/conduit/pkg/clock"
)

func testManager(t *testing.T) (*Manager, *clock.Virtual) {
	t.Helper()

	store, err := OpenStore(filepath.Join(t.TempDir(), "mode.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clk := clock.NewVirtual(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	m, err := NewManager(store, clk, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, clk
}

func TestManager_DefaultMode(t *testing.T) {
	m, _ := testManager(t)
	if m.Mode() != DefaultMode {
		t.Errorf("fresh store mode = %s, want %s", m.Mode(), DefaultMode)
	}
}

func TestManager_SetMode(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()

	rec, err := m.SetMode(ctx, ModeOn, "admin", "go live", map[string]any{"ticket": "OPS-12"})
	if err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if rec == nil || rec.PreviousMode != DefaultMode || rec.NewMode != ModeOn {
		t.Fatalf("unexpected transition record: %+v", rec)
	}
	if m.Mode() != ModeOn {
		t.Errorf("cached mode = %s, want ON", m.Mode())
	}
}

func TestManager_SetModeNoOp(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()

	if _, err := m.SetMode(ctx, ModeOn, "admin", "", nil); err != nil {
		t.Fatal(err)
	}
	rec, err := m.SetMode(ctx, ModeOn, "admin", "again", nil)
	if err != nil {
		t.Fatalf("no-op transition errored: %v", err)
	}
	if rec != nil {
		t.Errorf("no-op transition wrote history: %+v", rec)
	}

	history, err := m.History(ctx, 10, time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Errorf("history rows = %d, want 1", len(history))
	}
}

func TestManager_InvalidInputs(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()

	if _, err := m.SetMode(ctx, Mode("SOMETIMES"), "admin", "", nil); err == nil {
		t.Error("invalid mode must fail synchronously")
	}
	if _, err := m.SetMode(ctx, ModeOn, "", "", nil); err == nil {
		t.Error("empty updated_by must fail")
	}
}

func TestManager_HistoryTotallyOrdered(t *testing.T) {
	m, clk := testManager(t)
	ctx := context.Background()

	// Transitions without advancing the clock: timestamps must still be
	// strictly increasing.
	modes := []Mode{ModeOn, ModeOff, ModeReadOnly, ModeOn}
	for _, mode := range modes {
		if _, err := m.SetMode(ctx, mode, "admin", "flip", nil); err != nil {
			t.Fatalf("set %s: %v", mode, err)
		}
	}
	clk.Advance(time.Second)
	if _, err := m.SetMode(ctx, ModeOff, "admin", "final", nil); err != nil {
		t.Fatal(err)
	}

	history, err := m.History(ctx, 10, time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 5 {
		t.Fatalf("history rows = %d, want 5", len(history))
	}
	for i := 1; i < len(history); i++ {
		// Newest first, strictly decreasing.
		if !history[i-1].ChangedAt.After(history[i].ChangedAt) {
			t.Errorf("history not strictly ordered at %d: %v vs %v",
				i, history[i-1].ChangedAt, history[i].ChangedAt)
		}
	}
	// Each row's previous mode chains to the prior row's new mode.
	for i := 0; i < len(history)-1; i++ {
		if history[i].PreviousMode != history[i+1].NewMode {
			t.Errorf("broken transition chain at %d: %+v -> %+v", i, history[i+1], history[i])
		}
	}
}

func TestManager_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mode.db")

	store, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewManager(store, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.SetMode(context.Background(), ModeOff, "admin", "maintenance", nil); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store2, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store2.Close()
	m2, err := NewManager(store2, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m2.Mode() != ModeOff {
		t.Errorf("reloaded mode = %s, want OFF", m2.Mode())
	}
}
