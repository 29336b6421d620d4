package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const sourcesV1 = `
authoritative:
  - epa.gov
  - unfccc.int
primary:
  - wri.org
`

const sourcesV2 = `
authoritative:
  - epa.gov
primary:
  - wri.org
  - iea.org
  - irena.org
`

func TestLoadTrustedSources(t *testing.T) {
	path := writeFile(t, "sources.yaml", sourcesV1)
	sources, err := LoadTrustedSources(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources.Authoritative) != 2 || len(sources.Primary) != 1 {
		t.Errorf("sources = %+v", sources)
	}
}

func TestLoadTrustedSourcesBadFile(t *testing.T) {
	path := writeFile(t, "sources.yaml", "authoritative: {not a list}")
	if _, err := LoadTrustedSources(path); err == nil {
		t.Error("malformed file must be an error")
	}
}

func TestSourceWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	if err := os.WriteFile(path, []byte(sourcesV1), 0o644); err != nil {
		t.Fatal(err)
	}

	sw, err := NewSourceWatcher(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer sw.Close()

	var mu sync.Mutex
	var latest *TrustedSources
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sw.Watch(ctx, func(s *TrustedSources) {
		mu.Lock()
		latest = s
		mu.Unlock()
	}); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	if latest == nil || len(latest.Primary) != 1 {
		t.Fatalf("initial load = %+v", latest)
	}
	mu.Unlock()

	if err := os.WriteFile(path, []byte(sourcesV2), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := 0
		if latest != nil {
			n = len(latest.Primary)
		}
		mu.Unlock()
		if n == 3 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("reload never arrived, primary = %d", n)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestSourceWatcherKeepsLastGoodOnParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	if err := os.WriteFile(path, []byte(sourcesV1), 0o644); err != nil {
		t.Fatal(err)
	}

	sw, err := NewSourceWatcher(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer sw.Close()

	var mu sync.Mutex
	reloads := 0
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sw.Watch(ctx, func(*TrustedSources) {
		mu.Lock()
		reloads++
		mu.Unlock()
	}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("authoritative: {broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Give the watcher time to see the write; the callback must not run
	// for an unparsable revision.
	time.Sleep(500 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if reloads != 1 {
		t.Errorf("reloads = %d, want only the initial load", reloads)
	}
}

func TestSourceWatcherMissingFile(t *testing.T) {
	dir := t.TempDir()
	sw, err := NewSourceWatcher(filepath.Join(dir, "absent.yaml"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer sw.Close()

	if err := sw.Watch(context.Background(), func(*TrustedSources) {}); err == nil {
		t.Error("initial load of a missing file must fail")
	}
}
