package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// TrustedSources is the operator-curated domain classification used by
// the trust classifier.
type TrustedSources struct {
	// Authoritative domains produce decision-grade material.
	Authoritative []string `yaml:"authoritative"`

	// Primary domains are first-party but not institutional.
	Primary []string `yaml:"primary"`
}

// LoadTrustedSources reads the trusted-sources YAML file.
func LoadTrustedSources(path string) (*TrustedSources, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trusted sources %q: %w", path, err)
	}
	var sources TrustedSources
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("parse trusted sources %q: %w", path, err)
	}
	return &sources, nil
}

// sourceDebounce coalesces the write bursts editors and atomic-save
// tools produce into one reload.
const sourceDebounce = 100 * time.Millisecond

// SourceWatcher hot-reloads the trusted-sources file. Each successfully
// parsed revision is pushed to the callback; a revision that fails to
// parse is logged and skipped so the last good sets stay active.
type SourceWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	done    chan struct{}
}

// NewSourceWatcher creates a watcher for the trusted-sources file. The
// file's directory is watched, not the file itself, so atomic
// rename-into-place saves are seen.
func NewSourceWatcher(path string, logger *slog.Logger) (*SourceWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %q: %w", filepath.Dir(path), err)
	}
	return &SourceWatcher{
		path:    path,
		watcher: w,
		logger:  logger.With("component", "config.sources"),
		done:    make(chan struct{}),
	}, nil
}

// Watch delivers reloads until the context is cancelled or Close is
// called. It returns after delivering the initial load.
func (sw *SourceWatcher) Watch(ctx context.Context, onReload func(*TrustedSources)) error {
	initial, err := LoadTrustedSources(sw.path)
	if err != nil {
		return err
	}
	onReload(initial)

	go sw.loop(ctx, onReload)
	return nil
}

func (sw *SourceWatcher) loop(ctx context.Context, onReload func(*TrustedSources)) {
	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	reload := func() {
		sources, err := LoadTrustedSources(sw.path)
		if err != nil {
			sw.logger.Warn("trusted sources reload failed, keeping previous sets",
				"path", sw.path, "error", err)
			return
		}
		sw.logger.Info("trusted sources reloaded",
			"path", sw.path,
			"authoritative", len(sources.Authoritative),
			"primary", len(sources.Primary),
		)
		onReload(sources)
	}

	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sw.done:
			return
		case <-fire:
			reload()
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(sw.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(sourceDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.logger.Warn("trusted sources watcher error", "error", err)
		}
	}
}

// Close stops the watcher.
func (sw *SourceWatcher) Close() error {
	close(sw.done)
	return sw.watcher.Close()
}
