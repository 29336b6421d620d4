package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"sentry-hq/conduit/pkg/clock"
	"sentry-hq/conduit/pkg/evidence"
	"sentry-hq/conduit/pkg/evidence/export"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain evidence.
	// 0 means keep evidence forever (no age-based pruning).
	RetentionDays int

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string

	// ArchiveBeforeDelete exports records to JSON before deletion.
	ArchiveBeforeDelete bool

	// ArchivePath is the directory for archive files.
	ArchivePath string

	// MaxRecords caps the total record count. 0 means unlimited.
	MaxRecords int64
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays:       90,
		PruneSchedule:       "0 3 * * *",
		ArchiveBeforeDelete: false,
		ArchivePath:         "data/archives/",
		MaxRecords:          0,
	}
}

// Pruner enforces retention on the evidence store.
type Pruner struct {
	storage   evidence.Storage
	config    *Config
	clock     clock.Clock
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a retention pruner. A nil config uses defaults; a
// nil clock uses the system clock.
func NewPruner(storage evidence.Storage, config *Config, clk clock.Clock) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	if clk == nil {
		clk = clock.System()
	}

	pruner := &Pruner{
		storage: storage,
		config:  config,
		clock:   clk,
		logger:  slog.Default().With("component", "evidence.retention"),
	}
	pruner.scheduler = NewScheduler(pruner)
	return pruner
}

// Prune runs one retention cycle: age-based deletion first, then the
// record-count cap. Returns the total number of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var totalDeleted int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by age failed: %w", err)
		}
		totalDeleted += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by count failed: %w", err)
		}
		totalDeleted += deleted
	}

	if totalDeleted > 0 {
		p.logger.Info("evidence pruning completed",
			"total_deleted", totalDeleted,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	}
	return totalDeleted, nil
}

// pruneByAge deletes records older than the retention period.
func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.clock.Now().AddDate(0, 0, -p.config.RetentionDays)

	if p.config.ArchiveBeforeDelete {
		if err := p.archiveBefore(ctx, cutoff); err != nil {
			return 0, evidence.NewRetentionError(p.config.RetentionDays, err)
		}
	}

	deleted, err := p.storage.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, evidence.NewRetentionError(p.config.RetentionDays, err)
	}
	return deleted, nil
}

// pruneByCount deletes the oldest records once the total exceeds
// MaxRecords.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	// Search returns newest first; the last kept record's created_at is
	// the cutoff below which everything goes.
	kept, err := p.storage.Search(ctx, evidence.Filters{}, int(p.config.MaxRecords))
	if err != nil {
		return 0, fmt.Errorf("failed to find count cutoff: %w", err)
	}
	if len(kept) == 0 {
		return 0, nil
	}
	cutoff := kept[len(kept)-1].CreatedAt

	if p.config.ArchiveBeforeDelete {
		if err := p.archiveBefore(ctx, cutoff); err != nil {
			return 0, fmt.Errorf("archive failed: %w", err)
		}
	}

	deleted, err := p.storage.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}
	return deleted, nil
}

// archiveBefore exports every record older than the cutoff to a dated
// JSON file under the archive directory.
func (p *Pruner) archiveBefore(ctx context.Context, cutoff time.Time) error {
	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	archiveFile := filepath.Join(p.config.ArchivePath,
		fmt.Sprintf("evidence-%s.json", p.clock.Now().Format("2006-01-02-150405")))

	start := time.Unix(0, 0).UTC()
	n, err := export.ToFile(ctx, p.storage, start, cutoff.Add(-time.Millisecond), archiveFile)
	if err != nil {
		return fmt.Errorf("failed to archive records: %w", err)
	}
	if n == 0 {
		// Nothing matched; do not leave an empty archive behind.
		os.Remove(archiveFile)
		return nil
	}

	p.logger.Info("evidence archived",
		"archive_file", archiveFile,
		"record_count", n,
	)
	return nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
