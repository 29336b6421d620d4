package config

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"sentry-hq/conduit/pkg/comm"
)

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
var validFormats = map[string]bool{"json": true, "text": true}

// Validate rejects configurations the components would choke on later.
func Validate(cfg *Config) error {
	if cfg.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	if !validFormats[cfg.Log.Format] {
		return fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}
	if cfg.RateLimit.GlobalPerMinute <= 0 {
		return fmt.Errorf("global rate limit must be positive, got %d", cfg.RateLimit.GlobalPerMinute)
	}
	if cfg.Evidence.RetentionDays < 0 {
		return fmt.Errorf("retention days must not be negative, got %d", cfg.Evidence.RetentionDays)
	}
	if cfg.Evidence.MaxRecords < 0 {
		return fmt.Errorf("max records must not be negative, got %d", cfg.Evidence.MaxRecords)
	}
	if cfg.Evidence.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Evidence.PruneSchedule); err != nil {
			return fmt.Errorf("invalid prune schedule %q: %w", cfg.Evidence.PruneSchedule, err)
		}
	}

	seen := map[string]bool{}
	for i, spec := range cfg.Policies {
		if spec.Name == "" {
			return fmt.Errorf("policy %d: name is required", i)
		}
		kind := comm.ConnectorKind(spec.ConnectorKind)
		if !kind.Valid() {
			return fmt.Errorf("policy %q: unknown connector kind %q", spec.Name, spec.ConnectorKind)
		}
		if seen[spec.ConnectorKind] {
			return fmt.Errorf("policy %q: duplicate policy for connector kind %q", spec.Name, spec.ConnectorKind)
		}
		seen[spec.ConnectorKind] = true
		if spec.RateLimitPerMinute < 0 || spec.MaxResponseSizeBytes < 0 || spec.TimeoutMS < 0 {
			return fmt.Errorf("policy %q: limits must not be negative", spec.Name)
		}
	}
	return nil
}
