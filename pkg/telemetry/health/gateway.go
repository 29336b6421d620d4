package health

import (
	"context"
	"fmt"

	"sentry-hq/conduit/pkg/connectors"
	"sentry-hq/conduit/pkg/evidence"
	"sentry-hq/conduit/pkg/telemetry/metrics"
)

// RegisterConnectors installs a probe per registered connector that can
// check its back-end. A disabled connector reports unhealthy. When a
// collector is given, every probe also publishes the connector_up gauge.
func RegisterConnectors(checker *Checker, registry *connectors.Registry, collector *metrics.Collector) {
	for _, conn := range registry.List() {
		probe, ok := conn.(connectors.HealthChecker)
		if !ok {
			continue
		}
		kind := conn.Kind()
		name := "connector:" + string(kind)
		checker.Register(name, func(ctx context.Context) error {
			err := probe.HealthCheck(ctx)
			if collector != nil {
				collector.SetConnectorHealth(kind, err == nil)
			}
			return err
		})
	}
}

// RegisterStorage installs a probe that pings the evidence database.
func RegisterStorage(checker *Checker, store evidence.Storage) {
	checker.Register("evidence", func(ctx context.Context) error {
		if _, err := store.Count(ctx); err != nil {
			return fmt.Errorf("evidence store unreachable: %w", err)
		}
		return nil
	})
}
