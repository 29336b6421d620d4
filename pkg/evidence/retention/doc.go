// Package retention provides retention enforcement for evidence records.
//
// # Retention Policy
//
// The pruner deletes old audit rows on two axes:
//
//   - Age: records older than RetentionDays (0 keeps forever)
//   - Count: the oldest records beyond MaxRecords (0 is unlimited)
//
// With ArchiveBeforeDelete set, matching records are exported to a dated
// JSON file before deletion.
//
// # Basic Usage
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    RetentionDays: 90,
//	    PruneSchedule: "0 3 * * *", // daily at 3 AM
//	}, nil)
//
//	if err := pruner.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer pruner.Stop()
//
// Prune can also be invoked manually; it returns how many records were
// deleted.
//
// # Scheduling
//
// Scheduling uses standard cron expressions via robfig/cron. An empty
// PruneSchedule disables the scheduler; Start then returns immediately
// without error. Stop waits for a running cycle to finish.
package retention
