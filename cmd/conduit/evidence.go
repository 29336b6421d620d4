package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"sentry-hq/conduit/pkg/cli"
	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/config"
	"sentry-hq/conduit/pkg/evidence"
	"sentry-hq/conduit/pkg/evidence/export"
	"sentry-hq/conduit/pkg/evidence/storage"
)

var evidenceFlags struct {
	start     string
	end       string
	out       string
	olderThan int
	yes       bool
	format    string
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Work with the evidence store",
	Long: `Inspect, export, and prune the evidence store.

Every communication attempt, denied or not, leaves an evidence record.
These commands operate directly on the configured SQLite database.

Subcommands:
  stats   - record counts by status and connector
  export  - export records in a time range to JSON
  purge   - delete records older than a cutoff

Examples:
  conduit evidence stats
  conduit evidence export --start 2026-08-01T00:00:00Z --out evidence.json
  conduit evidence purge --older-than 90 --yes`,
}

var evidenceStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print record counts by status and connector",
	RunE:  runEvidenceStats,
}

var evidenceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export records in a time range to a JSON file",
	RunE:  runEvidenceExport,
}

var evidencePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete records older than a cutoff",
	RunE:  runEvidencePurge,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceStatsCmd, evidenceExportCmd, evidencePurgeCmd)

	evidenceStatsCmd.Flags().StringVar(&evidenceFlags.format, "format", "text", "output format: text, json")
	evidenceExportCmd.Flags().StringVar(&evidenceFlags.start, "start", "", "range start (RFC3339, open when empty)")
	evidenceExportCmd.Flags().StringVar(&evidenceFlags.end, "end", "", "range end (RFC3339, open when empty)")
	evidenceExportCmd.Flags().StringVarP(&evidenceFlags.out, "out", "o", "evidence.json", "output file path")
	evidencePurgeCmd.Flags().IntVar(&evidenceFlags.olderThan, "older-than", 90, "delete records older than this many days")
	evidencePurgeCmd.Flags().BoolVar(&evidenceFlags.yes, "yes", false, "skip the confirmation prompt")
}

// openEvidence loads the configuration and opens the evidence store.
func openEvidence() (evidence.Storage, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	if err := ensureDir(cfg.Evidence.DBPath); err != nil {
		return nil, err
	}
	storageCfg := storage.DefaultSQLiteConfig()
	storageCfg.Path = cfg.Evidence.DBPath
	store, err := storage.NewSQLiteStorage(storageCfg)
	if err != nil {
		return nil, fmt.Errorf("open evidence store: %w", err)
	}
	return store, nil
}

// evidenceStats is the stats command's output shape.
type evidenceStats struct {
	Total       int64            `json:"total"`
	ByStatus    map[string]int64 `json:"by_status"`
	ByConnector map[string]int64 `json:"by_connector"`
}

func runEvidenceStats(cmd *cobra.Command, args []string) error {
	store, err := openEvidence()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats := evidenceStats{
		ByStatus:    map[string]int64{},
		ByConnector: map[string]int64{},
	}
	if stats.Total, err = store.Count(ctx); err != nil {
		return cli.NewCommandError("evidence stats", err)
	}
	statuses := []comm.RequestStatus{
		comm.StatusSuccess, comm.StatusFailed, comm.StatusDenied,
		comm.StatusRequireAdmin, comm.StatusRateLimited, comm.StatusInProgress,
	}
	for _, status := range statuses {
		n, err := store.CountByStatus(ctx, status)
		if err != nil {
			return cli.NewCommandError("evidence stats", err)
		}
		if n > 0 {
			stats.ByStatus[string(status)] = n
		}
	}
	byConnector, err := store.StatsByConnector(ctx)
	if err != nil {
		return cli.NewCommandError("evidence stats", err)
	}
	for kind, n := range byConnector {
		stats.ByConnector[string(kind)] = n
	}

	if evidenceFlags.format == string(cli.FormatJSON) {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(os.Stdout, stats)
	}

	fmt.Printf("total records: %d\n", stats.Total)
	printCounts("by status", stats.ByStatus)
	printCounts("by connector", stats.ByConnector)
	return nil
}

func printCounts(header string, counts map[string]int64) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Println(header + ":")
	for _, k := range keys {
		fmt.Printf("  %-16s %d\n", k, counts[k])
	}
}

func runEvidenceExport(cmd *cobra.Command, args []string) error {
	var start, end time.Time
	var err error
	if evidenceFlags.start != "" {
		if start, err = time.Parse(time.RFC3339, evidenceFlags.start); err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}
	if evidenceFlags.end != "" {
		if end, err = time.Parse(time.RFC3339, evidenceFlags.end); err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
	}

	store, err := openEvidence()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := export.ToFile(ctx, store, start, end, evidenceFlags.out)
	if err != nil {
		return cli.NewCommandError("evidence export", err)
	}
	fmt.Printf("exported %d records to %s\n", n, evidenceFlags.out)
	return nil
}

func runEvidencePurge(cmd *cobra.Command, args []string) error {
	if evidenceFlags.olderThan <= 0 {
		return fmt.Errorf("--older-than must be positive, got %d", evidenceFlags.olderThan)
	}
	cutoff := time.Now().AddDate(0, 0, -evidenceFlags.olderThan)

	if !evidenceFlags.yes {
		fmt.Printf("delete all records created before %s? [y/N] ", cutoff.UTC().Format(time.RFC3339))
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("aborted")
			return nil
		}
	}

	store, err := openEvidence()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := store.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return cli.NewCommandError("evidence purge", err)
	}
	fmt.Printf("purged %d records\n", n)
	return nil
}
