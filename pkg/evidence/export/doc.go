// Package export serializes evidence records for off-system archival.
//
// # JSON Export
//
// The JSON exporter writes records as a JSON array, with optional
// pretty-printing:
//
//	exporter := export.NewJSONExporter(true)
//	err := exporter.Export(ctx, records, os.Stdout)
//
// ToFile pulls a time window straight from a storage backend:
//
//	n, err := export.ToFile(ctx, store, start, end, "audit-2026-08.json")
//
// # Error Handling
//
// Exporters return ExportError for encoding and writer failures.
package export
