package export

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"sentry-hq/conduit/pkg/evidence"
)

// windowSearchLimit bounds one export window. Exports are an audit
// convenience, not a replication mechanism.
const windowSearchLimit = 100000

// JSONExporter exports evidence records to JSON format.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// Export writes evidence records to the provided writer as a JSON array.
// If Pretty is true, the JSON will be indented for readability.
func (e *JSONExporter) Export(_ context.Context, records []*evidence.EvidenceRecord, w io.Writer) error {
	if len(records) == 0 {
		_, err := w.Write([]byte("[]"))
		return err
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return evidence.NewExportError("json", len(records), err)
	}

	if _, err := w.Write(data); err != nil {
		return evidence.NewExportError("json", len(records), err)
	}
	return nil
}

// ToFile exports the records created in [start, end] to a JSON file and
// returns how many were written.
func ToFile(ctx context.Context, store evidence.Storage, start, end time.Time, path string) (int, error) {
	records, err := store.Search(ctx, evidence.Filters{Start: &start, End: &end}, windowSearchLimit)
	if err != nil {
		return 0, evidence.NewExportError("json", 0, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, evidence.NewExportError("json", len(records), err)
	}
	defer f.Close()

	exporter := NewJSONExporter(true)
	if err := exporter.Export(ctx, records, f); err != nil {
		return 0, err
	}
	if err := f.Sync(); err != nil {
		return 0, evidence.NewExportError("json", len(records), err)
	}
	return len(records), nil
}
