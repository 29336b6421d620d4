package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/evidence"
	"sentry-hq/conduit/pkg/evidence/storage"
)

func record(requestID string, createdAt time.Time) *evidence.EvidenceRecord {
	req := &comm.CommunicationRequest{
		ID:            requestID,
		ConnectorKind: comm.KindWebSearch,
		Operation:     "search",
		Status:        comm.StatusSuccess,
	}
	return evidence.NewRecord(req, map[string]any{"query": "carbon tax"}, createdAt)
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), nil, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[]" {
		t.Errorf("empty export = %q, want []", buf.String())
	}
}

func TestExportArray(t *testing.T) {
	now := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	records := []*evidence.EvidenceRecord{
		record("req-1", now),
		record("req-2", now.Add(time.Minute)),
	}

	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), records, &buf); err != nil {
		t.Fatal(err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d records, want 2", len(decoded))
	}
	if decoded[0]["request_id"] != "req-1" {
		t.Errorf("record 0 = %v", decoded[0])
	}
	if decoded[0]["connector_kind"] != "web_search" {
		t.Errorf("connector_kind = %v", decoded[0]["connector_kind"])
	}
}

func TestToFileWindow(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := record(fmt.Sprintf("req-%d", i), base.AddDate(0, 0, i))
		if err := store.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "audit.json")
	n, err := ToFile(ctx, store, base.AddDate(0, 0, 1), base.AddDate(0, 0, 3), path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("exported %d records, want 3", n)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("file is not valid JSON: %v", err)
	}
	if len(decoded) != 3 {
		t.Errorf("file holds %d records, want 3", len(decoded))
	}
}
