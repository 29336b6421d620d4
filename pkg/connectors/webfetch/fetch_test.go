package webfetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"os"
	"strings"
	"testing"
	"time"

	"sentry-hq/conduit/pkg/clock"
	"sentry-hq/conduit/pkg/connectors"
	"sentry-hq/conduit/pkg/trust"
)

// loopbackPrefixes lets tests fetch from httptest servers.
var loopbackPrefixes = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
}

func testFetcher(t *testing.T, maxBytes int64) *Fetcher {
	t.Helper()
	client := connectors.NewSafeClient(connectors.SafeClientConfig{
		Timeout:         5 * time.Second,
		AllowedPrefixes: loopbackPrefixes,
	})
	vc := clock.NewVirtual(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC))
	return New(Config{
		Client:           client,
		Classifier:       trust.NewClassifier(nil, nil),
		MaxResponseBytes: maxBytes,
		Clock:            vc,
	})
}

func TestFetchHTMLPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := testFetcher(t, 0)
	got, err := f.Execute(context.Background(), OpFetch, map[string]any{"url": srv.URL + "/page"})
	if err != nil {
		t.Fatal(err)
	}
	res := got.(*FetchResult)

	if res.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", res.StatusCode)
	}
	if res.URL != srv.URL+"/page" {
		t.Errorf("URL = %q", res.URL)
	}
	if res.Extracted == nil || res.Extracted.Title != "Carbon Pricing Act Summary" {
		t.Fatalf("Extracted = %+v", res.Extracted)
	}

	doc := res.Document
	if doc == nil {
		t.Fatal("fetch must produce a document")
	}
	if doc.Type != "fetched_document" {
		t.Errorf("document type = %q", doc.Type)
	}
	if doc.Metadata.FetchedAt != "2026-08-24T12:00:00.000Z" {
		t.Errorf("fetched_at = %q", doc.Metadata.FetchedAt)
	}
	if len(doc.Metadata.ContentHash) != 64 {
		t.Errorf("content_hash = %q, want 64 hex chars", doc.Metadata.ContentHash)
	}
	if doc.Content.BodyText == "" || doc.Content.Title == "" {
		t.Errorf("document content incomplete: %+v", doc.Content)
	}
}

func TestFetchSkipsExtractionForNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hello":"world"}`))
	}))
	defer srv.Close()

	f := testFetcher(t, 0)
	got, err := f.Execute(context.Background(), OpFetch, map[string]any{"url": srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	res := got.(*FetchResult)
	if res.Extracted != nil {
		t.Error("non-HTML content must not be extracted")
	}
	if res.Document == nil {
		t.Error("non-HTML fetches still produce a document")
	}
}

func TestFetchPassesMethodHeadersBody(t *testing.T) {
	var (
		gotMethod string
		gotHeader string
		gotBody   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Request-Source")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte("accepted"))
	}))
	defer srv.Close()

	f := testFetcher(t, 0)
	_, err := f.Execute(context.Background(), OpFetch, map[string]any{
		"url":     srv.URL,
		"method":  "post",
		"headers": map[string]any{"X-Request-Source": "gateway"},
		"body":    "q=carbon",
	})
	if err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotHeader != "gateway" {
		t.Errorf("X-Request-Source = %q", gotHeader)
	}
	if string(gotBody) != "q=carbon" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestFetchDefaultsToGET(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
	}))
	defer srv.Close()

	f := testFetcher(t, 0)
	if _, err := f.Execute(context.Background(), OpFetch, map[string]any{"url": srv.URL}); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodGet {
		t.Errorf("method = %q, want GET", gotMethod)
	}
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	f := testFetcher(t, 1024)
	_, err := f.Execute(context.Background(), OpFetch, map[string]any{"url": srv.URL})
	var tooLarge *connectors.ResponseTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("error = %v, want ResponseTooLargeError", err)
	}
	if tooLarge.Limit != 1024 {
		t.Errorf("Limit = %d, want 1024", tooLarge.Limit)
	}
}

func TestFetchRejectsOversizedContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	f := testFetcher(t, 1024)
	_, err := f.Execute(context.Background(), OpFetch, map[string]any{"url": srv.URL})
	var tooLarge *connectors.ResponseTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("error = %v, want ResponseTooLargeError before reading the body", err)
	}
}

func TestFetchBlocksUnguardedTargets(t *testing.T) {
	client := connectors.NewSafeClient(connectors.SafeClientConfig{Timeout: time.Second})
	f := New(Config{Client: client, Classifier: trust.NewClassifier(nil, nil)})

	_, err := f.Execute(context.Background(), OpFetch,
		map[string]any{"url": "http://169.254.169.254/latest/meta-data/"})
	if err == nil {
		t.Fatal("metadata endpoint must be blocked")
	}
	if !strings.Contains(err.Error(), "ssrf blocked") {
		t.Errorf("error = %v, want an ssrf rejection", err)
	}
}

func TestFetchMissingURL(t *testing.T) {
	f := testFetcher(t, 0)
	_, err := f.Execute(context.Background(), OpFetch, map[string]any{})
	var missing *connectors.MissingParamError
	if !errors.As(err, &missing) || missing.Param != "url" {
		t.Fatalf("error = %v, want MissingParamError for url", err)
	}
}

func TestDownloadToTempFile(t *testing.T) {
	payload := strings.Repeat("data", 1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	f := testFetcher(t, 0)
	got, err := f.Execute(context.Background(), OpDownload, map[string]any{"url": srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	res := got.(*DownloadResult)
	defer os.Remove(res.Path)

	if res.BytesCopied != int64(len(payload)) {
		t.Errorf("BytesCopied = %d, want %d", res.BytesCopied, len(payload))
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != payload {
		t.Error("downloaded content mismatch")
	}
}

func TestDownloadRemovesPartialOnOversize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 8192)))
	}))
	defer srv.Close()

	dest := t.TempDir() + "/partial.bin"
	f := testFetcher(t, 1024)
	_, err := f.Execute(context.Background(), OpDownload,
		map[string]any{"url": srv.URL, "destination": dest, "chunk_size": 256})
	var tooLarge *connectors.ResponseTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("error = %v, want ResponseTooLargeError", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("partial download must be removed")
	}
}

func TestExecuteUnsupportedOperation(t *testing.T) {
	f := testFetcher(t, 0)
	_, err := f.Execute(context.Background(), "teleport", nil)
	var unsupported *connectors.UnsupportedOperationError
	if !errors.As(err, &unsupported) {
		t.Fatalf("error = %v, want UnsupportedOperationError", err)
	}
}
