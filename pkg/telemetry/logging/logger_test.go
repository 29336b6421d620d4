package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func jsonLogger(t *testing.T, redact bool) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Format: "json", RedactCredentials: redact, Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	return logger, &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	return entry
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("info passed a warn-level logger: %s", buf.String())
	}
	logger.Warn("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Error("warn record missing")
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	if _, err := New(Config{Level: "verbose"}); err == nil {
		t.Error("unknown level must be rejected")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("unknown format must be rejected")
	}
}

func TestSensitiveKeyRedacted(t *testing.T) {
	logger, buf := jsonLogger(t, true)

	logger.Info("connector configured", "api_key", "sk-verysecretkey12345", "host", "smtp.example.com")

	entry := lastLine(t, buf)
	key, _ := entry["api_key"].(string)
	if strings.Contains(key, "verysecret") {
		t.Errorf("api_key leaked: %q", key)
	}
	if entry["host"] != "smtp.example.com" {
		t.Errorf("host = %v", entry["host"])
	}
}

func TestCredentialShapedValueRedacted(t *testing.T) {
	logger, buf := jsonLogger(t, true)

	logger.Error("upstream rejected", "detail", "authorization header Bearer abc123def456 denied")

	entry := lastLine(t, buf)
	detail, _ := entry["detail"].(string)
	if strings.Contains(detail, "abc123def456") {
		t.Errorf("bearer token leaked: %q", detail)
	}
}

func TestEmailRedacted(t *testing.T) {
	logger, buf := jsonLogger(t, true)

	logger.Info("message queued", "note", "sending to alice@example.com shortly")

	entry := lastLine(t, buf)
	note, _ := entry["note"].(string)
	if strings.Contains(note, "alice@example.com") {
		t.Errorf("address leaked: %q", note)
	}
}

func TestRedactionDisabledPassesThrough(t *testing.T) {
	logger, buf := jsonLogger(t, false)

	logger.Info("raw", "password", "hunter2hunter2")
	entry := lastLine(t, buf)
	if entry["password"] != "hunter2hunter2" {
		t.Errorf("redaction ran while disabled: %v", entry["password"])
	}
}

func TestContextFieldsAttached(t *testing.T) {
	logger, buf := jsonLogger(t, false)

	ctx := WithRequestID(context.Background(), "req-42")
	ctx = WithConnectorKind(ctx, "web_fetch")
	logger.InfoContext(ctx, "dispatching")

	entry := lastLine(t, buf)
	if entry["request_id"] != "req-42" {
		t.Errorf("request_id = %v", entry["request_id"])
	}
	if entry["connector_kind"] != "web_fetch" {
		t.Errorf("connector_kind = %v", entry["connector_kind"])
	}
}

func TestWithCarriesFields(t *testing.T) {
	logger, buf := jsonLogger(t, false)

	logger.With("component", "service").Info("ready")
	entry := lastLine(t, buf)
	if entry["component"] != "service" {
		t.Errorf("component = %v", entry["component"])
	}
}
