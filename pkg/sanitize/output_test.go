package sanitize

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRedactValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"abc", "****"},
		{"abcd", "****"},
		{"abcdefgh", "abcd****"},
		{"sk-" + strings.Repeat("x", 40), "sk-x" + strings.Repeat("*", 20)},
	}
	for _, tc := range tests {
		if got := RedactValue(tc.input); got != tc.want {
			t.Errorf("RedactValue(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestIsSensitiveKey(t *testing.T) {
	sensitive := []string{"api_key", "API_KEY", "openai_api_key", "password", "user_password", "refresh_token", "client_secret", "private_key", "ssn", "credit_card_number"}
	benign := []string{"url", "query", "body", "username", "content_type"}

	for _, k := range sensitive {
		if !IsSensitiveKey(k) {
			t.Errorf("IsSensitiveKey(%q) = false, want true", k)
		}
	}
	for _, k := range benign {
		if IsSensitiveKey(k) {
			t.Errorf("IsSensitiveKey(%q) = true, want false", k)
		}
	}
}

func TestSanitizeMap_SensitiveKeys(t *testing.T) {
	s := NewOutputSanitizer()

	got := s.SanitizeMap(map[string]any{
		"api_key": "sk-verysecretvalue123",
		"url":     "https://example.com",
		"auth": map[string]any{
			"password": "hunter2hunter2",
		},
	})

	if got["api_key"] == "sk-verysecretvalue123" {
		t.Error("api_key value not redacted")
	}
	if !strings.HasPrefix(got["api_key"].(string), "sk-v") {
		t.Errorf("redaction must preserve first 4 chars: %q", got["api_key"])
	}
	if got["url"] != "https://example.com" {
		t.Errorf("benign value mutated: %q", got["url"])
	}
	auth := got["auth"].(map[string]any)
	if auth["password"] == "hunter2hunter2" {
		t.Error("nested password not redacted")
	}
}

func TestSanitizeValue_ContentPatterns(t *testing.T) {
	s := NewOutputSanitizer()

	tests := []struct {
		name  string
		input string
	}{
		{"api key", "the key is sk-abcdefghij0123456789 ok"},
		{"long token", "bearer " + strings.Repeat("a", 48)},
		{"credit card", "card 4111 1111 1111 1111 thanks"},
		{"ssn", "ssn is 123-45-6789"},
	}
	for _, tc := range tests {
		got := s.SanitizeValue(tc.input).(string)
		if got == tc.input {
			t.Errorf("%s: no redaction applied to %q", tc.name, tc.input)
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	s := NewOutputSanitizer()

	input := map[string]any{
		"api_key": "sk-abcdefghij0123456789",
		"body":    "token sk-abcdefghij0123456789 and ssn 123-45-6789",
		"nested": map[string]any{
			"password": "longpasswordvalue",
			"items":    []any{"card 4111 1111 1111 1111"},
		},
	}

	once := s.SanitizeValue(input)
	twice := s.SanitizeValue(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("sanitization not idempotent:\nonce:  %#v\ntwice: %#v", once, twice)
	}
}

func TestSanitizeValue_UnknownTypesPassThrough(t *testing.T) {
	s := NewOutputSanitizer()

	type custom struct{ X int }
	in := custom{X: 7}
	if got := s.SanitizeValue(in); got != in {
		t.Errorf("unknown type mutated: %v", got)
	}
	if got := s.SanitizeValue(nil); got != nil {
		t.Errorf("nil mutated: %v", got)
	}
	if got := s.SanitizeValue(3.14); got != 3.14 {
		t.Errorf("float mutated: %v", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("under-limit text mutated: %q", got)
	}
	long := strings.Repeat("x", 50)
	got := Truncate(long, 10)
	if !strings.HasPrefix(got, strings.Repeat("x", 10)) || !strings.HasSuffix(got, "… [TRUNCATED]") {
		t.Errorf("unexpected truncation: %q", got)
	}
	if got := Truncate(long, 0); got != long {
		t.Errorf("zero limit must disable truncation: %q", got)
	}
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	// Each é is two bytes; a 5-byte cut lands mid-rune and must back up.
	text := strings.Repeat("é", 10)
	got := Truncate(text, 5)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated text is not valid UTF-8: %q", got)
	}
	if !strings.HasPrefix(got, "éé") || strings.HasPrefix(got, "ééé") {
		t.Errorf("cut = %q, want exactly two runes before the marker", got)
	}
	if !strings.HasSuffix(got, "… [TRUNCATED]") {
		t.Errorf("marker missing: %q", got)
	}
}
