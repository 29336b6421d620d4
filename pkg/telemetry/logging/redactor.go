package logging

import (
	"log/slog"
	"regexp"

	"sentry-hq/conduit/pkg/sanitize"
)

// logPatterns extends the sanitizer's credential patterns with shapes
// that show up in log attributes specifically.
var logPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-.]+`),
	regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
}

// Redactor masks credentials and personal identifiers in log attributes.
// Key-based masking reuses the output sanitizer's sensitive-key set so
// logs and evidence agree on what counts as a secret.
type Redactor struct{}

// NewRedactor creates a redactor.
func NewRedactor() *Redactor {
	return &Redactor{}
}

// RedactArgs rewrites a slog key-value argument list in place-order,
// masking values under sensitive keys and credential-shaped strings
// anywhere.
func (r *Redactor) RedactArgs(args []any) []any {
	out := make([]any, len(args))
	copy(out, args)

	for i := 0; i < len(out); i++ {
		switch v := out[i].(type) {
		case slog.Attr:
			out[i] = r.redactAttr(v)
		case string:
			// A string at an even position is a key; redact the value
			// that follows it.
			if i+1 < len(out) && i%2 == 0 {
				out[i+1] = r.redactValue(v, out[i+1])
				i++
			}
		}
	}
	return out
}

func (r *Redactor) redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, r.redactString(a.Key, a.Value.String()))
	}
	if sanitize.IsSensitiveKey(a.Key) {
		return slog.String(a.Key, "****")
	}
	return a
}

func (r *Redactor) redactValue(key string, v any) any {
	if s, ok := v.(string); ok {
		return r.redactString(key, s)
	}
	if sanitize.IsSensitiveKey(key) {
		return "****"
	}
	return v
}

func (r *Redactor) redactString(key, value string) string {
	if sanitize.IsSensitiveKey(key) {
		return sanitize.RedactValue(value)
	}
	for _, re := range logPatterns {
		value = re.ReplaceAllStringFunc(value, sanitize.RedactValue)
	}
	return value
}
