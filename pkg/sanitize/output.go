package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// sensitiveKeySubstrings mark map keys whose values are credentials or
// regulated identifiers. Matching is case-insensitive substring.
var sensitiveKeySubstrings = []string{
	"api_key", "password", "token", "secret", "private_key", "ssn", "credit_card",
}

// credentialPatterns detect credential-shaped content inside free-form
// string values. The match is redacted in place.
var credentialPatterns = []*regexp.Regexp{
	// Provider-style API keys (sk-..., pk-..., key-...)
	regexp.MustCompile(`\b(?:sk|pk|key)-[A-Za-z0-9]{16,}\b`),
	// Long opaque tokens
	regexp.MustCompile(`\b[A-Za-z0-9_\-]{40,}\b`),
	// Credit card numbers
	regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`),
	// Social security numbers
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
}

// redactionCap bounds the number of mask characters so redacted values
// stay short regardless of input length.
const redactionCap = 20

// OutputSanitizer redacts credentials and PII from connector results
// before they are returned to the caller or summarized into evidence.
type OutputSanitizer struct{}

// NewOutputSanitizer creates the output sanitizer.
func NewOutputSanitizer() *OutputSanitizer {
	return &OutputSanitizer{}
}

// SanitizeValue returns a redacted copy of an arbitrary value tree.
// Redaction is idempotent: sanitizing an already-sanitized value yields
// the same result.
func (s *OutputSanitizer) SanitizeValue(v any) any {
	return walk(v, "", func(key, value string) string {
		if IsSensitiveKey(key) {
			return RedactValue(value)
		}
		return s.redactPatterns(value)
	})
}

// SanitizeMap is SanitizeValue specialized for a string-keyed mapping.
func (s *OutputSanitizer) SanitizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out, _ := s.SanitizeValue(m).(map[string]any)
	return out
}

// redactPatterns replaces every credential-shaped match in place.
// SHA-256 hex digests are exempt: they carry no secret material and the
// evidence pipeline depends on content hashes staying intact.
func (s *OutputSanitizer) redactPatterns(value string) string {
	for _, re := range credentialPatterns {
		value = re.ReplaceAllStringFunc(value, func(match string) string {
			if isHexDigest(match) {
				return match
			}
			return RedactValue(match)
		})
	}
	return value
}

// isHexDigest reports whether s is a 64-character lowercase hex string.
func isHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// IsSensitiveKey reports whether a map key names a credential field.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sub := range sensitiveKeySubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// RedactValue masks a credential value, preserving the first 4 characters
// and replacing the remainder (capped at 20 characters) with '*'.
// Values of 4 characters or fewer are fully masked.
func RedactValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	masked := len(value) - 4
	if masked > redactionCap {
		masked = redactionCap
	}
	return value[:4] + strings.Repeat("*", masked)
}

// Truncate cuts text to at most maxBytes, appending a truncation marker
// when the limit is exceeded. The cut backs up to a rune boundary so the
// result is always valid UTF-8.
func Truncate(text string, maxBytes int) string {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return text
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "… [TRUNCATED]"
}
