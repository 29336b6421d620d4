package sanitize

import (
	"html"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

// injectionPatterns is the curated set of injection fragments stripped
// from inbound strings. Matches are removed, not replaced.
var injectionPatterns = []*regexp.Regexp{
	// SQL keywords
	regexp.MustCompile(`(?i)\b(select|insert|update|delete|drop|union|alter|create|exec|truncate)\b`),
	// SQL comment sequences
	regexp.MustCompile(`--|/\*|\*/`),
	// Shell metacharacters and substitution
	regexp.MustCompile("[;&|`]|\\$\\(|\\$\\{"),
	// Script injection
	regexp.MustCompile(`(?i)<\s*/?\s*script[^>]*>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
}

// InputSanitizer strips injection fragments from request parameters
// before they reach a connector.
type InputSanitizer struct{}

// NewInputSanitizer creates the input sanitizer.
func NewInputSanitizer() *InputSanitizer {
	return &InputSanitizer{}
}

// SanitizeParams returns a sanitized copy of the parameter structure.
// Every reachable string is cleaned; other value types pass through
// unchanged.
func (s *InputSanitizer) SanitizeParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out, _ := walk(params, "", func(_, value string) string {
		return s.SanitizeString(value)
	}).(map[string]any)
	return out
}

// SanitizeString removes injection fragments, HTML-escapes the residual
// string, and trims surrounding whitespace.
func (s *InputSanitizer) SanitizeString(value string) string {
	for _, re := range injectionPatterns {
		value = re.ReplaceAllString(value, "")
	}
	value = html.EscapeString(value)
	return strings.TrimSpace(value)
}

// ValidateEmail reports whether the address parses as a single RFC 5322
// address.
func ValidateEmail(address string) bool {
	if address == "" {
		return false
	}
	addr, err := mail.ParseAddress(address)
	return err == nil && addr.Address == address
}

// ValidateURL reports whether the value is an absolute http or https URL
// with a host.
func ValidateURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
