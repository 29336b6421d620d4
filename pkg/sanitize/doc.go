// Package sanitize provides the regex-driven input and output filters of
// the gateway pipeline.
//
// The input sanitizer strips SQL, shell, and script injection fragments
// from every string reachable through a parameter structure, then
// HTML-escapes and trims the residual text.
//
// The output sanitizer redacts credential-shaped values both by key name
// (api_key, password, token, ...) and by content pattern (API keys, long
// tokens, credit cards, SSNs), and truncates oversized payloads.
//
// Both sanitizers traverse nested maps and slices recursively and pass
// through unknown value types unchanged; they never fail on unexpected
// input.
package sanitize
