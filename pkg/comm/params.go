package comm

import (
	"encoding/json"
	"fmt"
)

// StringParam returns the string value for key, or "" if the key is absent
// or not a string.
func StringParam(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

// IntParam returns the integer value for key. JSON decoding produces
// float64 for numbers, so both int and float64 are accepted.
func IntParam(params map[string]any, key string, def int) int {
	if params == nil {
		return def
	}
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// BoolParam returns the boolean value for key, or def if absent.
func BoolParam(params map[string]any, key string, def bool) bool {
	if params == nil {
		return def
	}
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

// StringMapParam returns the string-to-string mapping for key. JSON
// decoding produces map[string]any, so non-string values are dropped.
// Absent or differently-typed keys yield nil.
func StringMapParam(params map[string]any, key string) map[string]string {
	if params == nil {
		return nil
	}
	raw, ok := params[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// DecodeParams unmarshals a parameter mapping into a typed struct via JSON
// round-tripping. Connector handlers use this to declare their required
// fields as small structs instead of poking at the map directly.
func DecodeParams(params map[string]any, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

// RequireParams verifies that every named key is present and non-empty
// (for string values). It returns the first missing key, or "" if all are
// present.
func RequireParams(params map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := params[key]
		if !ok || v == nil {
			return key
		}
		if s, isStr := v.(string); isStr && s == "" {
			return key
		}
	}
	return ""
}
