package sanitize

// stringTransform rewrites a single string value.
type stringTransform func(key, value string) string

// walk applies the transform to every string reachable through maps and
// slices, rebuilding the structure. Non-string leaves pass through
// unchanged. The key argument is the nearest enclosing map key, or "" at
// the top level and inside slices.
func walk(v any, key string, fn stringTransform) any {
	switch val := v.(type) {
	case string:
		return fn(key, val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = walk(item, k, fn)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = walk(item, "", fn)
		}
		return out
	default:
		return v
	}
}
