package logging

import "context"

type contextKey string

const (
	requestIDKey     contextKey = "request_id"
	sessionIDKey     contextKey = "session_id"
	taskIDKey        contextKey = "task_id"
	connectorKindKey contextKey = "connector_kind"
)

// WithRequestID stores the gateway request id in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithSessionID stores the agent session id in the context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// WithTaskID stores the agent task id in the context.
func WithTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, taskIDKey, id)
}

// WithConnectorKind stores the connector kind in the context.
func WithConnectorKind(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, connectorKindKey, kind)
}

// FieldsFromContext returns the correlation fields the context carries,
// as a slog key-value argument list. Absent fields are omitted.
func FieldsFromContext(ctx context.Context) []any {
	var fields []any
	for _, key := range []contextKey{requestIDKey, sessionIDKey, taskIDKey, connectorKindKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			fields = append(fields, string(key), v)
		}
	}
	return fields
}
