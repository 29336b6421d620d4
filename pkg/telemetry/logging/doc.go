// Package logging provides the gateway's structured logger: log/slog
// with JSON or text output, automatic credential redaction, and request
// correlation fields carried through context.
//
// # Redaction
//
// Every attribute passes through the Redactor before it reaches a
// handler. Values under sensitive key names (password, token, api_key,
// ...) are masked; free-form strings are scanned for credential-shaped
// content. Log output never carries a secret even when a call site
// passes one by mistake.
//
// # Context Fields
//
// Request-scoped identifiers travel in the context:
//
//	ctx = logging.WithRequestID(ctx, req.ID)
//	logger.InfoContext(ctx, "dispatching", "connector_kind", kind)
//
// InfoContext and friends prepend whatever identifiers the context
// carries, so every line of a request's trail correlates.
package logging
