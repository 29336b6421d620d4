// Package connectors defines the adapter interface between the gateway
// pipeline and concrete external-communication back-ends, plus the
// registry the orchestrator dispatches through.
//
// # Connector Interface
//
// A Connector executes named operations against one back-end class
// (web_fetch, web_search, rss, email_smtp, slack). Connectors receive
// already-sanitized, policy-approved parameters; they perform no policy
// decisions of their own beyond transport-level safety (the SSRF-guarded
// HTTP client).
//
// # Registry
//
// The registry is keyed by connector kind. Disabled connectors stay
// registered so the admin surface can re-enable them without rebuilding
// the wiring.
package connectors
