// Conduit is a mediated external-communication gateway for agent
// platforms.
//
// Every outbound request an agent makes passes through a policy engine,
// rate limiter, sanitizers, and an SSRF guard, and leaves a persistent
// evidence record behind:
//   - Per-connector policies with approval gates for outbound sends
//   - A global network mode switch (ON / READ_ONLY / OFF)
//   - Input and output sanitization with credential redaction
//   - A tamper-evident evidence trail in SQLite
//
// Usage:
//
//	# Start the gateway with built-in defaults
//	conduit serve
//
//	# Start with a configuration file
//	conduit serve --config /etc/conduit/config.yaml
//
//	# Inspect or flip the network mode
//	conduit mode get
//	conduit mode set READ_ONLY --by ops --reason "incident 4211"
//
//	# Work with the evidence store
//	conduit evidence stats
//	conduit evidence export --start 2026-08-01T00:00:00Z --out evidence.json
package main

func main() {
	Execute()
}
