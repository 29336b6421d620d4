// Package health aggregates component health for the gateway's probe
// endpoints.
//
// The Checker runs named check functions concurrently with a per-check
// timeout. RegisterConnectors wires every registered connector that can
// probe its back-end; RegisterStorage wires the evidence database.
// LivenessHandler and ReadinessHandler serve the results for probes.
package health
