// Package policy implements the deterministic policy evaluator at the
// heart of the gateway pipeline.
//
// # Hard Rules
//
// Two rules are evaluated before anything a policy could configure, so a
// misconfigured policy can never re-open them:
//
//  1. Outbound connector kinds are denied outright during the planning
//     phase (OUTBOUND_FORBIDDEN_IN_PLANNING).
//  2. Outbound connector kinds without a non-empty approval token escalate
//     to REQUIRE_ADMIN (OUTBOUND_REQUIRES_APPROVAL).
//
// The remaining rules come from the per-connector-kind policy: operation
// allow-list, blocked/allowed domain sets, the SSRF guard, and an
// optional per-policy approval requirement. First match wins; every
// verdict carries a stable machine-readable reason code.
//
// # Registry
//
// Policies live in a process-wide read-optimized registry keyed by
// connector kind; mutation happens only through the admin surface.
package policy
