// Package comm defines the core data model shared by every stage of the
// communication gateway pipeline: requests, responses, connector kinds,
// request statuses, trust tiers, and reason codes.
//
// # Request Lifecycle
//
// A CommunicationRequest is created by the orchestrator when a caller asks
// for an external operation. It flows through mode checking, parameter
// validation, risk assessment, policy evaluation, rate limiting,
// sanitization, and connector dispatch. Every admitted request finishes as
// exactly one evidence record and exactly one CommunicationResponse.
//
// # Status State Machine
//
//	PENDING → APPROVED | DENIED | REQUIRE_ADMIN
//	APPROVED → IN_PROGRESS → SUCCESS | FAILED | RATE_LIMITED
//
// Terminal states are SUCCESS, FAILED, DENIED, REQUIRE_ADMIN, and
// RATE_LIMITED.
//
// # Timestamps
//
// All timestamps are UTC. Storage uses epoch-milliseconds; JSON transport
// uses ISO-8601 with a trailing "Z".
package comm
