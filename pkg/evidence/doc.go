// Package evidence provides the tamper-evident audit trail for every
// communication request the gateway mediates.
//
// # Records
//
// One EvidenceRecord exists per request, keyed by the unique request ID.
// The record is created when the request enters the pipeline and updated
// as it progresses; connector kind, operation, request summary, and
// created_at are immutable after insert, while response summary, status,
// and metadata follow the request to its terminal state.
//
// # Summaries, Never Payloads
//
// The store never holds full request or response payloads. Request
// summaries keep only whitelisted parameter keys with long text
// truncated; response summaries keep status, error, and a whitelisted
// metadata subset plus a has_data marker. See the recorder subpackage.
//
// # Storage
//
// The Storage interface has a durable SQLite implementation (storage
// subpackage) used in production and an in-memory implementation for
// tests and ephemeral deployments. Export and retention are layered on
// top in their own subpackages.
package evidence
