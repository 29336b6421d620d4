// Package recorder turns communication requests and responses into the
// bounded summaries the evidence store persists.
//
// # Whitelisting
//
// Request summaries keep only the parameter keys that identify what was
// attempted (url, query, feed_url, to, channel); free-text parameters
// (body, content, message) are truncated to 200 characters. Response
// summaries keep the status, the error, a whitelisted metadata subset,
// and a has_data marker — never the payload itself.
//
// # Lifecycle
//
// Begin writes the initial PENDING row before any policy decision, so
// even a request the pipeline rejects leaves a trace. Update and
// Complete upsert the same row as the request progresses.
package recorder
