// Package service is the gateway orchestrator: the single entry point
// through which every external communication attempt flows.
//
// # Pipeline
//
// Execute runs a fixed stage order for each request:
//
//  1. Generate an opaque request id and open the evidence record
//  2. Network-mode check (OFF denies all, READ_ONLY denies writes)
//  3. Connector-specific required-parameter validation
//  4. Risk assessment from connector kind and operation verbs
//  5. Policy evaluation (hard outbound rules, domains, SSRF)
//  6. Rate-limit admission on the connector-kind key
//  7. Input sanitization when the policy asks for it
//  8. Connector dispatch under the policy timeout
//  9. Output sanitization and response-size truncation
//  10. Evidence completion with trust tier and summaries
//
// A failure at any stage short-circuits to an error response. The
// evidence record is completed on every path, denials included.
//
// # Concurrency
//
// A Service is safe for concurrent use. It owns no mutable state of its
// own; every stage delegates to a component that carries its own
// synchronization. Requests are independent: the only cross-request
// ordering is what the rate limiter and the evidence store impose.
package service
