// Package metrics exposes the gateway's Prometheus instrumentation.
//
// The Collector owns its own registry and records the counters the
// operators alert on: requests by connector and outcome, policy denials
// by reason code, rate-limit rejections, SSRF blocks, and evidence
// write failures. Handler serves the registry over HTTP for scraping.
package metrics
