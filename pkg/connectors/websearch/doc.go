// Package websearch implements the web_search connector: driver-based
// engine dispatch, result normalization and deduplication, and the
// priority scorer that ranks results by URL structure alone.
//
// Search results are candidate links, never verified content. The
// connector therefore emits no analytical fields: every item is exactly
// title, url, snippet, domain, priority_score, and priority_reasons.
package websearch
