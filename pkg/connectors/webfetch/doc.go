// Package webfetch implements the web_fetch connector: guarded HTTP
// retrieval with size and timeout enforcement, bounded HTML content
// extraction, and the structured fetched_document artifact downstream
// consumers ingest.
package webfetch
