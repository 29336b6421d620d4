package recorder

import (
	"fmt"

	"sentry-hq/conduit/pkg/comm"
)

// maxFreeTextChars bounds free-text parameters in request summaries.
const maxFreeTextChars = 200

// identityParams are copied into the request summary verbatim.
var identityParams = []string{"url", "query", "feed_url", "to", "channel"}

// freeTextParams are truncated before entering the request summary.
var freeTextParams = []string{"body", "content", "message"}

// metadataWhitelist is the response metadata subset kept in summaries.
var metadataWhitelist = []string{"content_type", "content_length", "status_code"}

// BuildRequestSummary extracts the whitelisted view of a request's
// parameters. Everything else in params is dropped.
func BuildRequestSummary(req *comm.CommunicationRequest) map[string]any {
	summary := map[string]any{}
	for _, key := range identityParams {
		if v, ok := req.Params[key]; ok && v != nil {
			summary[key] = v
		}
	}
	for _, key := range freeTextParams {
		if v, ok := req.Params[key]; ok {
			if s, isStr := v.(string); isStr {
				summary[key] = truncate(s)
			}
		}
	}
	return summary
}

// BuildResponseSummary digests a response: status, error, whitelisted
// metadata, and a has_data marker with the payload's type name. The
// payload itself never enters the summary.
func BuildResponseSummary(resp *comm.CommunicationResponse) map[string]any {
	summary := map[string]any{
		"status":   string(resp.Status),
		"has_data": resp.Data != nil,
	}
	if resp.Error != "" {
		summary["error"] = resp.Error
	}
	if resp.Data != nil {
		summary["data_type"] = fmt.Sprintf("%T", resp.Data)
	}
	for _, key := range metadataWhitelist {
		if v, ok := resp.Metadata[key]; ok && v != nil {
			summary[key] = v
		}
	}
	return summary
}

func truncate(s string) string {
	if len(s) <= maxFreeTextChars {
		return s
	}
	return s[:maxFreeTextChars] + "…"
}
