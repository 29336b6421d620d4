package websearch

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/connectors"
)

// OpSearch is the only operation the connector supports.
const OpSearch = "search"

// DefaultMaxResults caps a search when the request does not specify one.
const DefaultMaxResults = 10

// RawResult is one record as a driver returns it, before normalization.
type RawResult struct {
	Title   string
	URL     string
	Snippet string
}

// Driver runs a query against one search engine back-end.
type Driver interface {
	// Name identifies the engine in results and evidence.
	Name() string

	// Search returns raw records in engine order.
	Search(ctx context.Context, query string, maxResults int) ([]RawResult, error)
}

// Result is one normalized, scored search result. It carries no
// analytical fields: scoring reasons describe URL structure, never
// content.
type Result struct {
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	Snippet         string   `json:"snippet"`
	Domain          string   `json:"domain"`
	PriorityScore   int      `json:"priority_score"`
	PriorityReasons []string `json:"priority_reasons"`
}

// SearchResult is the connector's response envelope.
type SearchResult struct {
	Query        string   `json:"query"`
	Results      []Result `json:"results"`
	TotalResults int      `json:"total_results"`
	Engine       string   `json:"engine"`
}

// Searcher is the web_search connector.
type Searcher struct {
	connectors.Base
	driver Driver
	scorer *Scorer
}

// New creates the web_search connector around one engine driver.
func New(driver Driver, scorer *Scorer) *Searcher {
	return &Searcher{
		Base:   connectors.NewBase(comm.KindWebSearch, OpSearch),
		driver: driver,
		scorer: scorer,
	}
}

// Execute implements connectors.Connector.
func (s *Searcher) Execute(ctx context.Context, operation string, params map[string]any) (any, error) {
	if operation != OpSearch {
		return nil, connectors.NewUnsupportedOperationError(s.Kind(), operation)
	}

	query := strings.TrimSpace(comm.StringParam(params, "query"))
	if query == "" {
		return nil, connectors.NewMissingParamError(s.Kind(), "query")
	}
	maxResults := comm.IntParam(params, "max_results", DefaultMaxResults)
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	raw, err := s.driver.Search(ctx, query, maxResults)
	if err != nil {
		return nil, connectors.NewExecutionError(s.Kind(), OpSearch, err)
	}

	results := s.normalize(raw)

	// Stable sort keeps engine order among equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PriorityScore > results[j].PriorityScore
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	return &SearchResult{
		Query:        query,
		Results:      results,
		TotalResults: len(results),
		Engine:       s.driver.Name(),
	}, nil
}

// normalize validates, deduplicates, and scores raw records, preserving
// engine order.
func (s *Searcher) normalize(raw []RawResult) []Result {
	results := make([]Result, 0, len(raw))
	seen := map[string]bool{}

	for _, r := range raw {
		u, err := url.Parse(strings.TrimSpace(r.URL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
			continue
		}

		key := dedupeKey(u)
		if seen[key] {
			continue
		}
		seen[key] = true

		score := s.scorer.Score(r.URL, r.Snippet)
		results = append(results, Result{
			Title:           strings.TrimSpace(r.Title),
			URL:             r.URL,
			Snippet:         strings.TrimSpace(r.Snippet),
			Domain:          strings.ToLower(u.Hostname()),
			PriorityScore:   score.Total,
			PriorityReasons: score.Reasons,
		})
	}
	return results
}

// dedupeKey lowercases the URL, strips the trailing slash, and ignores
// the query string, so trivial variants collapse to one entry.
func dedupeKey(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	path := strings.TrimSuffix(strings.ToLower(u.Path), "/")
	return host + path
}
