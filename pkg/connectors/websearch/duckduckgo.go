package websearch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"sentry-hq/conduit/pkg/connectors"
)

// defaultDuckDuckGoEndpoint is the HTML (non-JS) results page.
const defaultDuckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGoDriver queries the DuckDuckGo HTML endpoint and scrapes the
// result list. It needs no API key.
type DuckDuckGoDriver struct {
	client   *connectors.SafeClient
	endpoint string
}

// NewDuckDuckGoDriver creates the driver. An empty endpoint selects the
// public HTML endpoint.
func NewDuckDuckGoDriver(client *connectors.SafeClient, endpoint string) *DuckDuckGoDriver {
	if endpoint == "" {
		endpoint = defaultDuckDuckGoEndpoint
	}
	return &DuckDuckGoDriver{client: client, endpoint: endpoint}
}

// Name implements Driver.
func (d *DuckDuckGoDriver) Name() string { return "duckduckgo" }

// Search implements Driver. Records come back in engine order; the
// connector handles scoring and truncation.
func (d *DuckDuckGoDriver) Search(ctx context.Context, query string, maxResults int) ([]RawResult, error) {
	target := d.endpoint + "?q=" + url.QueryEscape(query)

	resp, err := d.client.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("duckduckgo returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read results page: %w", err)
	}

	results := parseResultsPage(string(body))
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// parseResultsPage scrapes anchors with the result__a and result__snippet
// classes from the HTML results page.
func parseResultsPage(page string) []RawResult {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil
	}

	var results []RawResult
	var current *RawResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			classes := nodeAttr(n, "class")
			switch {
			case strings.Contains(classes, "result__a"):
				if current != nil && current.URL != "" {
					results = append(results, *current)
				}
				current = &RawResult{
					Title: strings.TrimSpace(nodeText(n)),
					URL:   resolveRedirect(nodeAttr(n, "href")),
				}
			case strings.Contains(classes, "result__snippet"):
				if current != nil {
					current.Snippet = strings.TrimSpace(nodeText(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if current != nil && current.URL != "" {
		results = append(results, *current)
	}
	return results
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect wrapper to the
// destination URL.
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Path, "/l/") || u.Path == "/l/" {
		if dest := u.Query().Get("uddg"); dest != "" {
			return dest
		}
	}
	return href
}

func nodeAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
