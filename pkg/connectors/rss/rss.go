// Package rss implements the rss connector: guarded retrieval and
// parsing of RSS/Atom feeds into a bounded, uniform item list.
package rss

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/connectors"
)

// OpFetch is the only operation the connector supports.
const OpFetch = "fetch"

// DefaultMaxItems caps a feed when the request does not specify a limit.
const DefaultMaxItems = 20

// Item is one normalized feed entry.
type Item struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published,omitempty"`
	Author    string `json:"author,omitempty"`
	Summary   string `json:"summary,omitempty"`
}

// FeedResult is the connector's response envelope.
type FeedResult struct {
	FeedURL     string `json:"feed_url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Items       []Item `json:"items"`
	TotalItems  int    `json:"total_items"`
}

// Connector is the rss connector. Feed URLs pass through the same SSRF
// guard as web fetches.
type Connector struct {
	connectors.Base
	client *connectors.SafeClient
	parser *gofeed.Parser
}

// New creates the rss connector.
func New(client *connectors.SafeClient) *Connector {
	return &Connector{
		Base:   connectors.NewBase(comm.KindRSS, OpFetch),
		client: client,
		parser: gofeed.NewParser(),
	}
}

// Execute implements connectors.Connector.
func (c *Connector) Execute(ctx context.Context, operation string, params map[string]any) (any, error) {
	if operation != OpFetch {
		return nil, connectors.NewUnsupportedOperationError(c.Kind(), operation)
	}

	feedURL := strings.TrimSpace(comm.StringParam(params, "feed_url"))
	if feedURL == "" {
		return nil, connectors.NewMissingParamError(c.Kind(), "feed_url")
	}
	maxItems := comm.IntParam(params, "max_items", DefaultMaxItems)
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	resp, err := c.client.Get(ctx, feedURL)
	if err != nil {
		return nil, connectors.NewExecutionError(c.Kind(), OpFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, connectors.NewExecutionError(c.Kind(), OpFetch,
			fmt.Errorf("feed returned status %d", resp.StatusCode))
	}

	feed, err := c.parser.Parse(resp.Body)
	if err != nil {
		return nil, connectors.NewExecutionError(c.Kind(), OpFetch,
			fmt.Errorf("failed to parse feed: %w", err))
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		if len(items) >= maxItems {
			break
		}
		item := Item{
			Title:   strings.TrimSpace(it.Title),
			Link:    strings.TrimSpace(it.Link),
			Summary: strings.TrimSpace(it.Description),
		}
		if it.PublishedParsed != nil {
			item.Published = comm.FormatTimestamp(*it.PublishedParsed)
		} else {
			item.Published = strings.TrimSpace(it.Published)
		}
		if len(it.Authors) > 0 && it.Authors[0] != nil {
			item.Author = it.Authors[0].Name
		}
		items = append(items, item)
	}

	return &FeedResult{
		FeedURL:     feedURL,
		Title:       strings.TrimSpace(feed.Title),
		Description: strings.TrimSpace(feed.Description),
		Items:       items,
		TotalItems:  len(items),
	}, nil
}
