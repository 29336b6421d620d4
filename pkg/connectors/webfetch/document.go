package webfetch

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"sentry-hq/conduit/pkg/comm"
)

// DocumentContent is the content block of a fetched document.
// PublishDate and Author are pointers so pages that carry neither emit
// JSON null rather than an empty string.
type DocumentContent struct {
	Title       string    `json:"title"`
	PublishDate *string   `json:"publish_date"`
	Author      *string   `json:"author"`
	BodyText    string    `json:"body_text"`
	Sections    []Section `json:"sections"`
	References  []string  `json:"references"`
}

// DocumentMetadata is the provenance block of a fetched document.
type DocumentMetadata struct {
	FetchedAt     string `json:"fetched_at"`
	ContentHash   string `json:"content_hash"`
	StatusCode    int    `json:"status_code"`
	ContentType   string `json:"content_type"`
	ContentLength int64  `json:"content_length"`
}

// Document is the structured artifact a successful fetch produces. It is
// descriptive only: it carries what was fetched and from where, never
// any analysis of it.
type Document struct {
	Type         string           `json:"type"`
	TrustTier    comm.TrustTier   `json:"trust_tier"`
	URL          string           `json:"url"`
	SourceDomain string           `json:"source_domain"`
	Content      DocumentContent  `json:"content"`
	Metadata     DocumentMetadata `json:"metadata"`
}

// BuildDocument assembles the fetched_document artifact from a fetch
// result. The content hash is the SHA-256 of the extracted body text,
// so re-fetches of unchanged pages hash identically regardless of
// volatile markup.
func BuildDocument(res *FetchResult, extracted *ExtractedContent, tier comm.TrustTier, fetchedAt time.Time) *Document {
	if extracted == nil {
		extracted = &ExtractedContent{Sections: []Section{}, References: []string{}}
	}
	sum := sha256.Sum256([]byte(extracted.Text))

	return &Document{
		Type:         "fetched_document",
		TrustTier:    tier,
		URL:          res.URL,
		SourceDomain: domainOf(res.FinalURL),
		Content: DocumentContent{
			Title:       extracted.Title,
			PublishDate: optString(extracted.PublishDate),
			Author:      optString(extracted.Author),
			BodyText:    extracted.Text,
			Sections:    extracted.Sections,
			References:  extracted.References,
		},
		Metadata: DocumentMetadata{
			FetchedAt:     comm.FormatTimestamp(fetchedAt),
			ContentHash:   hex.EncodeToString(sum[:]),
			StatusCode:    res.StatusCode,
			ContentType:   res.ContentType,
			ContentLength: res.ContentLength,
		},
	}
}

// optString maps "" to nil so absent fields serialize as null.
func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
