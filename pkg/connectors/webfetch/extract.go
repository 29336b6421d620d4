package webfetch

import (
	"strings"

	"golang.org/x/net/html"
)

// Extraction bounds. Content beyond these limits is dropped, not
// truncated mid-entity.
const (
	maxTextChars  = 10000
	maxHTMLChars  = 5000
	maxLinks      = 50
	maxImages     = 20
	maxSections   = 20
	maxReferences = 30
)

// Section is one heading-delimited block of page text.
type Section struct {
	Heading string `json:"heading"`
	Text    string `json:"text"`
}

// Link is one anchor found in the page body.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Image is one img element found in the page body.
type Image struct {
	Alt string `json:"alt"`
	URL string `json:"url"`
}

// ExtractedContent is the bounded structural summary of an HTML page.
type ExtractedContent struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Author      string    `json:"author,omitempty"`
	PublishDate string    `json:"publish_date,omitempty"`
	Text        string    `json:"text"`
	HTML        string    `json:"html"`
	Sections    []Section `json:"sections"`
	Links       []Link    `json:"links"`
	Images      []Image   `json:"images"`
	References  []string  `json:"references"`
}

// ExtractHTML parses raw HTML and produces a bounded ExtractedContent.
// Parsing is forgiving: malformed markup yields whatever structure the
// tokenizer can recover, never an error.
func ExtractHTML(raw string) *ExtractedContent {
	out := &ExtractedContent{
		Sections:   []Section{},
		Links:      []Link{},
		Images:     []Image{},
		References: []string{},
	}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return out
	}

	if len(raw) > maxHTMLChars {
		out.HTML = raw[:maxHTMLChars]
	} else {
		out.HTML = raw
	}

	seenRefs := map[string]bool{}
	var text strings.Builder
	var section *Section
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			case "title":
				if out.Title == "" {
					out.Title = strings.TrimSpace(textOf(n))
				}
				return
			case "meta":
				harvestMeta(n, out)
				return
			case "h1", "h2", "h3":
				if section != nil && len(out.Sections) < maxSections {
					out.Sections = append(out.Sections, *section)
				}
				section = &Section{Heading: strings.TrimSpace(textOf(n))}
				return
			case "a":
				href := attr(n, "href")
				if href != "" && len(out.Links) < maxLinks {
					out.Links = append(out.Links, Link{
						Text: strings.TrimSpace(textOf(n)),
						URL:  href,
					})
				}
				if isReference(href) && !seenRefs[href] && len(out.References) < maxReferences {
					seenRefs[href] = true
					out.References = append(out.References, href)
				}
			case "img":
				if src := attr(n, "src"); src != "" && len(out.Images) < maxImages {
					out.Images = append(out.Images, Image{Alt: attr(n, "alt"), URL: src})
				}
			}
		case html.TextNode:
			t := strings.TrimSpace(n.Data)
			if t != "" {
				if text.Len() > 0 {
					text.WriteByte(' ')
				}
				text.WriteString(t)
				if section != nil {
					if section.Text != "" {
						section.Text += " "
					}
					section.Text += t
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if section != nil && len(out.Sections) < maxSections {
		out.Sections = append(out.Sections, *section)
	}

	body := text.String()
	if len(body) > maxTextChars {
		body = body[:maxTextChars]
	}
	out.Text = body
	return out
}

// harvestMeta reads description, author, and publish-date meta tags.
func harvestMeta(n *html.Node, out *ExtractedContent) {
	name := strings.ToLower(attr(n, "name"))
	prop := strings.ToLower(attr(n, "property"))
	content := strings.TrimSpace(attr(n, "content"))
	if content == "" {
		return
	}
	switch {
	case name == "description" || prop == "og:description":
		if out.Description == "" {
			out.Description = content
		}
	case name == "author" || prop == "article:author":
		if out.Author == "" {
			out.Author = content
		}
	case prop == "article:published_time" || name == "date" || name == "publish-date":
		if out.PublishDate == "" {
			out.PublishDate = content
		}
	}
}

// isReference reports whether the href is an absolute link worth keeping
// as a citation.
func isReference(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}

func textOf(n *html.Node) string {
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

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
