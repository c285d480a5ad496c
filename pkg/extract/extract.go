// Package extract parses fetched HTML into the structured page content
// the evidence extractor consumes.
package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Links partitions a page's outbound anchors.
type Links struct {
	Internal []string `json:"internal,omitempty"`
	External []string `json:"external,omitempty"`
	Contact  []string `json:"contact,omitempty"`
	Privacy  []string `json:"privacy,omitempty"`
}

// PageContent is the structured view of one fetched page.
type PageContent struct {
	Text           string   `json:"text"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Links          Links    `json:"links"`
	StructuredData []string `json:"structured_data,omitempty"` // raw JSON-LD blocks
	RawHTML        string   `json:"-"`                         // kept for pattern scanning
}

// Extractor parses raw HTML relative to a base URL.
type Extractor interface {
	Extract(rawHTML, baseURL string) *PageContent
}

// HTMLExtractor is the default Extractor built on x/net/html. Parse
// failures degrade to an empty PageContent; it never fails.
type HTMLExtractor struct{}

// New creates an HTMLExtractor.
func New() *HTMLExtractor {
	return &HTMLExtractor{}
}

var contactWords = []string{"contatti", "contact", "dove-siamo", "dove_siamo", "contattaci"}
var privacyWords = []string{"privacy", "cookie-policy", "informativa"}

// Extract parses rawHTML and partitions its content.
func (e *HTMLExtractor) Extract(rawHTML, baseURL string) *PageContent {
	pc := &PageContent{RawHTML: rawHTML}

	base, _ := url.Parse(baseURL)
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return pc
	}

	var text strings.Builder
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, skip bool) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script":
				if attrVal(n, "type") == "application/ld+json" {
					if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
						pc.StructuredData = append(pc.StructuredData, n.FirstChild.Data)
					}
				}
				skip = true
			case "style", "noscript":
				skip = true
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					pc.Title = strings.TrimSpace(n.FirstChild.Data)
				}
				skip = true
			case "meta":
				if strings.EqualFold(attrVal(n, "name"), "description") {
					pc.Description = attrVal(n, "content")
				}
			case "a":
				e.addLink(pc, base, attrVal(n, "href"))
			}
		case html.TextNode:
			if !skip {
				if t := strings.TrimSpace(n.Data); t != "" {
					text.WriteString(t)
					text.WriteByte(' ')
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}
	}
	walk(doc, false)

	pc.Text = strings.TrimSpace(text.String())
	return pc
}

// addLink resolves href against the base and files it into the right
// partition. Fragment-only and non-http links are dropped.
func (e *HTMLExtractor) addLink(pc *PageContent, base *url.URL, href string) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") {
		return
	}

	u, err := url.Parse(href)
	if err != nil {
		return
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return
	}

	abs := u.String()
	lower := strings.ToLower(abs)

	for _, w := range contactWords {
		if strings.Contains(lower, w) {
			pc.Links.Contact = append(pc.Links.Contact, abs)
		}
	}
	for _, w := range privacyWords {
		if strings.Contains(lower, w) {
			pc.Links.Privacy = append(pc.Links.Privacy, abs)
		}
	}

	if base != nil && strings.EqualFold(u.Hostname(), base.Hostname()) {
		pc.Links.Internal = append(pc.Links.Internal, abs)
	} else {
		pc.Links.External = append(pc.Links.External, abs)
	}
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
