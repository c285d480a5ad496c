package model

// Provider identifies which mining strategy produced a candidate.
type Provider string

const (
	ProviderInput  Provider = "input_url"
	ProviderSearch Provider = "search"
	ProviderSeed   Provider = "seed_links"
)

// Candidate is a URL/domain hypothesized to be the official site.
// Created per mining pass, consumed by evidence and scoring, never
// persisted beyond the decision record's audit trail.
type Candidate struct {
	RootDomain string   `json:"root_domain"`
	SourceURL  string   `json:"source_url"`
	Rank       int      `json:"rank"` // lower = earlier / more trusted source
	Provider   Provider `json:"provider"`
	Title      string   `json:"title,omitempty"`
	Snippet    string   `json:"snippet,omitempty"`
}
