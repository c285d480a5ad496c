// Package fetch provides the page-fetching contract, an HTTP
// implementation with retry, and an ordered fallback chain.
package fetch

import "context"

// Result is the outcome of fetching one URL. A zero Status means every
// strategy was exhausted; fetchers do not return an error for that.
type Result struct {
	Status   int
	Content  string
	FinalURL string
	Blocked  bool
	Block    BlockType
	Source   string // which fetcher produced the result
}

// Fetcher retrieves a single URL. Implementations handle their own
// retry/backoff; a nil error with Status 0 means "gave up cleanly".
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Result, error)
	Name() string
}
