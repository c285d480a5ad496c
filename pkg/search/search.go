// Package search defines the web-search provider contract and a closed
// set of implementations selected by configuration.
package search

import (
	"context"
	"errors"
)

// Result is one search hit.
type Result struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Provider executes web searches. Implementations return an empty slice
// on zero results rather than an error. Rate limiting surfaces as
// ErrRateLimited so callers can back off instead of failing the row.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Name() string
}

// ErrRateLimited signals provider throttling (HTTP 429 or quota errors).
var ErrRateLimited = errors.New("search: provider rate limited")
