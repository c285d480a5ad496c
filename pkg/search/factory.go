package search

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/arpalab/resolvit/internal/config"
)

// New returns the provider named by configuration. The set is closed:
// "google", "bing", or "stub" (offline testing).
func New(cfg config.SearchConfig) (Provider, error) {
	switch cfg.Provider {
	case "google":
		opts := []Option{WithQPS(cfg.MaxQPS)}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		return NewGoogle(cfg.APIKey, cfg.EngineID, opts...), nil
	case "bing":
		var opts []BingOption
		if cfg.BaseURL != "" {
			opts = append(opts, WithBingBaseURL(cfg.BaseURL))
		}
		return NewBing(cfg.APIKey, opts...), nil
	case "stub":
		return NewStub(nil), nil
	default:
		return nil, eris.Errorf("search: unknown provider %q", cfg.Provider)
	}
}

// Stub is an offline provider returning canned results, keyed by query.
type Stub struct {
	results map[string][]Result
}

// NewStub creates a stub provider. A nil map yields zero results for
// every query.
func NewStub(results map[string][]Result) *Stub {
	return &Stub{results: results}
}

func (s *Stub) Name() string { return "stub" }

// Search returns the canned results for the query, never an error.
func (s *Stub) Search(_ context.Context, query string, limit int) ([]Result, error) {
	rs := s.results[query]
	if limit > 0 && len(rs) > limit {
		rs = rs[:limit]
	}
	return rs, nil
}

// Cached wraps a provider with a per-run query cache so escalating
// waves do not re-issue identical queries. Constructed once per batch
// run and passed by reference; never global.
type Cached struct {
	inner Provider
	mu    sync.Mutex
	hits  map[string]cacheEntry
}

// cacheEntry remembers the limit its results were fetched with. A later
// wave asking for more results than the entry was fetched with must
// re-query; serving the smaller set would freeze every wave at the
// first wave's search depth.
type cacheEntry struct {
	results []Result
	limit   int
}

// NewCached wraps prov with an in-memory query cache.
func NewCached(prov Provider) *Cached {
	return &Cached{inner: prov, hits: make(map[string]cacheEntry)}
}

func (c *Cached) Name() string { return c.inner.Name() }

// Search serves from the cache only when the cached entry was fetched
// with at least the requested limit, capping down as needed. Larger
// requests re-query and replace the entry. Errors are not cached.
func (c *Cached) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	c.mu.Lock()
	e, ok := c.hits[query]
	c.mu.Unlock()
	if ok && e.limit >= limit {
		rs := e.results
		if limit > 0 && len(rs) > limit {
			rs = rs[:limit]
		}
		return rs, nil
	}

	rs, err := c.inner.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.hits[query] = cacheEntry{results: rs, limit: limit}
	c.mu.Unlock()
	return rs, nil
}
