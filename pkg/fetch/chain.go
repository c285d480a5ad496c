package fetch

import (
	"context"

	"go.uber.org/zap"
)

// Chain tries fetchers in priority order, returning the first usable
// result. When every fetcher fails, it returns a sentinel Result with
// Status 0 rather than an error, so callers always get a Result.
type Chain struct {
	fetchers []Fetcher
}

// NewChain creates a Chain. Fetchers are tried in the given order.
func NewChain(fetchers ...Fetcher) *Chain {
	return &Chain{fetchers: fetchers}
}

func (c *Chain) Name() string { return "chain" }

// Fetch tries each fetcher in order. A blocked result from one fetcher
// falls through to the next (the next strategy may get past the block);
// the first blocked result is kept as a fallback so BLOCKED surfaces
// when nothing succeeds.
func (c *Chain) Fetch(ctx context.Context, url string) (*Result, error) {
	var blocked *Result

	for _, f := range c.fetchers {
		res, err := f.Fetch(ctx, url)
		if err != nil {
			zap.L().Debug("fetch: strategy failed, trying next",
				zap.String("fetcher", f.Name()),
				zap.String("url", url),
				zap.Error(err),
			)
			continue
		}
		if res == nil {
			continue
		}
		if res.Blocked {
			if blocked == nil {
				blocked = res
			}
			continue
		}
		if res.Status > 0 {
			return res, nil
		}
	}

	if blocked != nil {
		return blocked, nil
	}
	return &Result{Source: c.Name()}, nil
}
