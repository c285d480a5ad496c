package mine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arpalab/resolvit/internal/config"
	"github.com/arpalab/resolvit/internal/model"
	"github.com/arpalab/resolvit/pkg/search"
)

// Miner turns a normalized entity into ranked URL candidates by search,
// direct input URL, and seed-page links.
type Miner struct {
	provider  search.Provider
	blacklist *Blacklist
	cfg       config.CrawlConfig
}

// NewMiner creates a Miner around the given search provider.
func NewMiner(provider search.Provider, blacklist *Blacklist, cfg config.CrawlConfig) *Miner {
	return &Miner{
		provider:  provider,
		blacklist: blacklist,
		cfg:       cfg,
	}
}

// Mine produces candidates for the entity. The primary query is
// `"name" city`; the "sito ufficiale" fallback query runs only when the
// primary yields zero usable candidates. A directly supplied input URL
// always joins with rank 0. Provider rate limiting is propagated so the
// orchestrator can slow down; it never fails the row silently.
func (m *Miner) Mine(ctx context.Context, e model.Entity, seedLinks []string) ([]model.Candidate, error) {
	var out []model.Candidate

	if e.SourceURL != "" {
		if dom := RootDomain(e.SourceURL); dom != "" && !m.blacklist.Blocked(dom) {
			out = append(out, model.Candidate{
				RootDomain: dom,
				SourceURL:  e.SourceURL,
				Rank:       0,
				Provider:   model.ProviderInput,
			})
		}
	}

	fromSearch, err := m.searchCandidates(ctx, e)
	if err != nil {
		if errors.Is(err, search.ErrRateLimited) {
			return out, err
		}
		zap.L().Warn("mine: search failed",
			zap.String("company", e.CompanyName),
			zap.Error(err),
		)
	}
	out = append(out, fromSearch...)

	out = append(out, m.seedCandidates(seedLinks, len(out))...)

	return out, nil
}

// searchCandidates runs the primary query and, only on zero usable
// results, the escalation query.
func (m *Miner) searchCandidates(ctx context.Context, e model.Entity) ([]model.Candidate, error) {
	primary := fmt.Sprintf("%q %s", e.CompanyName, e.City)
	cands, err := m.runQuery(ctx, primary)
	if err != nil || len(cands) > 0 {
		return cands, err
	}

	fallback := fmt.Sprintf("%q %s sito ufficiale", e.CompanyName, e.City)
	return m.runQuery(ctx, fallback)
}

func (m *Miner) runQuery(ctx context.Context, query string) ([]model.Candidate, error) {
	results, err := m.provider.Search(ctx, strings.TrimSpace(query), m.cfg.SearchResultCap)
	if err != nil {
		return nil, err
	}

	var out []model.Candidate
	for i, r := range results {
		dom := RootDomain(r.URL)
		if dom == "" || m.blacklist.Blocked(dom) {
			continue
		}
		out = append(out, model.Candidate{
			RootDomain: dom,
			SourceURL:  r.URL,
			Rank:       i + 1, // rank 0 is reserved for the input URL
			Provider:   model.ProviderSearch,
			Title:      r.Title,
			Snippet:    r.Snippet,
		})
	}
	return out, nil
}

// seedCandidates converts external links from seed pages (directory
// listings already fetched upstream) into low-priority candidates.
func (m *Miner) seedCandidates(links []string, baseRank int) []model.Candidate {
	if len(links) > m.cfg.SeedLinkCap {
		links = links[:m.cfg.SeedLinkCap]
	}

	var out []model.Candidate
	for i, l := range links {
		dom := RootDomain(l)
		if dom == "" || m.blacklist.Blocked(dom) {
			continue
		}
		out = append(out, model.Candidate{
			RootDomain: dom,
			SourceURL:  l,
			Rank:       baseRank + i + 100, // seed links trail search hits
			Provider:   model.ProviderSeed,
		})
	}
	return out
}
