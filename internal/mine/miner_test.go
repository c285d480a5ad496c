package mine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arpalab/resolvit/internal/config"
	"github.com/arpalab/resolvit/internal/model"
	"github.com/arpalab/resolvit/pkg/search"
)

// recordingProvider wraps the stub and records queries.
type recordingProvider struct {
	results map[string][]search.Result
	queries []string
	err     error
}

func (r *recordingProvider) Name() string { return "recording" }

func (r *recordingProvider) Search(_ context.Context, query string, _ int) ([]search.Result, error) {
	r.queries = append(r.queries, query)
	if r.err != nil {
		return nil, r.err
	}
	return r.results[query], nil
}

func testMiner(p search.Provider) *Miner {
	bl := NewBlacklist(config.DomainsConfig{Directories: []string{"paginegialle.it"}})
	return NewMiner(p, bl, config.CrawlConfig{SearchResultCap: 10, SeedLinkCap: 5})
}

func entity(name, city string) model.Entity {
	return model.Entity{CompanyName: name, City: city}
}

func TestMiner_PrimaryQueryOnly(t *testing.T) {
	primary := fmt.Sprintf("%q %s", "rossi costruzioni", "verona")
	p := &recordingProvider{results: map[string][]search.Result{
		primary: {{URL: "https://rossicostruzioni.it", Title: "Rossi"}},
	}}

	cands, err := testMiner(p).Mine(context.Background(), entity("rossi costruzioni", "verona"), nil)

	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "rossicostruzioni.it", cands[0].RootDomain)
	assert.Equal(t, 1, cands[0].Rank)
	assert.Equal(t, model.ProviderSearch, cands[0].Provider)
	// Fallback query never ran.
	assert.Equal(t, []string{primary}, p.queries)
}

func TestMiner_FallbackOnZeroUsable(t *testing.T) {
	primary := fmt.Sprintf("%q %s", "rossi costruzioni", "verona")
	fallback := fmt.Sprintf("%q %s sito ufficiale", "rossi costruzioni", "verona")
	p := &recordingProvider{results: map[string][]search.Result{
		// Primary yields only a blacklisted hit.
		primary:  {{URL: "https://www.paginegialle.it/rossi"}},
		fallback: {{URL: "https://rossicostruzioni.it"}},
	}}

	cands, err := testMiner(p).Mine(context.Background(), entity("rossi costruzioni", "verona"), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{primary, fallback}, p.queries)
	require.Len(t, cands, 1)
	assert.Equal(t, "rossicostruzioni.it", cands[0].RootDomain)
}

func TestMiner_InputURLRankZero(t *testing.T) {
	p := &recordingProvider{}
	e := entity("rossi costruzioni", "verona")
	e.SourceURL = "https://www.rossicostruzioni.it/home"

	cands, err := testMiner(p).Mine(context.Background(), e, nil)

	require.NoError(t, err)
	require.NotEmpty(t, cands)
	assert.Equal(t, 0, cands[0].Rank)
	assert.Equal(t, model.ProviderInput, cands[0].Provider)
	assert.Equal(t, "rossicostruzioni.it", cands[0].RootDomain)
}

func TestMiner_BlacklistedInputURLDropped(t *testing.T) {
	p := &recordingProvider{}
	e := entity("rossi costruzioni", "verona")
	e.SourceURL = "https://www.paginegialle.it/rossi"

	cands, err := testMiner(p).Mine(context.Background(), e, nil)

	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestMiner_RateLimitPropagated(t *testing.T) {
	p := &recordingProvider{err: search.ErrRateLimited}
	e := entity("rossi costruzioni", "verona")
	e.SourceURL = "https://rossicostruzioni.it"

	cands, err := testMiner(p).Mine(context.Background(), e, nil)

	require.ErrorIs(t, err, search.ErrRateLimited)
	// The input-URL candidate gathered so far is still returned.
	assert.Len(t, cands, 1)
}

func TestMiner_SeedLinks(t *testing.T) {
	p := &recordingProvider{}

	cands, err := testMiner(p).Mine(context.Background(), entity("rossi costruzioni", "verona"),
		[]string{"https://rossicostruzioni.it", "https://www.paginegialle.it/x", "https://altra.it"})

	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, model.ProviderSeed, cands[0].Provider)
	// Seed ranks trail any search hit.
	assert.GreaterOrEqual(t, cands[0].Rank, 100)
}
