package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arpalab/resolvit/internal/config"
)

func TestGoogle_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "test-cx", q.Get("cx"))
		assert.Equal(t, `"Rossi Costruzioni" Verona`, q.Get("q"))
		assert.Equal(t, "5", q.Get("num"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"link":"https://rossicostruzioni.it","title":"Rossi Costruzioni","snippet":"Impresa edile"},
			{"link":"https://paginegialle.it/rossi","title":"Rossi - PagineGialle","snippet":"directory"}
		]}`))
	}))
	defer srv.Close()

	p := NewGoogle("test-key", "test-cx", WithBaseURL(srv.URL), WithQPS(1000))

	results, err := p.Search(context.Background(), `"Rossi Costruzioni" Verona`, 5)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://rossicostruzioni.it", results[0].URL)
	assert.Equal(t, "Rossi Costruzioni", results[0].Title)
	assert.Equal(t, "Impresa edile", results[0].Snippet)
}

func TestGoogle_SearchClampsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("num"))
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	p := NewGoogle("k", "cx", WithBaseURL(srv.URL), WithQPS(1000))

	results, err := p.Search(context.Background(), "query", 25)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGoogle_SearchRateLimited(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		p := NewGoogle("k", "cx", WithBaseURL(srv.URL), WithQPS(1000))
		_, err := p.Search(context.Background(), "query", 5)

		assert.ErrorIs(t, err, ErrRateLimited, "status %d", status)
		srv.Close()
	}
}

func TestGoogle_SearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewGoogle("k", "cx", WithBaseURL(srv.URL), WithQPS(1000))
	_, err := p.Search(context.Background(), "query", 5)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
}

func TestGoogle_SearchNoItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p := NewGoogle("k", "cx", WithBaseURL(srv.URL), WithQPS(1000))
	results, err := p.Search(context.Background(), "query", 5)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNew_ProviderSelection(t *testing.T) {
	p, err := New(config.SearchConfig{Provider: "google", APIKey: "k", EngineID: "cx"})
	require.NoError(t, err)
	assert.Equal(t, "google", p.Name())

	p, err = New(config.SearchConfig{Provider: "bing", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "bing", p.Name())

	p, err = New(config.SearchConfig{Provider: "stub"})
	require.NoError(t, err)
	assert.Equal(t, "stub", p.Name())

	_, err = New(config.SearchConfig{Provider: "duckduckgo"})
	assert.Error(t, err)
}

func TestStub_Search(t *testing.T) {
	p := NewStub(map[string][]Result{
		"rossi": {{URL: "https://rossi.it"}, {URL: "https://rossi.com"}},
	})

	results, err := p.Search(context.Background(), "rossi", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://rossi.it", results[0].URL)

	results, err = p.Search(context.Background(), "unknown", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

type countingProvider struct {
	calls   atomic.Int64
	results []Result
	err     error
}

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) Search(_ context.Context, _ string, limit int) ([]Result, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	rs := c.results
	if limit > 0 && len(rs) > limit {
		rs = rs[:limit]
	}
	return rs, nil
}

func TestCached_Search(t *testing.T) {
	inner := &countingProvider{results: []Result{{URL: "https://rossi.it"}}}
	c := NewCached(inner)

	for i := 0; i < 3; i++ {
		results, err := c.Search(context.Background(), "rossi verona", 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
	}

	assert.Equal(t, int64(1), inner.calls.Load(), "identical queries hit the provider once")
}

func TestCached_LargerLimitRefetches(t *testing.T) {
	var all []Result
	for i := 0; i < 10; i++ {
		all = append(all, Result{URL: fmt.Sprintf("https://rossi-%d.it", i)})
	}
	inner := &countingProvider{results: all}
	c := NewCached(inner)

	results, err := c.Search(context.Background(), "rossi verona", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, int64(1), inner.calls.Load())

	// A deeper wave raising the limit must reach the provider again
	// instead of being served the first wave's truncated set.
	results, err = c.Search(context.Background(), "rossi verona", 10)
	require.NoError(t, err)
	assert.Len(t, results, 10)
	assert.Equal(t, int64(2), inner.calls.Load())

	// A smaller limit is satisfied by the deeper entry, capped down.
	results, err = c.Search(context.Background(), "rossi verona", 5)
	require.NoError(t, err)
	assert.Len(t, results, 5)
	assert.Equal(t, int64(2), inner.calls.Load())
}

func TestCached_DistinctQueriesNotShared(t *testing.T) {
	inner := &countingProvider{results: []Result{{URL: "https://rossi.it"}}}
	c := NewCached(inner)

	_, err := c.Search(context.Background(), "rossi verona", 5)
	require.NoError(t, err)
	_, err = c.Search(context.Background(), "bianchi milano", 5)
	require.NoError(t, err)

	assert.Equal(t, int64(2), inner.calls.Load())
}

func TestCached_ErrorsNotCached(t *testing.T) {
	inner := &countingProvider{err: ErrRateLimited}
	c := NewCached(inner)

	_, err := c.Search(context.Background(), "rossi", 5)
	assert.ErrorIs(t, err, ErrRateLimited)

	inner.err = nil
	inner.results = []Result{{URL: "https://rossi.it"}}
	results, err := c.Search(context.Background(), "rossi", 5)

	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, int64(2), inner.calls.Load())
}
