package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBingBaseURL = "https://api.bing.microsoft.com/v7.0/search"

type bingClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// BingOption configures the Bing provider.
type BingOption func(*bingClient)

// WithBingBaseURL overrides the default API base URL.
func WithBingBaseURL(u string) BingOption {
	return func(c *bingClient) {
		c.baseURL = u
	}
}

// WithBingHTTPClient overrides the default http.Client.
func WithBingHTTPClient(hc *http.Client) BingOption {
	return func(c *bingClient) {
		c.http = hc
	}
}

// NewBing creates a Bing Web Search provider.
func NewBing(apiKey string, opts ...BingOption) Provider {
	c := &bingClient{
		apiKey:  apiKey,
		baseURL: defaultBingBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(3), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *bingClient) Name() string { return "bing" }

type bingResponse struct {
	WebPages struct {
		Value []struct {
			URL     string `json:"url"`
			Name    string `json:"name"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
}

func (c *bingClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "bing: rate limiter wait")
		}
	}

	if limit <= 0 || limit > 50 {
		limit = 10
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "bing: create request")
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "bing: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "bing: read response")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("bing: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed bingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "bing: unmarshal response")
	}

	results := make([]Result, 0, len(parsed.WebPages.Value))
	for _, v := range parsed.WebPages.Value {
		results = append(results, Result{URL: v.URL, Title: v.Name, Snippet: v.Snippet})
	}
	return results, nil
}
