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

const defaultGoogleBaseURL = "https://www.googleapis.com/customsearch/v1"

// Option configures an HTTP-backed provider.
type Option func(*googleClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *googleClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *googleClient) {
		c.http = hc
	}
}

// WithQPS caps outgoing queries per second.
func WithQPS(qps float64) Option {
	return func(c *googleClient) {
		if qps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(qps), 1)
		}
	}
}

type googleClient struct {
	apiKey   string
	engineID string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewGoogle creates a Google Programmable Search provider.
func NewGoogle(apiKey, engineID string, opts ...Option) Provider {
	c := &googleClient{
		apiKey:   apiKey,
		engineID: engineID,
		baseURL:  defaultGoogleBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *googleClient) Name() string { return "google" }

type googleResponse struct {
	Items []struct {
		Link    string `json:"link"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

func (c *googleClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "google: rate limiter wait")
		}
	}

	if limit <= 0 || limit > 10 {
		limit = 10
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.engineID)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "google: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "google: read response")
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		// 403 is how the CSE API reports daily quota exhaustion.
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("google: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "google: unmarshal response")
	}

	results := make([]Result, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		results = append(results, Result{URL: it.Link, Title: it.Title, Snippet: it.Snippet})
	}
	return results, nil
}
