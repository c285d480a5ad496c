package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/arpalab/resolvit/internal/resilience"
)

// HTTPFetcher fetches pages over plain HTTP with retry on transient
// failures. Body reads are capped to avoid unbounded memory.
type HTTPFetcher struct {
	http      *http.Client
	userAgent string
	retry     resilience.RetryConfig
	maxBody   int64
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithClient overrides the default http.Client.
func WithClient(hc *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.http = hc
	}
}

// WithUserAgent sets the request User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithRetry overrides the retry configuration.
func WithRetry(rc resilience.RetryConfig) HTTPOption {
	return func(f *HTTPFetcher) {
		f.retry = rc
	}
}

// NewHTTP creates an HTTPFetcher with the given timeout.
func NewHTTP(timeout time.Duration, opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: "Mozilla/5.0 (compatible; resolvit/1.0)",
		retry:     resilience.DefaultRetryConfig(),
		maxBody:   2 << 20, // 2 MiB
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *HTTPFetcher) Name() string { return "http" }

// Fetch retrieves the URL, retrying transient failures. Blocked
// responses are returned (not retried) with Blocked set so callers can
// surface the condition distinctly.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	return resilience.DoVal(ctx, f.retry, func(ctx context.Context) (*Result, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, eris.Wrapf(err, "fetch: create request %s", url)
		}
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept-Language", "it-IT,it;q=0.9,en;q=0.5")

		resp, err := f.http.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "fetch: get %s", url)
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
		if err != nil {
			return nil, eris.Wrapf(err, "fetch: read body %s", url)
		}

		if blocked, bt := DetectBlock(resp, body); blocked {
			return &Result{
				Status:   resp.StatusCode,
				Content:  string(body),
				FinalURL: resp.Request.URL.String(),
				Blocked:  true,
				Block:    bt,
				Source:   f.Name(),
			}, nil
		}

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(
				eris.Errorf("fetch: status %d for %s", resp.StatusCode, url),
				resp.StatusCode,
			)
		}

		return &Result{
			Status:   resp.StatusCode,
			Content:  string(body),
			FinalURL: resp.Request.URL.String(),
			Source:   f.Name(),
		}, nil
	})
}
