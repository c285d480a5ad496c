package fetch

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Health reports domain-level validity checks run before fetching.
type Health struct {
	DNSOK    bool
	HTTPOK   bool
	HTTPSOK  bool
	FinalURL string // preferred scheme URL for the fetch step
}

// Prober checks DNS resolution and HTTP/HTTPS reachability for a domain.
type Prober struct {
	resolver   *net.Resolver
	http       *http.Client
	dnsTimeout time.Duration
}

// NewProber creates a Prober with per-check timeouts.
func NewProber(dnsTimeout, probeTimeout time.Duration) *Prober {
	return &Prober{
		resolver:   net.DefaultResolver,
		dnsTimeout: dnsTimeout,
		http: &http.Client{
			Timeout: probeTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Probe checks the domain. A failed DNS lookup short-circuits the HTTP
// probes. The error from lookups is swallowed: health flags are signals
// for scoring, not failures.
func (p *Prober) Probe(ctx context.Context, domain string) Health {
	h := Health{}

	dnsCtx, cancel := context.WithTimeout(ctx, p.dnsTimeout)
	defer cancel()
	addrs, err := p.resolver.LookupHost(dnsCtx, domain)
	if err != nil || len(addrs) == 0 {
		return h
	}
	h.DNSOK = true

	if p.headOK(ctx, "https://"+domain) {
		h.HTTPSOK = true
		h.HTTPOK = true
		h.FinalURL = "https://" + domain
		return h
	}
	if p.headOK(ctx, "http://"+domain) {
		h.HTTPOK = true
		h.FinalURL = "http://" + domain
	}
	return h
}

func (p *Prober) headOK(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close() //nolint:errcheck
	// Anything the server answers counts as reachable; some sites 405 HEAD.
	return resp.StatusCode < 500
}
