package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/arpalab/resolvit/internal/checkpoint"
	"github.com/arpalab/resolvit/internal/evidence"
	"github.com/arpalab/resolvit/internal/mine"
	"github.com/arpalab/resolvit/internal/orchestrate"
	"github.com/arpalab/resolvit/internal/resilience"
	"github.com/arpalab/resolvit/pkg/extract"
	"github.com/arpalab/resolvit/pkg/fetch"
	"github.com/arpalab/resolvit/pkg/search"
	"github.com/arpalab/resolvit/pkg/verify"
)

// pipelineEnv holds the initialized store and pipeline collaborators
// shared by the resolve/batch/merge/status/serve commands.
type pipelineEnv struct {
	Store checkpoint.Store
	Deps  orchestrate.Deps
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initEnv opens the checkpoint store, runs migrations, and wires every
// pipeline collaborator. Callers should defer env.Close(). The output
// writer is per-command and attached separately.
func initEnv(ctx context.Context) (*pipelineEnv, error) {
	st, err := checkpoint.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	provider, err := search.New(cfg.Search)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Fetch.Retries + 1

	fetchTimeout := time.Duration(cfg.Fetch.TimeoutSecs) * time.Second
	// Plain fetch first; a browser-labeled retry catches sites that
	// reject the default agent outright.
	fetcher := fetch.NewChain(
		fetch.NewHTTP(fetchTimeout,
			fetch.WithUserAgent(cfg.Fetch.UserAgent),
			fetch.WithRetry(retry),
		),
		fetch.NewHTTP(fetchTimeout,
			fetch.WithUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"),
			fetch.WithRetry(retry),
		),
	)

	prober := fetch.NewProber(
		time.Duration(cfg.Crawl.DNSTimeoutSecs)*time.Second,
		time.Duration(cfg.Crawl.ProbeTimeoutSecs)*time.Second,
	)

	blacklist := mine.NewBlacklist(cfg.Domains)

	var verifier verify.Verifier
	if cfg.Verifier.Enabled && cfg.Verifier.APIKey != "" {
		verifier = verify.NewAnthropic(cfg.Verifier.APIKey, cfg.Verifier.Model,
			time.Duration(cfg.Verifier.TimeoutSecs)*time.Second)
		zap.L().Info("ai verifier enabled", zap.String("model", cfg.Verifier.Model))
	}

	return &pipelineEnv{
		Store: st,
		Deps: orchestrate.Deps{
			Store:     st,
			Search:    search.NewCached(provider),
			Fetcher:   fetcher,
			Prober:    prober,
			Pages:     extract.New(),
			Blacklist: blacklist,
			Evidence: evidence.NewExtractor(&evidence.Blacklists{
				Domains:          blacklist,
				ParkedIndicators: cfg.Domains.ParkedIndicators,
				SocialDomains:    cfg.Domains.Social,
			}),
			Verifier: verifier,
		},
	}, nil
}
