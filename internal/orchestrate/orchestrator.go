package orchestrate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arpalab/resolvit/internal/checkpoint"
	"github.com/arpalab/resolvit/internal/config"
	"github.com/arpalab/resolvit/internal/decide"
	"github.com/arpalab/resolvit/internal/evidence"
	"github.com/arpalab/resolvit/internal/mine"
	"github.com/arpalab/resolvit/internal/model"
	"github.com/arpalab/resolvit/internal/output"
	"github.com/arpalab/resolvit/internal/resilience"
	"github.com/arpalab/resolvit/internal/score"
	"github.com/arpalab/resolvit/pkg/extract"
	"github.com/arpalab/resolvit/pkg/fetch"
	"github.com/arpalab/resolvit/pkg/search"
	"github.com/arpalab/resolvit/pkg/verify"
)

// InputRow is one normalized batch row. Invalid rows (no name or no
// identifying signal) still produce an output row; they are decided as
// input errors in the first wave and skipped afterwards.
type InputRow struct {
	Entity  model.Entity
	Invalid bool
	Err     string
}

// Prober checks candidate domain health before fetching.
type Prober interface {
	Probe(ctx context.Context, domain string) fetch.Health
}

// Deps are the collaborators the orchestrator drives. Verifier may be
// nil when AI escalation is disabled.
type Deps struct {
	Store     checkpoint.Store
	Writer    *output.Writer
	Search    search.Provider
	Fetcher   fetch.Fetcher
	Prober    Prober
	Pages     extract.Extractor
	Evidence  *evidence.Extractor
	Blacklist *mine.Blacklist
	Verifier  verify.Verifier
}

// Orchestrator runs the pipeline over a batch in escalating waves.
type Orchestrator struct {
	cfg  *config.Config
	deps Deps
	freq *score.PhoneFrequency

	mu       sync.Mutex
	resolved map[string]bool // keys a wave already confirmed valid

	processed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// New creates an orchestrator. The phone frequency model starts empty
// and is seeded from the batch at Run.
func New(cfg *config.Config, deps Deps) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		deps:     deps,
		freq:     score.NewPhoneFrequency(),
		resolved: make(map[string]bool),
	}
}

// Stats reports rows processed, resolved, and errored this invocation.
func (o *Orchestrator) Stats() (processed, resolved, failed int64) {
	return o.processed.Load(), o.succeeded.Load(), o.failed.Load()
}

// Run executes every configured wave over the rows. Each wave skips
// rows already checkpointed for it and rows an earlier wave resolved,
// so re-running after a crash is idempotent. Cancellation is coarse:
// rows in flight drain to completion, then intake stops.
func (o *Orchestrator) Run(ctx context.Context, runID string, rows []InputRow) error {
	waves, err := Waves(o.cfg.Batch.Waves)
	if err != nil {
		return err
	}

	// Seed the shared-phone model from the whole batch up front so the
	// high-risk tier is independent of row processing order.
	for _, r := range rows {
		if !r.Invalid {
			o.freq.Observe(r.Entity.Phones...)
		}
	}

	zap.L().Info("batch starting",
		zap.String("run_id", runID),
		zap.Int("rows", len(rows)),
		zap.Int("waves", len(waves)),
		zap.Int("concurrency", o.cfg.Batch.Concurrency),
	)

	for i, w := range waves {
		if err := o.runWave(ctx, runID, w, rows, i == 0); err != nil {
			return err
		}
	}
	return nil
}

// ResolveOne runs the pipeline for a single entity with the first
// configured wave's strategy. No checkpointing or output writing; the
// caller gets the decision directly.
func (o *Orchestrator) ResolveOne(ctx context.Context, e model.Entity) (model.Decision, error) {
	waves, err := Waves(o.cfg.Batch.Waves)
	if err != nil {
		return model.Decision{}, err
	}
	w := waves[0]
	o.freq.Observe(e.Phones...)
	scorer, decider, miner := o.waveComponents(w)
	dec := o.resolveRow(ctx, w, scorer, decider, miner, o.cfg.Decide.OKScore-w.ScoreRelax, e)
	dec.Wave = w.Name
	return dec, nil
}

func (o *Orchestrator) runWave(ctx context.Context, runID string, w Wave, rows []InputRow, first bool) error {
	done, err := o.deps.Store.Keys(ctx, runID, w.Name)
	if err != nil {
		return err
	}
	// A previous crashed invocation may have resolved rows in this wave.
	for key, set := range done {
		if set == checkpoint.SetValid {
			o.markResolved(key)
		}
	}

	scorer, decider, miner := o.waveComponents(w)
	okScore := o.cfg.Decide.OKScore - w.ScoreRelax

	var started int
	g := new(errgroup.Group)
	g.SetLimit(o.cfg.Batch.Concurrency)

	for _, row := range rows {
		if ctx.Err() != nil {
			break // stop intake; in-flight rows drain below
		}
		key := row.Entity.Key()
		if _, ok := done[key]; ok {
			continue
		}
		if o.isResolved(key) {
			continue
		}
		if row.Invalid && !first {
			continue
		}

		started++
		g.Go(func() error {
			rowCtx := context.WithoutCancel(ctx)

			var dec model.Decision
			if row.Invalid {
				dec = errorDecision(row.Entity, model.StatusErrorInput, model.ReasonInvalidInput, row.Err)
			} else {
				dec = o.resolveRow(rowCtx, w, scorer, decider, miner, okScore, row.Entity)
			}
			dec.RunID = runID
			dec.Wave = w.Name

			if err := o.deps.Store.Append(rowCtx, runID, w.Name, checkpoint.SetFor(dec), dec); err != nil {
				zap.L().Error("checkpoint append failed",
					zap.String("company", dec.CompanyName),
					zap.Error(err),
				)
			}
			o.deps.Writer.Enqueue(dec)

			o.processed.Add(1)
			if dec.Resolved() {
				o.succeeded.Add(1)
				o.markResolved(dec.CompanyKey)
			} else if dec.Status != model.StatusNoDomainFound {
				o.failed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	zap.L().Info("wave complete",
		zap.String("run_id", runID),
		zap.String("wave", w.Name),
		zap.Int("started", started),
		zap.Int("skipped", len(rows)-started),
	)
	return ctx.Err()
}

// waveComponents builds the per-wave pipeline stages with the wave's
// strategy knobs applied over the base configuration.
func (o *Orchestrator) waveComponents(w Wave) (*score.Scorer, *decide.Decider, *mine.Miner) {
	scoreCfg := o.cfg.Score
	if w.AllowSocial {
		scoreCfg.AllowSocialFallback = true
	}
	scorer := score.New(scoreCfg, o.freq)

	decCfg := o.cfg.Decide
	decCfg.OKScore -= w.ScoreRelax

	var verifier verify.Verifier
	if o.cfg.Verifier.Enabled {
		verifier = o.deps.Verifier
	}
	decider := decide.New(decCfg, verifier, o.cfg.Verifier.MinConfidence, o.freq)

	crawlCfg := o.cfg.Crawl
	crawlCfg.SearchResultCap = w.SearchLimit
	miner := mine.NewMiner(o.deps.Search, o.deps.Blacklist, crawlCfg)

	return scorer, decider, miner
}

// resolveRow runs the full pipeline for one entity. Panics and errors
// are absorbed at this boundary into an ERROR decision; a row never
// takes down its siblings.
func (o *Orchestrator) resolveRow(ctx context.Context, w Wave, scorer *score.Scorer, decider *decide.Decider, miner *mine.Miner, okScore float64, e model.Entity) (dec model.Decision) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("row pipeline panic",
				zap.String("company", e.CompanyName),
				zap.Any("panic", r),
			)
			dec = errorDecision(e, model.StatusErrorInternal, model.ReasonInternal, fmt.Sprintf("panic: %v", r))
		}
	}()

	cands, err := miner.Mine(ctx, e, nil)
	if err != nil {
		return classifiedError(e, err)
	}
	cands = mine.Dedupe(cands, w.MaxCandidates)

	scored, allBlocked, seeds := o.evaluate(ctx, e, cands, scorer)
	if len(cands) > 0 && allBlocked {
		return errorDecision(e, model.StatusErrorBlocked, model.ReasonBlocked, "every candidate fetch was blocked")
	}

	// Escalation within the wave: when nothing passed and the strategy
	// allows it, mine the harvested page links for a second pass.
	if w.SeedLinks && len(seeds) > 0 && bestScore(scored) < okScore {
		more, err := miner.Mine(ctx, e, seeds)
		if err == nil {
			more = mine.Dedupe(more, w.MaxCandidates)
			extra, _, _ := o.evaluate(ctx, e, unseenOnly(more, scored), scorer)
			scored = append(scored, extra...)
		}
	}

	return decider.Decide(ctx, e, scored, o.cfg.Score.PhoneFreqLimit)
}

// evaluate runs the per-candidate loop: probe, fetch, extract evidence,
// score. Per-candidate fetch failures degrade to health-only evidence
// rather than failing the row. External links seen on fetched pages are
// returned for seed mining.
func (o *Orchestrator) evaluate(ctx context.Context, e model.Entity, cands []model.Candidate, scorer *score.Scorer) (scored []decide.Scored, allBlocked bool, seeds []string) {
	attempts, blocked := 0, 0
	for _, c := range cands {
		health := o.deps.Prober.Probe(ctx, c.RootDomain)

		var page *extract.PageContent
		if health.DNSOK {
			attempts++
			var wasBlocked bool
			page, wasBlocked = o.fetchSite(ctx, c, health)
			if wasBlocked {
				blocked++
			}
		}

		ev := o.deps.Evidence.Extract(c, page, evidence.Health{
			DNSOK:   health.DNSOK,
			HTTPOK:  health.HTTPOK,
			HTTPSOK: health.HTTPSOK,
		}, e)
		scored = append(scored, decide.Scored{
			Candidate: c,
			Evidence:  ev,
			Breakdown: scorer.Score(ev, e),
		})

		if page != nil {
			seeds = append(seeds, page.Links.External...)
		}
	}
	return scored, attempts > 0 && blocked == attempts, seeds
}

// fetchSite fetches a candidate's main page plus up to the site budget
// of contact/privacy subpages, merged into one PageContent.
func (o *Orchestrator) fetchSite(ctx context.Context, c model.Candidate, h fetch.Health) (*extract.PageContent, bool) {
	url := c.SourceURL
	if url == "" {
		switch {
		case h.FinalURL != "":
			url = h.FinalURL
		case !h.HTTPSOK && h.HTTPOK:
			url = "http://" + c.RootDomain
		default:
			url = "https://" + c.RootDomain
		}
	}

	res, err := o.deps.Fetcher.Fetch(ctx, url)
	if err != nil || res == nil {
		return nil, false
	}
	if res.Blocked {
		return nil, true
	}
	if res.Status == 0 || res.Content == "" {
		return nil, false
	}
	page := o.deps.Pages.Extract(res.Content, res.FinalURL)

	budget := o.cfg.Crawl.MaxPagesPerSite - 1
	followups := append(append([]string{}, page.Links.Contact...), page.Links.Privacy...)
	for _, link := range followups {
		if budget <= 0 {
			break
		}
		sub, err := o.deps.Fetcher.Fetch(ctx, link)
		if err != nil || sub == nil || sub.Blocked || sub.Status == 0 {
			continue
		}
		subPage := o.deps.Pages.Extract(sub.Content, sub.FinalURL)
		page.Text += "\n" + subPage.Text
		page.RawHTML += subPage.RawHTML
		page.StructuredData = append(page.StructuredData, subPage.StructuredData...)
		budget--
	}
	return page, false
}

func (o *Orchestrator) markResolved(key string) {
	o.mu.Lock()
	o.resolved[key] = true
	o.mu.Unlock()
}

func (o *Orchestrator) isResolved(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.resolved[key]
}

func bestScore(scored []decide.Scored) float64 {
	best := 0.0
	for _, s := range scored {
		if s.Breakdown.FinalScore > best {
			best = s.Breakdown.FinalScore
		}
	}
	return best
}

// unseenOnly drops candidates whose domain an earlier pass already
// evaluated.
func unseenOnly(cands []model.Candidate, scored []decide.Scored) []model.Candidate {
	seen := make(map[string]bool, len(scored))
	for _, s := range scored {
		seen[s.Candidate.RootDomain] = true
	}
	out := cands[:0]
	for _, c := range cands {
		if !seen[c.RootDomain] {
			out = append(out, c)
		}
	}
	return out
}

func errorDecision(e model.Entity, status model.DecisionStatus, reason model.ReasonCode, msg string) model.Decision {
	return model.Decision{
		CompanyKey:     e.Key(),
		CompanyName:    e.CompanyName,
		City:           e.City,
		Status:         status,
		ReasonCode:     reason,
		DecisionReason: msg,
		Error:          msg,
		Timestamp:      time.Now().UTC(),
	}
}

func classifiedError(e model.Entity, err error) model.Decision {
	status, reason := resilience.Classify(err)
	return errorDecision(e, status, reason, err.Error())
}
