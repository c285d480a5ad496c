// Package decide applies risk-adjusted thresholds to scored candidates
// and emits the final resolution record.
package decide

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arpalab/resolvit/internal/config"
	"github.com/arpalab/resolvit/internal/model"
	"github.com/arpalab/resolvit/internal/score"
	"github.com/arpalab/resolvit/pkg/verify"
)

// Scored bundles one candidate with its evidence and score.
type Scored struct {
	Candidate model.Candidate
	Evidence  model.Evidence
	Breakdown model.ScoreBreakdown
}

// RiskTier selects which threshold pair applies.
type RiskTier string

const (
	TierStandard RiskTier = "STANDARD"
	TierHighRisk RiskTier = "HIGH_RISK"
)

// Decider turns ranked scored candidates into a Decision.
type Decider struct {
	cfg      config.DecideConfig
	verifier verify.Verifier // nil when AI fallback is disabled
	minConf  float64
	freq     *score.PhoneFrequency
}

// New creates a Decider. verifier may be nil.
func New(cfg config.DecideConfig, verifier verify.Verifier, minVerifierConf float64, freq *score.PhoneFrequency) *Decider {
	return &Decider{
		cfg:      cfg,
		verifier: verifier,
		minConf:  minVerifierConf,
		freq:     freq,
	}
}

// Decide evaluates all scored candidates for one entity. The returned
// Decision carries the full candidate and evidence audit trails; the
// orchestrator stamps run id, wave, and timestamp.
func (d *Decider) Decide(ctx context.Context, e model.Entity, scored []Scored, freqLimit int) model.Decision {
	dec := model.Decision{
		CompanyKey:  e.Key(),
		CompanyName: e.CompanyName,
		City:        e.City,
		Timestamp:   time.Now().UTC(),
	}
	for _, s := range scored {
		dec.Candidates = append(dec.Candidates, s.Candidate)
		dec.Evidence = append(dec.Evidence, s.Evidence)
	}

	if len(scored) == 0 {
		dec.Status = model.StatusNoDomainFound
		dec.ReasonCode = model.ReasonNoCandidates
		dec.DecisionReason = "no candidates survived mining and dedup"
		return dec
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Breakdown.FinalScore > scored[j].Breakdown.FinalScore
	})

	top := scored[0]
	margin := top.Breakdown.FinalScore
	if len(scored) > 1 {
		margin = top.Breakdown.FinalScore - scored[1].Breakdown.FinalScore
	} else {
		margin = 0
	}

	tier := d.riskTier(e, freqLimit)
	scoreThresh, marginThresh := d.thresholds(tier)

	topScore := top.Breakdown.FinalScore
	dec.Score = topScore

	pass := topScore >= scoreThresh && (len(scored) == 1 || margin >= marginThresh)
	if pass {
		dec.Status = model.StatusOK
		dec.DomainOfficial = top.Candidate.RootDomain
		dec.ResolvedURL = top.Candidate.SourceURL
		dec.ReasonCode = model.ReasonScorePassed
		dec.Confidence = okConfidence(topScore, margin)
		dec.DecisionReason = fmt.Sprintf("score %.1f >= %.1f (tier %s, margin %.1f)",
			topScore, scoreThresh, tier, margin)
		return dec
	}

	// Escalate to the AI verifier only inside the uncertain band.
	if d.verifier != nil && topScore >= d.cfg.UncertainBandLow && topScore <= d.cfg.UncertainBandHi {
		if v := d.tryVerify(ctx, e, top); v != nil && v.IsMatch && v.Confidence >= d.minConf {
			dec.Status = model.StatusOK
			dec.DomainOfficial = top.Candidate.RootDomain
			dec.ResolvedURL = top.Candidate.SourceURL
			dec.ReasonCode = model.ReasonAIVerified
			dec.Confidence = okConfidence(topScore, margin)
			dec.DecisionReason = "ai verifier: " + v.Reason
			return dec
		}
	}

	dec.Status = model.StatusNoDomainFound
	dec.Confidence = failConfidence(topScore)
	switch {
	case topScore < scoreThresh && tier == TierHighRisk:
		dec.ReasonCode = model.ReasonHighRiskRejected
		dec.DecisionReason = fmt.Sprintf("score %.1f below high-risk threshold %.1f", topScore, scoreThresh)
	case topScore < scoreThresh:
		dec.ReasonCode = model.ReasonBelowThreshold
		dec.DecisionReason = fmt.Sprintf("score %.1f below threshold %.1f", topScore, scoreThresh)
	default:
		dec.ReasonCode = model.ReasonMarginTooNarrow
		dec.DecisionReason = fmt.Sprintf("margin %.1f below threshold %.1f", margin, marginThresh)
	}
	return dec
}

// riskTier is HIGH_RISK when the entity's phone is shared batch-wide at
// or above the ambiguity limit, or its normalized name is too short to
// disambiguate reliably.
func (d *Decider) riskTier(e model.Entity, freqLimit int) RiskTier {
	if freqLimit > 0 && d.freq.MaxCount(e.Phones) >= freqLimit {
		return TierHighRisk
	}
	if nameLen := len([]rune(strings.ReplaceAll(e.CompanyName, " ", ""))); nameLen > 0 && nameLen <= d.cfg.ShortNameLen {
		return TierHighRisk
	}
	return TierStandard
}

func (d *Decider) thresholds(tier RiskTier) (scoreThresh, marginThresh float64) {
	if tier == TierHighRisk {
		return d.cfg.HighRiskScore, d.cfg.HighRiskMargin
	}
	return d.cfg.OKScore, d.cfg.OKMargin
}

func (d *Decider) tryVerify(ctx context.Context, e model.Entity, top Scored) *verify.Verdict {
	v, err := d.verifier.Verify(ctx, verify.Request{
		CompanyName: e.CompanyName,
		City:        e.City,
		Address:     e.RawAddress,
		VATID:       e.VATID,
		URL:         top.Candidate.SourceURL,
		Title:       top.Candidate.Title,
		Snippet:     top.Candidate.Snippet,
	})
	if err != nil {
		zap.L().Warn("decide: verifier failed",
			zap.String("company", e.CompanyName),
			zap.Error(err),
		)
		return nil
	}
	return v
}

// okConfidence rewards a clear margin on top of the score, capped at 100.
func okConfidence(score, margin float64) float64 {
	return math.Min(100, score+math.Min(10, margin/5))
}

// failConfidence stays below the passing range so a rejected guess
// never masquerades as a confirmed one.
func failConfidence(score float64) float64 {
	return math.Min(80, score)
}
