package decide

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arpalab/resolvit/internal/config"
	"github.com/arpalab/resolvit/internal/model"
	"github.com/arpalab/resolvit/internal/score"
	"github.com/arpalab/resolvit/pkg/verify"
)

func testDecideConfig() config.DecideConfig {
	return config.DecideConfig{
		OKScore:          45,
		OKMargin:         10,
		HighRiskScore:    60,
		HighRiskMargin:   20,
		ShortNameLen:     4,
		UncertainBandLow: 25,
		UncertainBandHi:  60,
	}
}

func scoredWith(domain string, final float64) Scored {
	return Scored{
		Candidate: model.Candidate{RootDomain: domain, SourceURL: "https://" + domain},
		Breakdown: model.ScoreBreakdown{FinalScore: final},
	}
}

func testEntity() model.Entity {
	return model.Entity{CompanyName: "rossi costruzioni", City: "verona", Phones: []string{"+39045123456"}}
}

func TestDecider_NoCandidates(t *testing.T) {
	d := New(testDecideConfig(), nil, 0, score.NewPhoneFrequency())

	dec := d.Decide(context.Background(), testEntity(), nil, 3)

	assert.Equal(t, model.StatusNoDomainFound, dec.Status)
	assert.Equal(t, model.ReasonNoCandidates, dec.ReasonCode)
	assert.Zero(t, dec.Score)
	assert.Zero(t, dec.Confidence)
}

func TestDecider_PassSingleCandidate(t *testing.T) {
	d := New(testDecideConfig(), nil, 0, score.NewPhoneFrequency())

	dec := d.Decide(context.Background(), testEntity(), []Scored{scoredWith("rossi.it", 70)}, 3)

	require.Equal(t, model.StatusOK, dec.Status)
	assert.Equal(t, "rossi.it", dec.DomainOfficial)
	assert.Equal(t, model.ReasonScorePassed, dec.ReasonCode)
	// Single candidate: margin 0, confidence = score.
	assert.Equal(t, 70.0, dec.Confidence)
}

func TestDecider_MarginTooNarrow(t *testing.T) {
	d := New(testDecideConfig(), nil, 0, score.NewPhoneFrequency())

	scored := []Scored{scoredWith("a.it", 70), scoredWith("b.it", 65)}
	dec := d.Decide(context.Background(), testEntity(), scored, 3)

	assert.Equal(t, model.StatusNoDomainFound, dec.Status)
	assert.Equal(t, model.ReasonMarginTooNarrow, dec.ReasonCode)
	// Failed decisions never report confidence above 80.
	assert.LessOrEqual(t, dec.Confidence, 80.0)
}

func TestDecider_ClearMarginPasses(t *testing.T) {
	d := New(testDecideConfig(), nil, 0, score.NewPhoneFrequency())

	scored := []Scored{scoredWith("a.it", 70), scoredWith("b.it", 40)}
	dec := d.Decide(context.Background(), testEntity(), scored, 3)

	require.Equal(t, model.StatusOK, dec.Status)
	// confidence = score + min(10, margin/5) = 70 + 6
	assert.InDelta(t, 76.0, dec.Confidence, 0.001)
}

func TestDecider_HighRiskAtFrequencyLimit(t *testing.T) {
	freq := score.NewPhoneFrequency()
	for range 3 {
		freq.Observe("+39045123456")
	}
	d := New(testDecideConfig(), nil, 0, freq)

	// 50 passes the standard threshold (45) but not high-risk (60).
	dec := d.Decide(context.Background(), testEntity(), []Scored{scoredWith("a.it", 50)}, 3)

	assert.Equal(t, model.StatusNoDomainFound, dec.Status)
	assert.Equal(t, model.ReasonHighRiskRejected, dec.ReasonCode)
}

func TestDecider_StandardBelowFrequencyLimit(t *testing.T) {
	freq := score.NewPhoneFrequency()
	for range 2 {
		freq.Observe("+39045123456")
	}
	d := New(testDecideConfig(), nil, 0, freq)

	dec := d.Decide(context.Background(), testEntity(), []Scored{scoredWith("a.it", 50)}, 3)

	assert.Equal(t, model.StatusOK, dec.Status)
}

func TestDecider_ShortNameIsHighRisk(t *testing.T) {
	d := New(testDecideConfig(), nil, 0, score.NewPhoneFrequency())
	e := model.Entity{CompanyName: "abc", City: "verona"}

	dec := d.Decide(context.Background(), e, []Scored{scoredWith("abc.it", 50)}, 3)

	assert.Equal(t, model.StatusNoDomainFound, dec.Status)
	assert.Equal(t, model.ReasonHighRiskRejected, dec.ReasonCode)
}

func TestDecider_VerifierPromotesInUncertainBand(t *testing.T) {
	stub := &verify.Stub{Verdict: verify.Verdict{IsMatch: true, Confidence: 90, Reason: "matching contact details"}}
	d := New(testDecideConfig(), stub, 70, score.NewPhoneFrequency())

	dec := d.Decide(context.Background(), testEntity(), []Scored{scoredWith("rossi.it", 40)}, 3)

	require.Equal(t, model.StatusOK, dec.Status)
	assert.Equal(t, model.ReasonAIVerified, dec.ReasonCode)
	assert.Contains(t, dec.DecisionReason, "matching contact details")
}

func TestDecider_VerifierSkippedOutsideBand(t *testing.T) {
	stub := &verify.Stub{Verdict: verify.Verdict{IsMatch: true, Confidence: 99}}
	d := New(testDecideConfig(), stub, 70, score.NewPhoneFrequency())

	// Score 10 is below the uncertain band; the verifier must not run.
	dec := d.Decide(context.Background(), testEntity(), []Scored{scoredWith("rossi.it", 10)}, 3)

	assert.Equal(t, model.StatusNoDomainFound, dec.Status)
	assert.Equal(t, model.ReasonBelowThreshold, dec.ReasonCode)
}

func TestDecider_VerifierLowConfidenceRejected(t *testing.T) {
	stub := &verify.Stub{Verdict: verify.Verdict{IsMatch: true, Confidence: 50}}
	d := New(testDecideConfig(), stub, 70, score.NewPhoneFrequency())

	dec := d.Decide(context.Background(), testEntity(), []Scored{scoredWith("rossi.it", 40)}, 3)

	assert.Equal(t, model.StatusNoDomainFound, dec.Status)
	assert.Equal(t, model.ReasonBelowThreshold, dec.ReasonCode)
}

func TestDecider_AuditTrailsCarried(t *testing.T) {
	d := New(testDecideConfig(), nil, 0, score.NewPhoneFrequency())

	scored := []Scored{scoredWith("a.it", 70), scoredWith("b.it", 20)}
	dec := d.Decide(context.Background(), testEntity(), scored, 3)

	assert.Len(t, dec.Candidates, 2)
	assert.Len(t, dec.Evidence, 2)
	assert.Equal(t, testEntity().Key(), dec.CompanyKey)
}
