package score

import (
	"fmt"
	"math"

	"github.com/arpalab/resolvit/internal/config"
	"github.com/arpalab/resolvit/internal/model"
)

// Scorer turns (Evidence, Entity, phone frequency) into a ScoreBreakdown.
// Deterministic for a fixed frequency state; every rule that fires
// appends a trace line to Details.
type Scorer struct {
	cfg  config.ScoreConfig
	freq *PhoneFrequency
}

// New creates a Scorer.
func New(cfg config.ScoreConfig, freq *PhoneFrequency) *Scorer {
	return &Scorer{cfg: cfg, freq: freq}
}

// Score computes the breakdown for one candidate's evidence.
func (s *Scorer) Score(ev model.Evidence, e model.Entity) model.ScoreBreakdown {
	var b model.ScoreBreakdown

	strong := func(pts float64, format string, args ...any) {
		b.StrongSignals += pts
		b.Details = append(b.Details, fmt.Sprintf("+%.1f "+format, append([]any{pts}, args...)...))
	}
	corrob := func(pts float64, format string, args ...any) {
		b.CorroboratingSignals += pts
		b.Details = append(b.Details, fmt.Sprintf("+%.1f "+format, append([]any{pts}, args...)...))
	}
	penalty := func(pts float64, format string, args ...any) {
		b.Penalties += pts
		b.Details = append(b.Details, fmt.Sprintf("-%.1f "+format, append([]any{pts}, args...)...))
	}

	// Strong signals.
	if ev.PhoneMatch {
		if freq := s.freq.Count(ev.MatchedPhone); freq >= s.cfg.PhoneFreqLimit {
			strong(s.cfg.SharedPhoneWeight, "phone match %s (shared, freq=%d)", ev.MatchedPhone, freq)
		} else {
			strong(s.cfg.PhoneWeight, "phone match %s", ev.MatchedPhone)
		}
	}

	switch {
	case ev.AddressMatchScore > s.cfg.AddressHighThresh:
		strong(s.cfg.AddressWeight*ev.AddressMatchScore, "address match %.2f", ev.AddressMatchScore)
	case ev.AddressMatchScore > s.cfg.AddressLowThresh:
		strong(s.cfg.AddressWeight*s.cfg.AddressLowFraction, "partial address match %.2f", ev.AddressMatchScore)
	}

	if pts := s.nameScore(ev.NameMatchScore); pts > 0 {
		strong(pts, "name match %.2f", ev.NameMatchScore)
	}

	if len(ev.FoundVATs) > 0 {
		if e.VATID != "" && containsString(ev.FoundVATs, e.VATID) {
			strong(s.cfg.VATExactBonus, "vat exact match %s", e.VATID)
		} else {
			strong(s.cfg.VATPresentBonus, "vat present (%d found)", len(ev.FoundVATs))
		}
	}

	// Corroborating signals.
	if len(ev.FoundEmails) > 0 {
		corrob(s.cfg.EmailBonus, "email present")
	}
	if ev.HasStructuredData {
		corrob(s.cfg.StructuredBonus, "structured data present")
	}
	if corporateSignals(ev) >= 2 {
		corrob(s.cfg.CorporateBonus, "corporate signals")
	}
	if ev.HasContactPage {
		corrob(s.cfg.ContactBonus, "contact page")
	}
	if ev.HTTPSOK {
		corrob(s.cfg.HTTPSBonus, "https")
	}

	// Penalties.
	switch ev.Class {
	case model.ClassDirectory:
		penalty(s.cfg.DirectoryPenalty, "directory site")
	case model.ClassMarketplace:
		penalty(s.cfg.DirectoryPenalty, "marketplace site")
	case model.ClassParked:
		penalty(s.cfg.ParkedPenalty, "parked domain")
	case model.ClassSocial:
		if !s.cfg.AllowSocialFallback {
			penalty(s.cfg.SocialPenalty, "social profile")
		}
	}
	if !ev.DNSOK {
		penalty(s.cfg.DNSPenalty, "dns failure")
	}
	if !ev.HTTPOK {
		penalty(s.cfg.HTTPPenalty, "http failure")
	}

	b.FinalScore = clamp(b.StrongSignals+b.CorroboratingSignals-b.Penalties, 0, 100)
	return b
}

// nameScore buckets the name match into 3 tiers of the name weight.
func (s *Scorer) nameScore(m float64) float64 {
	switch {
	case m > 0.8:
		return s.cfg.NameWeight
	case m > 0.5:
		return s.cfg.NameWeight * 0.7
	case m > 0.3:
		return s.cfg.NameWeight * 0.4
	default:
		return 0
	}
}

// corporateSignals counts {contact page, privacy page, VAT found}.
func corporateSignals(ev model.Evidence) int {
	n := 0
	if ev.HasContactPage {
		n++
	}
	if ev.HasPrivacyPage {
		n++
	}
	if len(ev.FoundVATs) > 0 {
		n++
	}
	return n
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
