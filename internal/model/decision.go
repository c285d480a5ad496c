package model

import "time"

// DecisionStatus is the terminal state of one row's resolution.
type DecisionStatus string

const (
	StatusOK            DecisionStatus = "OK"
	StatusNoDomainFound DecisionStatus = "NO_DOMAIN_FOUND"
	StatusErrorTimeout  DecisionStatus = "ERROR_TIMEOUT"
	StatusErrorBlocked  DecisionStatus = "ERROR_BLOCKED"
	StatusErrorDNS      DecisionStatus = "ERROR_DNS"
	StatusErrorFetch    DecisionStatus = "ERROR_FETCH"
	StatusErrorInput    DecisionStatus = "ERROR_INVALID_INPUT_ROW"
	StatusErrorInternal DecisionStatus = "ERROR_INTERNAL"
)

// ReasonCode is a machine-readable explanation attached to a decision.
type ReasonCode string

const (
	ReasonScorePassed       ReasonCode = "SCORE_PASSED"
	ReasonAIVerified        ReasonCode = "AI_VERIFIED"
	ReasonNoCandidates      ReasonCode = "NO_CANDIDATES"
	ReasonBelowThreshold    ReasonCode = "BELOW_THRESHOLD"
	ReasonMarginTooNarrow   ReasonCode = "MARGIN_TOO_NARROW"
	ReasonHighRiskRejected  ReasonCode = "HIGH_RISK_REJECTED"
	ReasonInvalidInput      ReasonCode = "INVALID_INPUT_ROW"
	ReasonTransientFetch    ReasonCode = "TRANSIENT_FETCH"
	ReasonBlocked           ReasonCode = "BLOCKED"
	ReasonDNSFailure        ReasonCode = "DNS_FAILURE"
	ReasonProviderRateLimit ReasonCode = "PROVIDER_RATE_LIMIT"
	ReasonInternal          ReasonCode = "INTERNAL"
)

// Decision is the per-row output and the unit of checkpointing.
// Uniquely keyed by the entity's (name, city, address) triple.
type Decision struct {
	CompanyKey     string         `json:"company_key"`
	CompanyName    string         `json:"company_name"`
	City           string         `json:"city"`
	Status         DecisionStatus `json:"status"`
	DomainOfficial string         `json:"domain_official,omitempty"`
	ResolvedURL    string         `json:"resolved_url,omitempty"`
	Score          float64        `json:"score"`
	Confidence     float64        `json:"confidence"`
	ReasonCode     ReasonCode     `json:"reason_code"`
	DecisionReason string         `json:"decision_reason,omitempty"`
	Error          string         `json:"error,omitempty"`

	// Audit trails, serialized for the output row.
	Evidence   []Evidence  `json:"evidence,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`

	Wave      string    `json:"wave,omitempty"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Resolved reports whether the decision confirmed an official domain.
func (d Decision) Resolved() bool {
	return d.Status == StatusOK && d.DomainOfficial != ""
}
