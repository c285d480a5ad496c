// Package verify defines the optional AI verification fallback used
// when heuristic scoring is uncertain.
package verify

import "context"

// Request carries the entity fields and the candidate under judgment.
type Request struct {
	CompanyName string `json:"company_name"`
	City        string `json:"city"`
	Address     string `json:"address"`
	VATID       string `json:"vat_id,omitempty"`
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
}

// Verdict is the verifier's judgment.
type Verdict struct {
	IsMatch    bool    `json:"is_match"`
	Confidence float64 `json:"confidence"` // 0-100
	Reason     string  `json:"reason"`
}

// Verifier judges whether a candidate page belongs to the company.
type Verifier interface {
	Verify(ctx context.Context, req Request) (*Verdict, error)
}

// Stub is an offline verifier returning a fixed verdict.
type Stub struct {
	Verdict Verdict
	Err     error
}

// Verify returns the canned verdict.
func (s *Stub) Verify(_ context.Context, _ Request) (*Verdict, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	v := s.Verdict
	return &v, nil
}
