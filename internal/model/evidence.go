package model

// SiteClass labels what kind of site a domain is.
type SiteClass string

const (
	ClassCorporate   SiteClass = "CORPORATE"
	ClassDirectory   SiteClass = "DIRECTORY"
	ClassSocial      SiteClass = "SOCIAL"
	ClassMarketplace SiteClass = "MARKETPLACE"
	ClassParked      SiteClass = "PARKED"
	ClassUnknown     SiteClass = "UNKNOWN"
)

// Evidence holds the comparable facts extracted from one fetched
// candidate page. One per (candidate, fetch attempt).
type Evidence struct {
	Domain string `json:"domain"`
	URL    string `json:"url"`

	FoundPhones  []string `json:"found_phones,omitempty"`
	FoundEmails  []string `json:"found_emails,omitempty"`
	FoundVATs    []string `json:"found_vats,omitempty"`
	SocialLinks  []string `json:"social_links,omitempty"`
	PhoneMatch   bool     `json:"phone_match"`
	MatchedPhone string   `json:"matched_phone,omitempty"`

	AddressMatchScore float64 `json:"address_match_score"` // in [0,1]
	NameMatchScore    float64 `json:"name_match_score"`    // in [0,1]

	DNSOK   bool `json:"dns_ok"`
	HTTPOK  bool `json:"http_ok"`
	HTTPSOK bool `json:"https_ok"`

	HasPrivacyPage    bool `json:"has_privacy_page"`
	HasContactPage    bool `json:"has_contact_page"`
	HasStructuredData bool `json:"has_structured_data"`
	HasOwnDomainEmail bool `json:"has_own_domain_email"`

	Class SiteClass `json:"class"`
}

// ScoreBreakdown is the audited outcome of scoring one candidate.
// Derived, never mutated after creation; recompute instead of patching.
type ScoreBreakdown struct {
	StrongSignals        float64  `json:"strong_signals_score"`
	CorroboratingSignals float64  `json:"corroborating_signals_score"`
	Penalties            float64  `json:"penalties_score"`
	FinalScore           float64  `json:"final_score"`
	Details              []string `json:"details"`
}
