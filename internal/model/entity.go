// Package model defines the shared types flowing through the resolution pipeline.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Entity is the canonical, comparable shape of one input row.
// Immutable once produced by the normalizer; one per row.
type Entity struct {
	CompanyName   string   `json:"company_name"`
	City          string   `json:"city"`
	Province      string   `json:"province"`
	AddressTokens []string `json:"address_tokens"`
	Phones        []string `json:"phones"`
	VATID         string   `json:"vat_id"`
	Fingerprint   string   `json:"fingerprint"`

	// SourceURL is an optional caller-supplied website to verify first.
	SourceURL string `json:"source_url,omitempty"`
	// RawAddress keeps the pre-tokenized address for the company key.
	RawAddress string `json:"raw_address,omitempty"`
}

// Key returns the identity key used for checkpointing and cross-wave
// dedup: lowercase "name|city|address".
func (e Entity) Key() string {
	return strings.ToLower(e.CompanyName + "|" + e.City + "|" + e.RawAddress)
}

// NewFingerprint hashes name|phone|city into a stable identifier.
func NewFingerprint(name, phone, city string) string {
	h := sha256.Sum256([]byte(name + "|" + phone + "|" + city))
	return hex.EncodeToString(h[:8])
}
