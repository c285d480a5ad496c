// Package normalize canonicalizes raw input rows into comparable entities.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/arpalab/resolvit/internal/model"
)

// RawRow is one untyped input record as read from CSV/XLSX.
type RawRow struct {
	CompanyName string
	City        string
	Province    string
	Address     string
	Phones      string
	VATID       string
	SourceURL   string
}

// Legal-entity suffixes and generic business stopwords stripped from names.
var (
	legalSuffixes = []string{
		"s.r.l.s.", "s.r.l.", "srls", "srl", "s.p.a.", "spa", "s.n.c.", "snc",
		"s.a.s.", "sas", "s.s.", "sc", "scarl", "s.c.a.r.l.", "coop", "onlus",
		"ltd", "llc", "gmbh", "inc", "&amp; c.", "& c.", "e c.", "di",
	}
	nameStopwords = map[string]bool{
		"ditta": true, "impresa": true, "azienda": true, "societa": true,
		"studio": true, "gruppo": true, "officina": true, "fratelli": true,
		"f.lli": true, "flli": true, "eredi": true, "new": true, "the": true,
	}
	streetPrefixes = map[string]bool{
		"via": true, "viale": true, "piazza": true, "piazzale": true,
		"corso": true, "largo": true, "vicolo": true, "strada": true,
		"localita": true, "loc": true, "frazione": true, "fraz": true,
		"contrada": true, "borgo": true, "ss": true, "sp": true,
	}

	punctRe     = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spaceRe     = regexp.MustCompile(`\s+`)
	civicRe     = regexp.MustCompile(`[\s,]+\d+[a-zA-Z]?(/\w+)?\s*$`)
	nonDigitRe  = regexp.MustCompile(`\D`)
	phoneSplit  = regexp.MustCompile(`;|\s+/\s+`)
	diacriticTx = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Normalizer turns raw rows into canonical entities. It is stateless
// and deterministic: identical input always yields identical output.
type Normalizer struct{}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Entity canonicalizes one raw row. Missing fields degrade to empty
// values; it never fails.
func (n *Normalizer) Entity(row RawRow) model.Entity {
	name := n.CompanyName(row.CompanyName)
	city := foldCase(row.City)
	phones := n.Phones(row.Phones)

	firstPhone := ""
	if len(phones) > 0 {
		firstPhone = phones[0]
	}

	return model.Entity{
		CompanyName:   name,
		City:          city,
		Province:      strings.ToUpper(strings.TrimSpace(row.Province)),
		AddressTokens: n.AddressTokens(row.Address),
		Phones:        phones,
		VATID:         nonDigitRe.ReplaceAllString(row.VATID, ""),
		Fingerprint:   model.NewFingerprint(name, firstPhone, city),
		SourceURL:     strings.TrimSpace(row.SourceURL),
		RawAddress:    foldCase(row.Address),
	}
}

// CompanyName lowercases, folds diacritics, strips punctuation, legal
// suffixes and generic business stopwords.
func (n *Normalizer) CompanyName(raw string) string {
	s := foldCase(raw)
	for _, suf := range legalSuffixes {
		s = strings.ReplaceAll(s, " "+suf+" ", " ")
		s = strings.TrimSuffix(s, " "+suf)
		s = strings.TrimPrefix(s, suf+" ")
	}
	s = punctRe.ReplaceAllString(s, " ")

	var kept []string
	for _, tok := range strings.Fields(s) {
		if nameStopwords[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// Phones splits a raw phone field into canonical E.164-ish numbers.
// Only explicit delimiters split: semicolons, or "/" with surrounding
// spaces. A bare slash inside a number is not a separator.
func (n *Normalizer) Phones(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for _, part := range phoneSplit.Split(raw, -1) {
		p := NormalizePhone(part)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// NormalizePhone canonicalizes a single Italian phone number.
// Numbers with fewer than 5 digits are discarded (returns "").
// Idempotent: normalizing an already-normalized number is a no-op.
func NormalizePhone(raw string) string {
	s := strings.TrimSpace(raw)
	hadPlus := strings.HasPrefix(s, "+")
	digits := nonDigitRe.ReplaceAllString(s, "")
	if len(digits) < 5 {
		return ""
	}

	switch {
	case strings.HasPrefix(digits, "0039"):
		return "+39" + digits[4:]
	case hadPlus:
		return "+" + digits
	case digits[0] == '0' || digits[0] == '3':
		return "+39" + digits
	default:
		return "+" + digits
	}
}

// AddressTokens tokenizes an address for verbatim page matching: the
// leading street-type word and any trailing civic-number clause are
// stripped, then tokens of length <= 2 are dropped.
func (n *Normalizer) AddressTokens(raw string) []string {
	s := foldCase(raw)
	if s == "" {
		return nil
	}
	s = civicRe.ReplaceAllString(s, "")
	s = punctRe.ReplaceAllString(s, " ")

	toks := strings.Fields(s)
	if len(toks) > 0 && streetPrefixes[toks[0]] {
		toks = toks[1:]
	}

	var out []string
	for _, t := range toks {
		if len(t) <= 2 {
			continue
		}
		out = append(out, t)
	}
	return out
}

// foldCase lowercases, folds diacritics, and collapses whitespace.
func foldCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if folded, _, err := transform.String(diacriticTx, s); err == nil {
		s = folded
	}
	return spaceRe.ReplaceAllString(s, " ")
}
