// Package evidence computes comparable facts from fetched candidate
// pages and classifies the hosting site.
package evidence

import (
	"regexp"
	"strings"

	"github.com/arpalab/resolvit/internal/mine"
	"github.com/arpalab/resolvit/internal/model"
	"github.com/arpalab/resolvit/internal/normalize"
	"github.com/arpalab/resolvit/pkg/extract"
)

const nameMatchWindow = 1000

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+|00)?\d[\d\s./\-]{4,}\d`)
)

// Health carries the validity flags determined before fetching.
type Health struct {
	DNSOK   bool
	HTTPOK  bool
	HTTPSOK bool
}

// Extractor computes Evidence from page content.
type Extractor struct {
	blacklist *Blacklists
}

// Blacklists bundles the noise-domain matcher with parked indicators.
type Blacklists struct {
	Domains          *mine.Blacklist
	ParkedIndicators []string
	SocialDomains    []string
}

// NewExtractor creates an evidence extractor.
func NewExtractor(b *Blacklists) *Extractor {
	return &Extractor{blacklist: b}
}

// Extract computes Evidence for one (candidate, page) pair and
// classifies the site. Deterministic; degrades to zero scores on empty
// content.
func (x *Extractor) Extract(cand model.Candidate, page *extract.PageContent, health Health, e model.Entity) model.Evidence {
	ev := model.Evidence{
		Domain:  cand.RootDomain,
		URL:     cand.SourceURL,
		DNSOK:   health.DNSOK,
		HTTPOK:  health.HTTPOK,
		HTTPSOK: health.HTTPSOK,
	}
	if page == nil {
		page = &extract.PageContent{}
	}

	lowerText := strings.ToLower(page.Text)

	ev.AddressMatchScore = tokenFraction(e.AddressTokens, lowerText)
	ev.NameMatchScore = nameMatch(e.CompanyName, page.Title, lowerText)
	ev.FoundVATs = ScanVATs(page.RawHTML)
	ev.FoundEmails = findEmails(page)
	ev.FoundPhones, ev.MatchedPhone = findPhones(page, e.Phones)
	ev.PhoneMatch = ev.MatchedPhone != ""
	ev.SocialLinks = x.socialLinks(page.Links.External)

	ev.HasPrivacyPage = len(page.Links.Privacy) > 0
	ev.HasContactPage = len(page.Links.Contact) > 0
	ev.HasStructuredData = hasOrganizationData(page.StructuredData)
	ev.HasOwnDomainEmail = ownDomainEmail(ev.FoundEmails, cand.RootDomain)

	ev.Class = x.Classify(cand, page, ev)
	return ev
}

// tokenFraction returns the fraction of tokens found verbatim in text.
func tokenFraction(tokens []string, lowerText string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	found := 0
	for _, t := range tokens {
		if strings.Contains(lowerText, t) {
			found++
		}
	}
	return float64(found) / float64(len(tokens))
}

// nameMatch is the better of title token-set similarity and a substring
// match of the name's tokens against the first ~1000 chars of body text.
func nameMatch(name, title, lowerText string) float64 {
	nameToks := strings.Fields(name)
	if len(nameToks) == 0 {
		return 0
	}

	titleSim := tokenSetSimilarity(nameToks, strings.Fields(strings.ToLower(title)))

	window := lowerText
	if len(window) > nameMatchWindow {
		window = window[:nameMatchWindow]
	}
	bodySim := tokenFraction(nameToks, window)

	if titleSim > bodySim {
		return titleSim
	}
	return bodySim
}

// tokenSetSimilarity is the Jaccard index of two token sets.
func tokenSetSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}

	inter := 0
	for t := range setA {
		if setB[t] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func findEmails(page *extract.PageContent) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range emailRe.FindAllString(page.RawHTML, -1) {
		m = strings.ToLower(m)
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// findPhones normalizes phone-shaped digit runs from the page and
// reports the first one matching the entity's canonical set.
func findPhones(page *extract.PageContent, entityPhones []string) (found []string, matched string) {
	want := make(map[string]bool, len(entityPhones))
	for _, p := range entityPhones {
		want[p] = true
	}

	seen := make(map[string]bool)
	for _, raw := range phoneRe.FindAllString(page.Text+" "+page.RawHTML, -1) {
		p := normalize.NormalizePhone(raw)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		found = append(found, p)
		if matched == "" && want[p] {
			matched = p
		}
	}
	return found, matched
}

func (x *Extractor) socialLinks(external []string) []string {
	var out []string
	for _, l := range external {
		host := mine.BareHost(l)
		for _, d := range x.blacklist.SocialDomains {
			if host == d || strings.HasSuffix(host, "."+d) {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

func hasOrganizationData(blocks []string) bool {
	for _, b := range blocks {
		if strings.Contains(b, "Organization") || strings.Contains(b, "LocalBusiness") {
			return true
		}
	}
	return false
}

func ownDomainEmail(emails []string, domain string) bool {
	for _, e := range emails {
		if i := strings.LastIndex(e, "@"); i >= 0 {
			if mine.RootDomain(e[i+1:]) == domain {
				return true
			}
		}
	}
	return false
}
