package evidence

import (
	"strings"

	"github.com/arpalab/resolvit/internal/model"
	"github.com/arpalab/resolvit/pkg/extract"
)

const thinContentLen = 200

// Classify labels the candidate's site. The rule order is load-bearing:
// the hard blacklist wins before anything else, so a directory with
// corporate-looking content is never reclassified as CORPORATE.
func (x *Extractor) Classify(cand model.Candidate, page *extract.PageContent, ev model.Evidence) model.SiteClass {
	// 1. Hard blacklist.
	if c := x.blacklist.Domains.Class(cand.RootDomain); c != model.ClassUnknown {
		return c
	}

	// 2. Parked-page indicators in title + body.
	haystack := strings.ToLower(page.Title + " " + page.Text)
	parked := 0
	for _, ind := range x.blacklist.ParkedIndicators {
		if strings.Contains(haystack, strings.ToLower(ind)) {
			parked++
		}
	}
	if parked >= 2 {
		return model.ClassParked
	}

	// 3. Positive corporate signals.
	signals := 0
	if ev.HasPrivacyPage {
		signals++
	}
	if ev.HasContactPage {
		signals++
	}
	if len(ev.FoundVATs) > 0 {
		signals++
	}
	if ev.HasStructuredData {
		signals++
	}
	if ev.HasOwnDomainEmail {
		signals++
	}
	if signals >= 2 {
		return model.ClassCorporate
	}

	// 4. Thin content with nothing else to go on.
	if len(page.Text) < thinContentLen {
		return model.ClassUnknown
	}

	// 5. Default.
	return model.ClassCorporate
}
