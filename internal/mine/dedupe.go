package mine

import (
	"sort"

	"github.com/arpalab/resolvit/internal/model"
)

// Dedupe collapses candidates to one per root domain, keeping the
// first seen after a stable sort by rank ascending, then truncates to
// maxCandidates. Pure function, no I/O.
func Dedupe(cands []model.Candidate, maxCandidates int) []model.Candidate {
	sorted := make([]model.Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rank < sorted[j].Rank
	})

	seen := make(map[string]bool, len(sorted))
	out := make([]model.Candidate, 0, len(sorted))
	for _, c := range sorted {
		if c.RootDomain == "" || seen[c.RootDomain] {
			continue
		}
		seen[c.RootDomain] = true
		out = append(out, c)
		if maxCandidates > 0 && len(out) >= maxCandidates {
			break
		}
	}
	return out
}
