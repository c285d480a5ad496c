// Package orchestrate drives the resolution pipeline across a batch in
// escalating strategy waves with checkpointed, resumable progress.
package orchestrate

import (
	"github.com/rotisserie/eris"
)

// Wave is one discovery strategy, expressed as data so adding a wave
// never touches prior wave logic. Waves run in configuration order,
// each consuming only rows no earlier wave resolved.
type Wave struct {
	Name          string
	SearchLimit   int     // results requested per query
	MaxCandidates int     // per-row candidate cap after dedup
	SeedLinks     bool    // harvest page links for a second mining pass
	AllowSocial   bool    // let a social profile pass as a fallback result
	ScoreRelax    float64 // points subtracted from the pass threshold
}

// waveRegistry holds the known strategies, cheapest and most precise
// first. Configuration selects which run and in what order.
var waveRegistry = map[string]Wave{
	"fast-precision": {
		Name:          "fast-precision",
		SearchLimit:   3,
		MaxCandidates: 3,
	},
	"deep-coverage": {
		Name:          "deep-coverage",
		SearchLimit:   10,
		MaxCandidates: 8,
	},
	"aggressive-probabilistic": {
		Name:          "aggressive-probabilistic",
		SearchLimit:   10,
		MaxCandidates: 10,
		SeedLinks:     true,
		AllowSocial:   true,
	},
	"exhaustive": {
		Name:          "exhaustive",
		SearchLimit:   20,
		MaxCandidates: 12,
		SeedLinks:     true,
		AllowSocial:   true,
		ScoreRelax:    5,
	},
}

// Waves resolves configured wave names against the registry, keeping
// configuration order.
func Waves(names []string) ([]Wave, error) {
	if len(names) == 0 {
		return nil, eris.New("orchestrate: no waves configured")
	}
	out := make([]Wave, 0, len(names))
	for _, name := range names {
		w, ok := waveRegistry[name]
		if !ok {
			return nil, eris.Errorf("orchestrate: unknown wave %q", name)
		}
		out = append(out, w)
	}
	return out, nil
}
