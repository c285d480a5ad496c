package orchestrate

import (
	"context"

	"go.uber.org/zap"

	"github.com/arpalab/resolvit/internal/checkpoint"
	"github.com/arpalab/resolvit/internal/model"
)

// Merged consolidates a run's checkpoint sets into one decision per
// company key. Valid decisions win by earliest wave, since earlier
// waves use higher-precision strategies. Keys no wave resolved carry
// their last wave's verdict, the final state after all escalation.
// A key valid anywhere never also appears as invalid or not-found.
func (o *Orchestrator) Merged(ctx context.Context, runID string) ([]model.Decision, error) {
	waves := o.cfg.Batch.Waves

	var out []model.Decision
	valid := make(map[string]bool)

	for _, wave := range waves {
		decs, err := o.deps.Store.Decisions(ctx, runID, wave, checkpoint.SetValid)
		if err != nil {
			return nil, err
		}
		for _, d := range decs {
			if valid[d.CompanyKey] {
				continue
			}
			valid[d.CompanyKey] = true
			out = append(out, d)
		}
	}

	// Unresolved rows: later waves re-attempted them, so the last
	// checkpointed verdict is the authoritative one.
	unresolved := make(map[string]model.Decision)
	var order []string
	for _, wave := range waves {
		for _, set := range []checkpoint.Set{checkpoint.SetInvalid, checkpoint.SetNotFound} {
			decs, err := o.deps.Store.Decisions(ctx, runID, wave, set)
			if err != nil {
				return nil, err
			}
			for _, d := range decs {
				if valid[d.CompanyKey] {
					continue
				}
				if _, ok := unresolved[d.CompanyKey]; !ok {
					order = append(order, d.CompanyKey)
				}
				unresolved[d.CompanyKey] = d
			}
		}
	}
	for _, key := range order {
		out = append(out, unresolved[key])
	}

	zap.L().Info("merge complete",
		zap.String("run_id", runID),
		zap.Int("valid", len(valid)),
		zap.Int("unresolved", len(order)),
	)
	return out, nil
}
