package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/arpalab/resolvit/internal/checkpoint"
)

// RunSnapshot is a point-in-time summary of one batch run.
type RunSnapshot struct {
	RunID       string                  `json:"run_id"`
	Waves       []checkpoint.WaveCounts `json:"waves"`
	Valid       int                     `json:"valid"`
	Invalid     int                     `json:"invalid"`
	NotFound    int                     `json:"not_found"`
	Total       int                     `json:"total"`
	ResolveRate float64                 `json:"resolve_rate"`
	CollectedAt time.Time               `json:"collected_at"`
}

// Collector builds run snapshots from the checkpoint store.
type Collector struct {
	store checkpoint.Store
}

// NewCollector creates a collector over the given store.
func NewCollector(st checkpoint.Store) *Collector {
	return &Collector{store: st}
}

// Runs lists known run ids, most recent first.
func (c *Collector) Runs(ctx context.Context) ([]string, error) {
	runs, err := c.store.Runs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}
	return runs, nil
}

// Collect summarizes one run across its waves. Keys checkpointed in
// several waves count once per wave here; the merged view is the
// orchestrator's job, this is raw progress.
func (c *Collector) Collect(ctx context.Context, runID string) (*RunSnapshot, error) {
	counts, err := c.store.Counts(ctx, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "monitoring: counts for run %s", runID)
	}

	snap := &RunSnapshot{
		RunID:       runID,
		Waves:       counts,
		CollectedAt: time.Now().UTC(),
	}
	for _, wc := range counts {
		snap.Valid += wc.Valid
		snap.Invalid += wc.Invalid
		snap.NotFound += wc.NotFound
	}
	snap.Total = snap.Valid + snap.Invalid + snap.NotFound
	if snap.Total > 0 {
		snap.ResolveRate = float64(snap.Valid) / float64(snap.Total)
	}
	return snap, nil
}
