// Package checkpoint persists per-wave resolution progress so crashed
// or re-run batches never re-process completed work.
package checkpoint

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/arpalab/resolvit/internal/config"
	"github.com/arpalab/resolvit/internal/model"
)

// Set names one of the three append-only checkpoint sets of a wave.
type Set string

const (
	SetValid    Set = "valid"    // resolved and content-confirmed
	SetInvalid  Set = "invalid"  // website found but content rejected
	SetNotFound Set = "notfound" // no domain resolved (incl. errors)
)

// SetFor maps a decision to the checkpoint set it lands in: candidates
// were found but all rejected means "invalid", everything else that
// didn't resolve is "notfound".
func SetFor(d model.Decision) Set {
	switch {
	case d.Resolved():
		return SetValid
	case d.Status == model.StatusNoDomainFound && len(d.Candidates) > 0:
		return SetInvalid
	default:
		return SetNotFound
	}
}

// WaveCounts summarizes one wave's checkpoint sets.
type WaveCounts struct {
	Wave     string `json:"wave"`
	Valid    int    `json:"valid"`
	Invalid  int    `json:"invalid"`
	NotFound int    `json:"not_found"`
}

// Store is the checkpoint persistence interface. Appends are
// idempotent: re-checkpointing an existing (run, wave, key) is a no-op,
// which is what makes re-running a crashed wave safe.
type Store interface {
	// Append records a decision in the given wave's set.
	Append(ctx context.Context, runID, wave string, set Set, d model.Decision) error

	// Keys returns every company key already checkpointed in any set of
	// the wave.
	Keys(ctx context.Context, runID, wave string) (map[string]Set, error)

	// Decisions loads all decisions in one set of a wave, in insertion order.
	Decisions(ctx context.Context, runID, wave string, set Set) ([]model.Decision, error)

	// Counts summarizes every wave of a run.
	Counts(ctx context.Context, runID string) ([]WaveCounts, error)

	// Runs lists known run ids, most recent first.
	Runs(ctx context.Context) ([]string, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs the store selected by configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("checkpoint: unknown store driver %q", cfg.Driver)
	}
}
