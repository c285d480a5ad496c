package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arpalab/resolvit/internal/config"
	"github.com/arpalab/resolvit/internal/ingest"
	"github.com/arpalab/resolvit/internal/model"
	"github.com/arpalab/resolvit/internal/monitoring"
	"github.com/arpalab/resolvit/internal/normalize"
	"github.com/arpalab/resolvit/internal/orchestrate"
	"github.com/arpalab/resolvit/internal/output"
)

var (
	batchInput string
	batchRunID string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve official websites for a batch input file",
	Long:  "Reads a CSV or XLSX of business records, runs the resolution pipeline in escalating waves with checkpointing, and writes one merged output row per input row.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		rows, err := loadRows(batchInput, batchLimit)
		if err != nil {
			return err
		}

		runID := batchRunID
		if runID == "" {
			runID = uuid.NewString()
		}

		writer, err := output.NewWriter(wavePathFor(cfg.Output))
		if err != nil {
			return err
		}
		env.Deps.Writer = writer

		orch := orchestrate.New(cfg, env.Deps)

		go monitoring.NewWatchdog(0, 0).Run(ctx)

		runErr := orch.Run(ctx, runID, rows)
		if err := writer.Close(); err != nil {
			zap.L().Error("wave output writer", zap.Error(err))
		}
		if runErr != nil {
			return eris.Wrapf(runErr, "batch run %s", runID)
		}

		processed, resolved, failed := orch.Stats()
		zap.L().Info("all waves complete",
			zap.String("run_id", runID),
			zap.Int64("processed", processed),
			zap.Int64("resolved", resolved),
			zap.Int64("errors", failed),
		)

		merged, err := orch.Merged(ctx, runID)
		if err != nil {
			return eris.Wrapf(err, "merge run %s", runID)
		}
		if err := writeMerged(cfg.Output.Path, merged); err != nil {
			return err
		}

		fmt.Printf("run %s: %d rows, %d resolved, output %s\n",
			runID, len(merged), resolved, cfg.Output.Path)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "input CSV or XLSX file (required)")
	batchCmd.Flags().StringVar(&batchRunID, "run-id", "", "resume an existing run instead of starting a new one")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "process at most N input rows (0 = all)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// loadRows ingests and normalizes the input file. Invalid rows are kept
// so they still produce an output row.
func loadRows(path string, limit int) ([]orchestrate.InputRow, error) {
	raw, err := ingest.Read(path)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}

	norm := normalize.New()
	rows := make([]orchestrate.InputRow, 0, len(raw))
	invalid := 0
	for _, r := range raw {
		row := orchestrate.InputRow{Entity: norm.Entity(r.Raw)}
		if r.Invalid {
			row.Invalid = true
			row.Err = fmt.Sprintf("line %d: missing company name or identifying signal", r.Line)
			invalid++
		}
		rows = append(rows, row)
	}

	zap.L().Info("input loaded",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
		zap.Int("invalid", invalid),
	)
	return rows, nil
}

// wavePathFor derives the incremental per-wave log path from the final
// output path, e.g. results.csv -> results.waves.csv.
func wavePathFor(out config.OutputConfig) config.OutputConfig {
	ext := filepath.Ext(out.Path)
	out.Path = strings.TrimSuffix(out.Path, ext) + ".waves" + ext
	return out
}

// writeMerged writes the consolidated decisions through a fresh writer.
func writeMerged(path string, decisions []model.Decision) error {
	outCfg := cfg.Output
	outCfg.Path = path
	w, err := output.NewWriter(outCfg)
	if err != nil {
		return err
	}
	for _, d := range decisions {
		w.Enqueue(d)
	}
	return w.Close()
}
