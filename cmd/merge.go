package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arpalab/resolvit/internal/orchestrate"
)

var mergeRunID string

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Write the consolidated output for an existing run",
	Long:  "Merges a run's per-wave checkpoint sets into one decision per company (earliest resolving wave wins) and writes the output file. Useful after resuming a crashed batch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		orch := orchestrate.New(cfg, env.Deps)
		merged, err := orch.Merged(ctx, mergeRunID)
		if err != nil {
			return err
		}
		if err := writeMerged(cfg.Output.Path, merged); err != nil {
			return err
		}

		fmt.Printf("run %s: %d rows written to %s\n", mergeRunID, len(merged), cfg.Output.Path)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeRunID, "run-id", "", "run to merge (required)")
	_ = mergeCmd.MarkFlagRequired("run-id")
	rootCmd.AddCommand(mergeCmd)
}
