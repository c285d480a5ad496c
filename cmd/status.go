package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arpalab/resolvit/internal/monitoring"
)

var statusRunID string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show checkpoint progress for a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		collector := monitoring.NewCollector(env.Store)

		if statusRunID == "" {
			runs, err := collector.Runs(ctx)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}
			for _, id := range runs {
				fmt.Println(id)
			}
			return nil
		}

		snap, err := collector.Collect(ctx, statusRunID)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusRunID, "run-id", "", "run to inspect (omit to list runs)")
	rootCmd.AddCommand(statusCmd)
}
