package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arpalab/resolvit/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "resolvit",
	Short: "Official-website resolver for business records",
	Long:  "Resolves the official website of businesses from noisy identity data (name, city, phone, VAT id) at batch scale, with checkpointed multi-wave search escalation.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
