package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/arpalab/resolvit/internal/normalize"
	"github.com/arpalab/resolvit/internal/orchestrate"
)

var resolveRow normalize.RawRow

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the official website of a single company",
	RunE: func(cmd *cobra.Command, args []string) error {
		if resolveRow.CompanyName == "" {
			return eris.New("--name is required")
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		entity := normalize.New().Entity(resolveRow)
		orch := orchestrate.New(cfg, env.Deps)
		dec, err := orch.ResolveOne(ctx, entity)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(dec); err != nil {
			return eris.Wrap(err, "encode decision")
		}
		if !dec.Resolved() {
			fmt.Fprintf(os.Stderr, "not resolved: %s\n", dec.ReasonCode)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveRow.CompanyName, "name", "", "company name (required)")
	resolveCmd.Flags().StringVar(&resolveRow.City, "city", "", "city")
	resolveCmd.Flags().StringVar(&resolveRow.Province, "province", "", "province code")
	resolveCmd.Flags().StringVar(&resolveRow.Address, "address", "", "street address")
	resolveCmd.Flags().StringVar(&resolveRow.Phones, "phone", "", "phone number(s)")
	resolveCmd.Flags().StringVar(&resolveRow.VATID, "vat", "", "VAT id")
	resolveCmd.Flags().StringVar(&resolveRow.SourceURL, "url", "", "known URL to verify")
	rootCmd.AddCommand(resolveCmd)
}
