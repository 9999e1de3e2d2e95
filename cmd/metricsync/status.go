package main

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-entity sync freshness from the ledger",
	Long: `Show the last successful sync, staleness, record count and last
outcome of every entity type. Reads the local ledger only.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		report, err := a.Orchestrator.Status(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		renderStatus(cmd.OutOrStdout(), report)
		return nil
	},
}
