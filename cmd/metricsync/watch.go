package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/engineer-metrics/internal/ui/dashboard"
)

var watchRefresh time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live terminal dashboard of the sync ledger",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		m := dashboard.New(ctx, a.Orchestrator, watchRefresh)
		_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchRefresh, "refresh", 5*time.Second, "Ledger reload interval")
}
