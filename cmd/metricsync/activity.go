package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/engineer-metrics/internal/sync"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show each allow-listed member's most recent time entry",
	Long: `Query the PSA system for the latest time entry of every allow-listed
member known to the local cache. Run "metricsync sync --entity members"
first if the cache is empty.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		members, err := a.Store.GetMembersByIdentifiers(ctx, a.Config.Members.AllowList)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			return fmt.Errorf("no allow-listed members in the cache; sync members first")
		}

		activity, err := sync.LatestActivity(ctx, a.Client, members)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), activity)
		}
		renderActivity(cmd.OutOrStdout(), activity, time.Now())
		return nil
	},
}
