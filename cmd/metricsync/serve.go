package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/engineer-metrics/internal/api"
	"github.com/nhle/engineer-metrics/internal/sync"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sync status and trigger API",
	Long: `Serve GET /api/sync/status and POST /api/sync. When sync.poll_interval
is set, staleness-gated passes also run in the background.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		addr := a.Config.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		poller := sync.NewPoller(a.Orchestrator, a.Config.Sync.PollInterval, a.Logger.Logger)
		if a.Config.Sync.PollInterval > 0 {
			poller.Start(ctx)
			defer poller.Stop()
		}

		srv := api.NewServer(a.Orchestrator, a.Logger.Logger)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(addr) }()
		a.Logger.Info("serving sync API", "addr", addr, "poll_interval", a.Config.Sync.PollInterval)

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr)")
}
