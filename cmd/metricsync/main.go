// Command metricsync keeps the local engineer-metrics cache in sync with the
// PSA system of record.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/engineer-metrics/internal/app"
	"github.com/nhle/engineer-metrics/internal/logging"
)

// version is set at build time with -ldflags.
var version = "dev"

var (
	configPath  string
	dbPath      string
	jsonOutput  bool
	verboseFlag bool

	// credentials overrides the system keyring; tests set it.
	credentials app.Credentials

	// appLogger overrides the configured logger; tests set it.
	appLogger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:           "metricsync",
	Short:         "Sync engineer metrics from the PSA system into a local cache",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/metricsync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Cache database path (overrides store.path)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(statusCmd, syncCmd, buildSyncCmd, serveCmd, watchCmd, authCmd, activityCmd)
}

func appOptions() app.Options {
	return app.Options{
		ConfigPath:  configPath,
		DBPath:      dbPath,
		Verbose:     verboseFlag,
		Version:     version,
		Credentials: credentials,
		Logger:      appLogger,
	}
}

// openApp assembles the application for a command. Callers must Close it.
func openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, appOptions())
}

func closeApp(ctx context.Context, a *app.App) {
	if err := a.Close(context.WithoutCancel(ctx)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: closing: %v\n", err)
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
