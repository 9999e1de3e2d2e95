// Package app wires configuration, logging, telemetry, the local store and
// the PSA client into a sync orchestrator, and tears them down again.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/engineer-metrics/internal/credential"
	"github.com/nhle/engineer-metrics/internal/logging"
	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/source/psa"
	"github.com/nhle/engineer-metrics/internal/store"
	"github.com/nhle/engineer-metrics/internal/sync"
	"github.com/nhle/engineer-metrics/internal/telemetry"
)

const serviceName = "metricsync"

// Credentials fills PSA secrets missing from the configuration.
type Credentials interface {
	FillPSA(cfg *model.PSAConfig) ([]string, error)
}

// Options controls how an App is assembled.
type Options struct {
	// ConfigPath is the YAML configuration file. Empty uses the default path.
	ConfigPath string

	// DBPath overrides store.path.
	DBPath string

	Verbose bool
	Version string

	// Credentials overrides the system keyring.
	Credentials Credentials

	// Logger overrides the logger built from the configuration.
	Logger *logging.Logger
}

// App owns the long-lived components of one process.
type App struct {
	Config       *model.AppConfig
	Logger       *logging.Logger
	Store        *store.SQLiteStore
	Client       *psa.Client
	Orchestrator *sync.Orchestrator
}

// LoadConfig reads the configuration, applies the --db override and fills
// missing secrets from the keyring. It does not validate.
func LoadConfig(opts Options) (*model.AppConfig, error) {
	path := opts.ConfigPath
	if path == "" {
		path = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if opts.DBPath != "" {
		cfg.Store.Path = opts.DBPath
	}
	return cfg, nil
}

// New assembles an App. The configuration must pass validation after the
// keyring fallback.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger, err = logging.New(cfg.Log, opts.Verbose)
		if err != nil {
			return nil, err
		}
	}

	fillCredentials(cfg, opts.Credentials, logger)

	if err := cfg.Validate(); err != nil {
		_ = logger.Close()
		return nil, err
	}

	if err := telemetry.Init(ctx, cfg.Telemetry, serviceName, opts.Version); err != nil {
		logger.Warn("telemetry disabled", "error", err)
	}

	s, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		telemetry.Shutdown(ctx)
		_ = logger.Close()
		return nil, fmt.Errorf("opening store: %w", err)
	}

	client := psa.NewClient(cfg.PSA, psa.WithLogger(logger.Logger))
	orch := sync.NewOrchestrator(s, client, sync.ConfigFrom(cfg), sync.WithLogger(logger.Logger))

	logger.Debug("application ready", "store", cfg.Store.Path, "base_url", cfg.PSA.BaseURL)
	return &App{
		Config:       cfg,
		Logger:       logger,
		Store:        s,
		Client:       client,
		Orchestrator: orch,
	}, nil
}

// fillCredentials consults the keyring for secrets absent from the config
// file and environment. Keyring problems are logged, not fatal; validation
// reports what is still missing.
func fillCredentials(cfg *model.AppConfig, creds Credentials, logger *logging.Logger) {
	if cfg.PSA.ClientID != "" && cfg.PSA.PublicKey != "" && cfg.PSA.PrivateKey != "" {
		return
	}
	if creds == nil {
		ring, err := credential.Open()
		if err != nil {
			logger.Debug("keyring unavailable", "error", err)
			return
		}
		creds = ring
	}
	filled, err := creds.FillPSA(&cfg.PSA)
	if err != nil {
		logger.Warn("reading keyring failed", "error", err)
	}
	if len(filled) > 0 {
		logger.Debug("credentials loaded from keyring", "keys", filled)
	}
}

// Close releases every component. It is safe to call once.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	telemetry.Shutdown(ctx)
	if a.Logger != nil {
		errs = append(errs, a.Logger.Close())
	}
	return errors.Join(errs...)
}
