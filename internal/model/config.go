package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix is prepended to environment overrides, e.g.
// METRICSYNC_PSA_PUBLIC_KEY overrides psa.public_key.
const envPrefix = "METRICSYNC"

// PSAConfig holds the connection settings for the remote PSA API.
type PSAConfig struct {
	// BaseURL is the REST root, e.g.
	// https://api-na.myconnectwise.net/v4_6_release/apis/3.0.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// CompanyID is the tenant identifier used in the credential header.
	CompanyID string `mapstructure:"company_id" yaml:"company_id"`

	// ClientID identifies the integration and is sent on every request.
	ClientID string `mapstructure:"client_id" yaml:"client_id"`

	PublicKey  string `mapstructure:"public_key" yaml:"public_key"`
	PrivateKey string `mapstructure:"private_key" yaml:"private_key"`

	// PageSize is the page size for every fetch, capped at the remote maximum.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`

	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
}

// MembersConfig controls which members' data is retained.
type MembersConfig struct {
	AllowList []string `mapstructure:"allow_list" yaml:"allow_list"`
}

// BoardsConfig controls board classification and service board matching.
type BoardsConfig struct {
	// ServiceNames are display names fuzzy-matched against board names.
	ServiceNames []string `mapstructure:"service_names" yaml:"service_names"`

	// ServiceIDs, when non-empty, replaces name matching with an exact list.
	ServiceIDs []int64 `mapstructure:"service_ids" yaml:"service_ids"`

	ProjectPattern string `mapstructure:"project_pattern" yaml:"project_pattern"`
}

// SyncConfig holds the orchestrator policy.
type SyncConfig struct {
	StaleAfter     time.Duration `mapstructure:"stale_after" yaml:"stale_after"`
	FallbackToFull bool          `mapstructure:"fallback_to_full" yaml:"fallback_to_full"`
	BuildTimeout   time.Duration `mapstructure:"build_timeout" yaml:"build_timeout"`

	// PollInterval runs staleness-gated passes while serving. Zero disables.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// StoreConfig locates the local cache database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	Stdout       bool   `mapstructure:"stdout" yaml:"stdout"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
}

// ServerConfig holds the HTTP trigger settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	PSA       PSAConfig       `mapstructure:"psa" yaml:"psa"`
	Members   MembersConfig   `mapstructure:"members" yaml:"members"`
	Boards    BoardsConfig    `mapstructure:"boards" yaml:"boards"`
	Sync      SyncConfig      `mapstructure:"sync" yaml:"sync"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
}

// Configuration defaults.
const (
	DefaultPageSize     = 1000
	DefaultStaleAfter   = time.Hour
	DefaultBuildTimeout = 2 * time.Minute
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultMaxRetries   = 3
)

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/metricsync/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "metricsync", "config.yaml")
}

// DefaultStorePath returns the default path of the local cache database.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "metrics.db")
	}
	return filepath.Join(home, ".local", "share", "metricsync", "metrics.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		PSA: PSAConfig{
			PageSize:   DefaultPageSize,
			Timeout:    DefaultHTTPTimeout,
			MaxRetries: DefaultMaxRetries,
		},
		Boards: BoardsConfig{
			ProjectPattern: DefaultProjectBoardPattern,
		},
		Sync: SyncConfig{
			StaleAfter:     DefaultStaleAfter,
			FallbackToFull: true,
			BuildTimeout:   DefaultBuildTimeout,
		},
		Store: StoreConfig{Path: DefaultStorePath()},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper,
// applying METRICSYNC_* environment overrides. If the file does not exist,
// defaults plus environment values are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values and so
	// AutomaticEnv can see every key during Unmarshal.
	def := defaultAppConfig()
	v.SetDefault("psa.base_url", "")
	v.SetDefault("psa.company_id", "")
	v.SetDefault("psa.client_id", "")
	v.SetDefault("psa.public_key", "")
	v.SetDefault("psa.private_key", "")
	v.SetDefault("psa.page_size", def.PSA.PageSize)
	v.SetDefault("psa.timeout", def.PSA.Timeout)
	v.SetDefault("psa.max_retries", def.PSA.MaxRetries)
	v.SetDefault("members.allow_list", []string{})
	v.SetDefault("boards.service_names", []string{})
	v.SetDefault("boards.service_ids", []int64{})
	v.SetDefault("boards.project_pattern", def.Boards.ProjectPattern)
	v.SetDefault("sync.stale_after", def.Sync.StaleAfter)
	v.SetDefault("sync.fallback_to_full", def.Sync.FallbackToFull)
	v.SetDefault("sync.build_timeout", def.Sync.BuildTimeout)
	v.SetDefault("sync.poll_interval", def.Sync.PollInterval)
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", def.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.stdout", false)
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("server.addr", def.Server.Addr)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Comma-separated env values arrive as a single element.
	cfg.Members.AllowList = splitList(cfg.Members.AllowList)
	cfg.Boards.ServiceNames = splitList(cfg.Boards.ServiceNames)

	if cfg.PSA.PageSize <= 0 || cfg.PSA.PageSize > DefaultPageSize {
		cfg.PSA.PageSize = DefaultPageSize
	}
	if cfg.Sync.StaleAfter <= 0 {
		cfg.Sync.StaleAfter = DefaultStaleAfter
	}

	return cfg, nil
}

// Validate reports every missing required setting in a single error.
func (c *AppConfig) Validate() error {
	var missing []string
	required := []struct {
		key   string
		value string
	}{
		{"psa.base_url", c.PSA.BaseURL},
		{"psa.company_id", c.PSA.CompanyID},
		{"psa.client_id", c.PSA.ClientID},
		{"psa.public_key", c.PSA.PublicKey},
		{"psa.private_key", c.PSA.PrivateKey},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(NewIdentifierSet(c.Members.AllowList)) == 0 {
		missing = append(missing, "members.allow_list")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// splitList expands comma-separated entries and drops blanks.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
