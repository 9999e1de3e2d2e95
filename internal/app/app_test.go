package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/engineer-metrics/internal/credential"
	"github.com/nhle/engineer-metrics/internal/logging"
	"github.com/nhle/engineer-metrics/internal/sync"
)

const baseConfig = `
psa:
  base_url: https://psa.example.com/v4_6_release/apis/3.0
  company_id: acme
members:
  allow_list: [eng1, eng2]
boards:
  service_names: ["Help Desk"]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNew_FillsSecretsFromKeyring(t *testing.T) {
	ring := credential.NewStore(keyring.NewArrayKeyring([]keyring.Item{
		{Key: credential.KeyClientID, Data: []byte("client")},
		{Key: credential.KeyPublicKey, Data: []byte("pub")},
		{Key: credential.KeyPrivateKey, Data: []byte("priv")},
	}))
	dbPath := filepath.Join(t.TempDir(), "data", "metrics.db")

	a, err := New(context.Background(), Options{
		ConfigPath:  writeConfig(t, baseConfig),
		DBPath:      dbPath,
		Credentials: ring,
		Logger:      logging.Discard(),
	})
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.Close(context.Background())) }()

	assert.Equal(t, "client", a.Config.PSA.ClientID)
	assert.Equal(t, "priv", a.Config.PSA.PrivateKey)
	assert.Equal(t, dbPath, a.Config.Store.Path)
	assert.FileExists(t, dbPath)

	report, err := a.Orchestrator.Status(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Entities, len(sync.AllEntities))
	assert.True(t, report.IsStale)
}

func TestNew_ReportsMissingSecrets(t *testing.T) {
	_, err := New(context.Background(), Options{
		ConfigPath:  writeConfig(t, baseConfig),
		DBPath:      filepath.Join(t.TempDir(), "metrics.db"),
		Credentials: credential.NewStore(keyring.NewArrayKeyring(nil)),
		Logger:      logging.Discard(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "psa.client_id")
	assert.Contains(t, err.Error(), "psa.public_key")
	assert.Contains(t, err.Error(), "psa.private_key")
}

func TestLoadConfig_DBOverride(t *testing.T) {
	cfg, err := LoadConfig(Options{ConfigPath: writeConfig(t, baseConfig), DBPath: "/tmp/x.db"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
	assert.Equal(t, []string{"eng1", "eng2"}, cfg.Members.AllowList)
}
