package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/engineer-metrics/internal/credential"
	"github.com/nhle/engineer-metrics/internal/logging"
	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/sync"
	"github.com/nhle/engineer-metrics/tests/testutil"
)

func TestMain(m *testing.M) {
	credentials = credential.NewStore(keyring.NewArrayKeyring(nil))
	appLogger = logging.Discard()
	os.Exit(m.Run())
}

// resetFlags restores every flag to its default between executions.
func resetFlags() {
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
	reset(rootCmd.PersistentFlags())
	for _, c := range []*cobra.Command{statusCmd, syncCmd, buildSyncCmd, serveCmd, watchCmd, authCmd, activityCmd} {
		reset(c.Flags())
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// setup writes a config pointing at a mock PSA server and returns the
// --config and --db flags.
func setup(t *testing.T) (*testutil.PSAServer, []string) {
	t.Helper()

	srv := testutil.NewPSAServer(t)
	srv.SetCollection("/system/members", testutil.MemberRecord(1, "eng1"), testutil.MemberRecord(2, "eng9"))
	srv.SetCollection("/service/boards", testutil.BoardRecord(10, "Help Desk (MS)"))
	srv.SetCollection("/service/tickets", testutil.TicketRecord(1, 10, "eng1"))
	srv.SetCollection("/time/entries", testutil.TimeEntryRecord(100, 1, 1))
	srv.SetCollection("/project/projects", testutil.ProjectRecord(7, "Migration", "In Progress", "eng1"))
	srv.SetCollection("/project/tickets", testutil.ProjectTicketRecord(50, 7))

	dir := t.TempDir()
	cfg := fmt.Sprintf(`
psa:
  base_url: %s
  company_id: acme
  client_id: client
  public_key: pub
  private_key: priv
  max_retries: 0
members:
  allow_list: [eng1]
boards:
  service_names: ["Help Desk"]
`, srv.URL())
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	return srv, []string{"--config", cfgPath, "--db", filepath.Join(dir, "metrics.db")}
}

func TestSyncThenStatus(t *testing.T) {
	srv, flags := setup(t)

	out, err := execute(t, append([]string{"sync", "--json"}, flags...)...)
	require.NoError(t, err, out)

	var resp sync.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Results, len(sync.AllEntities))
	for _, r := range resp.Results {
		assert.True(t, r.Synced, "%s: %s", r.Entity, r.Message)
	}

	srv.Reset()
	out, err = execute(t, append([]string{"status", "--json"}, flags...)...)
	require.NoError(t, err, out)
	assert.Empty(t, srv.Requests(), "status must not call the remote API")

	var report sync.StatusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.IsStale)
	for _, e := range report.Entities {
		assert.Equal(t, model.LedgerSuccess, e.Status, e.Entity)
	}

	out, err = execute(t, append([]string{"status"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "timeEntries")
	assert.Contains(t, out, "fresh")
}

func TestSync_EntityFlag(t *testing.T) {
	srv, flags := setup(t)

	_, err := execute(t, append([]string{"sync", "--entity", "members", "--entity", "boards"}, flags...)...)
	require.NoError(t, err)
	assert.Empty(t, srv.RequestsFor("/service/tickets"))

	_, err = execute(t, append([]string{"sync", "--entity", "invoices"}, flags...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invoices")
}

func TestSync_FailureExitsNonZero(t *testing.T) {
	srv, flags := setup(t)
	srv.SetAuthError(true)

	out, err := execute(t, append([]string{"sync"}, flags...)...)
	assert.ErrorIs(t, err, errSyncFailed)
	assert.Contains(t, out, "failed")
}

func TestBuildSync_NeverFails(t *testing.T) {
	srv, flags := setup(t)
	srv.SetAuthError(true)

	_, err := execute(t, append([]string{"build-sync", "--timeout", "5s"}, flags...)...)
	assert.NoError(t, err)

	// Missing credentials are reported but still exit cleanly.
	dir := t.TempDir()
	out, err := execute(t, "build-sync", "--config", filepath.Join(dir, "missing.yaml"), "--db", filepath.Join(dir, "m.db"))
	assert.NoError(t, err)
	assert.Contains(t, out, "build-sync skipped")
}

func TestActivity(t *testing.T) {
	_, flags := setup(t)

	_, err := execute(t, append([]string{"activity"}, flags...)...)
	require.Error(t, err, "no members cached yet")

	_, err = execute(t, append([]string{"sync", "--entity", "members"}, flags...)...)
	require.NoError(t, err)

	out, err := execute(t, append([]string{"activity", "--json"}, flags...)...)
	require.NoError(t, err, out)

	var activity []sync.MemberActivity
	require.NoError(t, json.Unmarshal([]byte(out), &activity))
	require.Len(t, activity, 1)
	assert.Equal(t, "eng1", activity[0].Member.Identifier)
	require.NotNil(t, activity[0].LastEntry)
	assert.Equal(t, int64(100), activity[0].LastEntry.ID)
}

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	renderResults(&buf, &sync.Response{
		RunID: "abc",
		Results: []sync.EntityResult{
			{Entity: sync.EntityTickets, Synced: true, Mode: sync.ModeFull, Fallback: true, Count: 4},
			{Entity: sync.EntityProjects, Skipped: true, Count: 2},
			{Entity: sync.EntityTimeEntries, Message: "boom"},
		},
	})
	out := buf.String()
	for _, want := range []string{"abc", "tickets", "full (fallback)", "skipped", "failed", "boom"} {
		assert.True(t, strings.Contains(out, want), "missing %q in:\n%s", want, out)
	}
}

func TestRenderActivity(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(-90 * time.Minute)

	var buf bytes.Buffer
	renderActivity(&buf, []sync.MemberActivity{
		{Member: model.Member{Identifier: "eng1"}, LastEntry: &model.TimeEntry{TimeStart: &start}},
		{Member: model.Member{Identifier: "eng2"}},
	}, now)

	out := buf.String()
	assert.Contains(t, out, "1h30m0s")
	assert.Contains(t, out, "never")
}
