package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/tests/testutil"
)

func TestLedger_NeverSynced(t *testing.T) {
	s := testutil.NewTestStore(t)

	entry, err := s.GetLedgerEntry(context.Background(), "tickets")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestLedger_Lifecycle(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.MarkSyncStarted(ctx, "tickets"))
	entry, err := s.GetLedgerEntry(ctx, "tickets")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, model.LedgerInProgress, entry.Status)
	assert.Nil(t, entry.LastSyncAt)

	require.NoError(t, s.RecordSyncSuccess(ctx, "tickets", t0, 3))
	entry, err = s.GetLedgerEntry(ctx, "tickets")
	require.NoError(t, err)
	assert.Equal(t, model.LedgerSuccess, entry.Status)
	assert.Equal(t, 3, entry.RecordCount)
	require.NotNil(t, entry.LastSyncAt)
	assert.True(t, t0.Equal(*entry.LastSyncAt))

	require.NoError(t, s.MarkSyncStarted(ctx, "tickets"))
	require.NoError(t, s.RecordSyncFailure(ctx, "tickets", "boom"))
	entry, err = s.GetLedgerEntry(ctx, "tickets")
	require.NoError(t, err)
	assert.Equal(t, model.LedgerFailed, entry.Status)
	assert.Equal(t, "boom", entry.ErrorMessage)
	assert.Equal(t, 3, entry.RecordCount, "failure keeps the last count")
	require.NotNil(t, entry.LastSyncAt)
	assert.True(t, t0.Equal(*entry.LastSyncAt), "failure keeps the last sync time")

	require.NoError(t, s.MarkSyncStarted(ctx, "tickets"))
	entry, err = s.GetLedgerEntry(ctx, "tickets")
	require.NoError(t, err)
	assert.Empty(t, entry.ErrorMessage)
}

func TestLedger_LastSyncNeverMovesBackwards(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	newer := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	require.NoError(t, s.RecordSyncSuccess(ctx, "members", newer, 5))
	require.NoError(t, s.RecordSyncSuccess(ctx, "members", older, 6))

	entry, err := s.GetLedgerEntry(ctx, "members")
	require.NoError(t, err)
	require.NotNil(t, entry.LastSyncAt)
	assert.True(t, newer.Equal(*entry.LastSyncAt))
	assert.Equal(t, 6, entry.RecordCount)
}

func TestLedger_List(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.RecordSyncSuccess(ctx, "tickets", now, 1))
	require.NoError(t, s.RecordSyncSuccess(ctx, "boards", now, 2))

	entries, err := s.ListLedgerEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "boards", entries[0].EntityType)
	assert.Equal(t, "tickets", entries[1].EntityType)
}
