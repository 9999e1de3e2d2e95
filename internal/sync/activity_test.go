package sync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/sync"
	"github.com/nhle/engineer-metrics/tests/testutil"
)

func TestLatestActivity(t *testing.T) {
	h := newHarness(t)
	h.srv.SetCollection("/time/entries", testutil.TimeEntryRecord(100, 1, 1))

	members := []model.Member{
		{ID: 1, Identifier: "eng1"},
		{ID: 2, Identifier: "eng2"},
	}
	out, err := sync.LatestActivity(context.Background(), h.client, members)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, "eng1", out[0].Member.Identifier)
	assert.Equal(t, "eng2", out[1].Member.Identifier)
	// The mock ignores conditions, so every member sees the same entry.
	require.NotNil(t, out[0].LastEntry)
	assert.Equal(t, int64(100), out[0].LastEntry.ID)

	reqs := h.srv.RequestsFor("/time/entries")
	require.Len(t, reqs, 2)
	for _, r := range reqs {
		assert.Equal(t, "1", r.Query.Get("pageSize"))
		assert.Equal(t, "timeStart desc", r.Query.Get("orderBy"))
	}
}

func TestLatestActivity_NoEntries(t *testing.T) {
	h := newHarness(t)
	h.srv.SetCollection("/time/entries")

	out, err := sync.LatestActivity(context.Background(), h.client, []model.Member{{ID: 1, Identifier: "eng1"}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].LastEntry)
}

func TestLatestActivity_Error(t *testing.T) {
	h := newHarness(t)
	h.srv.SetAuthError(true)

	_, err := sync.LatestActivity(context.Background(), h.client, []model.Member{{ID: 1, Identifier: "eng1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eng1")
}
