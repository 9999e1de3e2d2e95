package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/engineer-metrics/internal/api"
	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/sync"
)

type fakeSyncer struct {
	report  *sync.StatusReport
	resp    *sync.Response
	err     error
	lastReq *sync.Request
}

func (f *fakeSyncer) Run(_ context.Context, req sync.Request) (*sync.Response, error) {
	f.lastReq = &req
	return f.resp, f.err
}

func (f *fakeSyncer) Status(context.Context) (*sync.StatusReport, error) {
	return f.report, f.err
}

func newServer(f *fakeSyncer) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(api.NewServer(f, logger).Handler())
	return srv
}

func TestStatus(t *testing.T) {
	last := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeSyncer{report: &sync.StatusReport{
		Entities: []sync.EntityStatus{
			{Entity: sync.EntityMembers, LastSync: &last, Count: 2, Status: model.LedgerSuccess},
			{Entity: sync.EntityTickets, IsStale: true},
		},
		IsStale: true,
	}}
	srv := newServer(f)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/sync/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body api.StatusBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.IsStale)
	assert.Nil(t, body.LastSync)
	require.Contains(t, body.Entities, sync.EntityMembers)
	assert.Equal(t, 2, body.Entities[sync.EntityMembers].Count)
	assert.True(t, last.Equal(*body.Entities[sync.EntityMembers].LastSync))
	assert.True(t, body.Entities[sync.EntityTickets].IsStale)
}

func TestSync(t *testing.T) {
	f := &fakeSyncer{resp: &sync.Response{
		RunID: "run-1",
		Results: []sync.EntityResult{
			{Entity: sync.EntityTickets, Synced: true, Count: 3, Mode: sync.ModeFull},
			{Entity: sync.EntityTimeEntries, Synced: false, Message: "auth error (401): denied"},
		},
	}}
	srv := newServer(f)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/sync", "application/json",
		strings.NewReader(`{"force": true, "entities": ["time_entries", "tickets"]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "entity failures are result data")

	require.NotNil(t, f.lastReq)
	assert.True(t, f.lastReq.Force)
	assert.Equal(t, []sync.EntityType{sync.EntityTimeEntries, sync.EntityTickets}, f.lastReq.Entities)

	var body api.SyncResponseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "run-1", body.RunID)
	require.Len(t, body.Results, 2)
	assert.False(t, body.Results[1].Synced)
	assert.Contains(t, body.Results[1].Message, "401")
}

func TestSync_EmptyBody(t *testing.T) {
	f := &fakeSyncer{resp: &sync.Response{}}
	srv := newServer(f)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/sync", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, f.lastReq)
	assert.False(t, f.lastReq.Force)
	assert.Empty(t, f.lastReq.Entities)
}

func TestSync_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"unknown entity", `{"entities": ["invoices"]}`, nil, http.StatusBadRequest},
		{"bad json", `{"force":`, nil, http.StatusBadRequest},
		{"in progress", `{}`, sync.ErrSyncInProgress, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeSyncer{err: tt.err}
			srv := newServer(f)
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/api/sync", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newServer(&fakeSyncer{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/sync")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
