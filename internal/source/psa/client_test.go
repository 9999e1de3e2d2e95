package psa_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/source"
	"github.com/nhle/engineer-metrics/internal/source/psa"
	"github.com/nhle/engineer-metrics/tests/testutil"
)

func newClient(t *testing.T, srv *testutil.PSAServer, pageSize, maxRetries int) *psa.Client {
	t.Helper()
	return psa.NewClient(model.PSAConfig{
		BaseURL:    srv.URL(),
		CompanyID:  "acme",
		ClientID:   "client-123",
		PublicKey:  "pub",
		PrivateKey: "priv",
		PageSize:   pageSize,
		MaxRetries: maxRetries,
	}, psa.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }))
}

func TestClient_SendsCredentialHeaders(t *testing.T) {
	srv := testutil.NewPSAServer(t)
	srv.SetCollection("/system/members", testutil.MemberRecord(1, "eng1"))
	c := newClient(t, srv, 10, 0)

	_, err := c.Members(context.Background())
	require.NoError(t, err)

	reqs := srv.RequestsFor("/system/members")
	require.Len(t, reqs, 1)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("acme+pub:priv"))
	assert.Equal(t, want, reqs[0].Headers.Get("Authorization"))
	assert.Equal(t, "client-123", reqs[0].Headers.Get("clientId"))
	assert.Equal(t, http.MethodGet, reqs[0].Method)
}

func TestClient_PagesUntilShortPage(t *testing.T) {
	srv := testutil.NewPSAServer(t)
	srv.SetCollection("/system/members",
		testutil.MemberRecord(1, "eng1"),
		testutil.MemberRecord(2, "eng2"),
		testutil.MemberRecord(3, "eng3"),
		testutil.MemberRecord(4, "eng4"),
		testutil.MemberRecord(5, "eng5"),
	)
	c := newClient(t, srv, 2, 0)

	members, err := c.Members(context.Background())
	require.NoError(t, err)
	assert.Len(t, members, 5)

	reqs := srv.RequestsFor("/system/members")
	require.Len(t, reqs, 3)
	for i, r := range reqs {
		assert.Equal(t, []string{"2"}, r.Query["pageSize"])
		assert.Equal(t, []string{string(rune('1' + i))}, r.Query["page"])
	}
}

func TestClient_PageSizeCappedAtRemoteMaximum(t *testing.T) {
	srv := testutil.NewPSAServer(t)
	srv.SetCollection("/system/members")
	c := newClient(t, srv, 5000, 0)

	assert.Equal(t, psa.MaxPageSize, c.PageSize())

	_, err := c.Members(context.Background())
	require.NoError(t, err)
	reqs := srv.RequestsFor("/system/members")
	require.Len(t, reqs, 1)
	assert.Equal(t, "1000", reqs[0].Query.Get("pageSize"))
}

func TestClient_ModifiedSinceBecomesCondition(t *testing.T) {
	srv := testutil.NewPSAServer(t)
	srv.SetCollection("/service/tickets")
	c := newClient(t, srv, 10, 0)

	since := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	_, err := c.Tickets(context.Background(), []int64{7, 9}, &since)
	require.NoError(t, err)

	reqs := srv.RequestsFor("/service/tickets")
	require.Len(t, reqs, 1)
	assert.Equal(t,
		"(board/id in (7,9)) and (lastUpdated > [2024-05-01T12:00:00Z])",
		reqs[0].Query.Get("conditions"))
}

func TestClient_FullScanHasNoModifiedCondition(t *testing.T) {
	srv := testutil.NewPSAServer(t)
	srv.SetCollection("/project/tickets")
	c := newClient(t, srv, 10, 0)

	_, err := c.ProjectTickets(context.Background(), nil)
	require.NoError(t, err)

	reqs := srv.RequestsFor("/project/tickets")
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].Query.Get("conditions"))
}

func TestClient_RetriesRateLimit(t *testing.T) {
	srv := testutil.NewPSAServer(t)
	srv.SetCollection("/service/boards", testutil.BoardRecord(10, "Help Desk"))
	srv.FailNext("/service/boards", 2, testutil.MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"code":"TooManyRequests"}`,
	})
	c := newClient(t, srv, 10, 3)

	boards, err := c.Boards(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, boards, 1)
	assert.Len(t, srv.RequestsFor("/service/boards"), 3)
}

func TestClient_RateLimitExhaustedIsRetryable(t *testing.T) {
	srv := testutil.NewPSAServer(t)
	srv.SetCollection("/service/boards")
	srv.FailNext("/service/boards", 5, testutil.MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"code":"TooManyRequests"}`,
	})
	c := newClient(t, srv, 10, 1)

	_, err := c.Boards(context.Background(), "")
	require.Error(t, err)

	var apiErr *source.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, source.ClassRetryable, source.Classify(err))
	assert.Len(t, srv.RequestsFor("/service/boards"), 2)
}

func TestClient_AuthErrorIsNotRetried(t *testing.T) {
	srv := testutil.NewPSAServer(t)
	srv.SetAuthError(true)
	c := newClient(t, srv, 10, 3)

	_, err := c.Members(context.Background())
	require.Error(t, err)
	assert.True(t, source.IsAuthError(err))
	assert.Equal(t, source.ClassFatal, source.Classify(err))
	assert.Len(t, srv.Requests(), 1)
}

func TestClient_ServerErrorIsFatal(t *testing.T) {
	srv := testutil.NewPSAServer(t)
	srv.SetCollection("/system/members")
	srv.FailNext("/system/members", 1, testutil.MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       strings.Repeat("x", 2000),
	})
	c := newClient(t, srv, 10, 3)

	_, err := c.Members(context.Background())
	require.Error(t, err)

	var apiErr *source.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.LessOrEqual(t, len(apiErr.Body), 515)
	assert.Equal(t, source.ClassFatal, source.Classify(err))
	assert.Len(t, srv.Requests(), 1)
}

func TestClient_SkipsInvalidRecords(t *testing.T) {
	srv := testutil.NewPSAServer(t)
	noBoard := testutil.TicketRecord(2, 10, "eng1")
	delete(noBoard, "board")
	noID := testutil.TicketRecord(3, 10, "eng1")
	delete(noID, "id")
	srv.SetCollection("/service/tickets",
		testutil.TicketRecord(1, 10, "eng1"),
		noBoard,
		noID,
		map[string]any{"id": "not-a-number"},
	)
	c := newClient(t, srv, 10, 0)

	tickets, err := c.Tickets(context.Background(), []int64{10}, nil)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, int64(1), tickets[0].ID)
}

func TestClient_TicketsWithoutBoardsFetchesNothing(t *testing.T) {
	srv := testutil.NewPSAServer(t)
	c := newClient(t, srv, 10, 0)

	tickets, err := c.Tickets(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, tickets)
	assert.Empty(t, srv.Requests())
}

func TestClient_AuditTrailQuery(t *testing.T) {
	srv := testutil.NewPSAServer(t)
	srv.SetAuditTrail(42, testutil.StatusAuditRecord(
		"In Progress", "Ready to Close", "eng1", "2024-02-01T10:00:00Z"))
	c := newClient(t, srv, 10, 0)

	events, err := c.AuditTrail(context.Background(), psa.AuditKindProject, 42)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Ready to Close", events[0].NewValue)

	reqs := srv.RequestsFor("/system/audittrail")
	require.Len(t, reqs, 1)
	assert.Equal(t, "Project", reqs[0].Query.Get("type"))
	assert.Equal(t, "42", reqs[0].Query.Get("id"))
}

func TestClient_LatestTimeEntry(t *testing.T) {
	srv := testutil.NewPSAServer(t)
	srv.SetCollection("/time/entries",
		testutil.TimeEntryRecord(100, 1, 5),
		testutil.TimeEntryRecord(99, 1, 5),
	)
	c := newClient(t, srv, 10, 0)

	entry, err := c.LatestTimeEntry(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(100), entry.ID)

	reqs := srv.RequestsFor("/time/entries")
	require.Len(t, reqs, 1)
	assert.Equal(t, "1", reqs[0].Query.Get("pageSize"))
	assert.Equal(t, "timeStart desc", reqs[0].Query.Get("orderBy"))
}

func TestClient_LatestTimeEntryNone(t *testing.T) {
	srv := testutil.NewPSAServer(t)
	srv.SetCollection("/time/entries")
	c := newClient(t, srv, 10, 0)

	entry, err := c.LatestTimeEntry(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, entry)
}
