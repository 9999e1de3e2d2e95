package sync_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/source/psa"
	"github.com/nhle/engineer-metrics/internal/store"
	"github.com/nhle/engineer-metrics/internal/sync"
	"github.com/nhle/engineer-metrics/tests/testutil"
)

const staleAfter = time.Hour

// harness wires an orchestrator to a mock PSA server and an in-memory store.
type harness struct {
	t      *testing.T
	srv    *testutil.PSAServer
	store  *store.SQLiteStore
	client *psa.Client
	cfg    sync.Config
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	srv := testutil.NewPSAServer(t)
	srv.SetCollection("/system/members",
		testutil.MemberRecord(1, "eng1"),
		testutil.MemberRecord(2, "Eng2"),
		testutil.MemberRecord(3, "eng3"),
	)
	srv.SetCollection("/service/boards",
		testutil.BoardRecord(10, "Help Desk (MS)"),
		testutil.BoardRecord(20, "Client Projects"),
		testutil.BoardRecord(30, "Escalations"),
	)
	srv.SetCollection("/service/tickets",
		testutil.TicketRecord(1, 10, "eng1"),
		testutil.TicketRecord(2, 10, "eng2"),
		testutil.TicketRecord(3, 10, "eng1", "eng2"),
		testutil.TicketRecord(4, 10, "eng3"),
		testutil.TicketRecord(5, 10, "eng3", "someone"),
	)
	srv.SetCollection("/time/entries",
		testutil.TimeEntryRecord(100, 1, 1),
		testutil.TimeEntryRecord(101, 2, 0),
		testutil.TimeEntryRecord(102, 3, 4),
	)
	srv.SetCollection("/project/projects",
		testutil.ProjectRecord(7, "Migration", "In Progress", "eng1"),
		testutil.ProjectRecord(8, "Other team", "Closed", "eng3"),
	)
	srv.SetCollection("/project/tickets",
		testutil.ProjectTicketRecord(50, 7),
		testutil.ProjectTicketRecord(51, 99),
	)

	client := psa.NewClient(model.PSAConfig{
		BaseURL:    srv.URL(),
		CompanyID:  "acme",
		ClientID:   "client",
		PublicKey:  "pub",
		PrivateKey: "priv",
	},
		psa.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
		psa.WithLogger(discardLogger()),
	)

	return &harness{
		t:      t,
		srv:    srv,
		store:  testutil.NewTestStore(t),
		client: client,
		cfg: sync.Config{
			AllowList:           []string{"eng1", "eng2"},
			ServiceBoardNames:   []string{"Help Desk"},
			ProjectBoardPattern: "project",
			StaleAfter:          staleAfter,
			FallbackToFull:      true,
		},
		now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (h *harness) orchestrator(opts ...sync.Option) *sync.Orchestrator {
	base := []sync.Option{
		sync.WithLogger(discardLogger()),
		sync.WithClock(func() time.Time { return h.now }),
	}
	return sync.NewOrchestrator(h.store, h.client, h.cfg, append(base, opts...)...)
}

func (h *harness) run(o *sync.Orchestrator, req sync.Request) *sync.Response {
	h.t.Helper()
	resp, err := o.Run(context.Background(), req)
	if err != nil {
		h.t.Fatalf("running sync: %v", err)
	}
	return resp
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

func (h *harness) ledger(e sync.EntityType) *model.LedgerEntry {
	h.t.Helper()
	entry, err := h.store.GetLedgerEntry(context.Background(), string(e))
	if err != nil {
		h.t.Fatalf("reading ledger: %v", err)
	}
	return entry
}

func resultFor(resp *sync.Response, e sync.EntityType) sync.EntityResult {
	for _, r := range resp.Results {
		if r.Entity == e {
			return r
		}
	}
	return sync.EntityResult{}
}

// funcHandler adapts a function to the Handler interface.
type funcHandler struct {
	entity sync.EntityType
	fn     func(ctx context.Context, mode sync.Mode, since *time.Time, run *sync.Run) (sync.HandlerResult, error)
}

func (f funcHandler) Entity() sync.EntityType { return f.entity }

func (f funcHandler) Sync(ctx context.Context, mode sync.Mode, since *time.Time, run *sync.Run) (sync.HandlerResult, error) {
	return f.fn(ctx, mode, since, run)
}
