package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/source"
	"github.com/nhle/engineer-metrics/internal/store"
	"github.com/nhle/engineer-metrics/internal/telemetry"
)

// ErrSyncInProgress is returned when a pass is requested while another pass
// of the same Orchestrator is still running.
var ErrSyncInProgress = errors.New("sync already in progress")

// cancelledMessage is reported for entity types not attempted because the
// pass was cancelled or timed out.
const cancelledMessage = "sync cancelled"

// Request selects what a sync pass does.
type Request struct {
	// Force ignores staleness and syncs every selected type in full mode.
	Force bool

	// Entities limits the pass to these types. Empty means all of them.
	Entities []EntityType
}

// EntityResult is the outcome of one entity type within a pass.
type EntityResult struct {
	Entity EntityType `json:"entity"`

	// Synced is true when a sync ran and succeeded.
	Synced bool `json:"synced"`

	// Count is the ledger record count after the pass.
	Count   int    `json:"count"`
	Message string `json:"message"`

	Mode     Mode `json:"mode,omitempty"`
	Skipped  bool `json:"skipped,omitempty"`
	Fallback bool `json:"fallback,omitempty"`
}

// Response is the outcome of a sync pass, in dependency order.
type Response struct {
	RunID    string         `json:"runId"`
	Results  []EntityResult `json:"results"`
	SyncedAt time.Time      `json:"syncedAt"`
}

// Failed reports whether any entity type failed or was cancelled.
func (r *Response) Failed() bool {
	for _, res := range r.Results {
		if !res.Synced && !res.Skipped {
			return true
		}
	}
	return false
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithClock replaces the clock used for staleness and ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithHandler replaces the handler of h.Entity().
func WithHandler(h Handler) Option {
	return func(o *Orchestrator) { o.handlers[h.Entity()] = h }
}

// Orchestrator drives sync passes over the entity types in dependency order.
type Orchestrator struct {
	store    store.Store
	remote   Remote
	ledger   *Ledger
	cfg      Config
	handlers map[EntityType]Handler
	logger   *slog.Logger
	now      func() time.Time
	metrics  *syncMetrics

	mu      gosync.Mutex
	running bool
}

// NewOrchestrator wires the default handlers over remote and s.
func NewOrchestrator(s store.Store, remote Remote, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    s,
		remote:   remote,
		ledger:   NewLedger(s, cfg.StaleAfter),
		cfg:      cfg,
		handlers: make(map[EntityType]Handler, len(AllEntities)),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	repair := NewRepairer(s, o.logger)
	matcher := serviceBoardMatcher{ids: cfg.ServiceBoardIDs, names: cfg.ServiceBoardNames}
	defaults := []Handler{
		&membersHandler{remote: remote, store: s},
		&boardsHandler{remote: remote, store: s, pattern: cfg.ProjectBoardPattern, matcher: matcher},
		&ticketsHandler{remote: remote, store: s, repair: repair, pattern: cfg.ProjectBoardPattern, matcher: matcher},
		&timeEntriesHandler{remote: remote, store: s, repair: repair},
		&projectsHandler{remote: remote, store: s, audits: NewAuditCapture(remote, s)},
		&projectTicketsHandler{remote: remote, store: s},
	}
	for _, h := range defaults {
		if _, ok := o.handlers[h.Entity()]; !ok {
			o.handlers[h.Entity()] = h
		}
	}

	// The global providers are no-ops unless telemetry is enabled.
	o.metrics = newSyncMetrics(telemetry.Meter(syncScopeName), telemetry.Tracer(syncScopeName), o.logger)
	return o
}

// Ledger returns the ledger used for staleness decisions.
func (o *Orchestrator) Ledger() *Ledger {
	return o.ledger
}

// Run performs one sync pass. Entity failures are reported in the results;
// the returned error is only non-nil when the pass could not start.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Response, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	run := NewRun(uuid.New().String(), o.cfg.AllowList, o.store, o.logger)
	entities := selectEntities(req.Entities)
	run.Logger.Info("sync pass started", "entities", entities, "force", req.Force)

	resp := &Response{RunID: run.ID, Results: make([]EntityResult, 0, len(entities))}
	for _, e := range entities {
		if ctx.Err() != nil {
			resp.Results = append(resp.Results, EntityResult{Entity: e, Message: cancelledMessage})
			continue
		}
		resp.Results = append(resp.Results, o.syncEntity(ctx, e, req.Force, run))
	}
	resp.SyncedAt = o.now().UTC()

	run.Logger.Info("sync pass finished", "failed", resp.Failed())
	return resp, nil
}

// selectEntities returns the requested types in dependency order, without
// duplicates. An empty request selects every type.
func selectEntities(requested []EntityType) []EntityType {
	if len(requested) == 0 {
		return AllEntities
	}
	want := make(map[EntityType]bool, len(requested))
	for _, e := range requested {
		want[e] = true
	}
	var out []EntityType
	for _, e := range AllEntities {
		if want[e] {
			out = append(out, e)
		}
	}
	return out
}

// syncEntity runs the ledger state machine for one entity type.
func (o *Orchestrator) syncEntity(ctx context.Context, e EntityType, force bool, run *Run) EntityResult {
	logger := run.Logger.With("entity", e)
	start := o.now().UTC()

	// Ledger writes must land even when the pass is cancelled mid-entity.
	ledgerCtx := context.WithoutCancel(ctx)

	h, ok := o.handlers[e]
	if !ok {
		return EntityResult{Entity: e, Message: fmt.Sprintf("no handler for %s", e)}
	}

	entry, err := o.ledger.Entry(ctx, e)
	if err != nil {
		logger.Error("reading ledger failed", "error", err)
		return EntityResult{Entity: e, Message: fmt.Sprintf("reading ledger: %v", err)}
	}

	prior := 0
	if entry != nil {
		prior = entry.RecordCount
	}

	if !force && !o.ledger.IsStale(entry, start) {
		logger.Debug("entity fresh, skipping", "last_sync", entry.LastSyncAt)
		return EntityResult{
			Entity:  e,
			Count:   prior,
			Skipped: true,
			Message: fmt.Sprintf("up to date, last synced %s", entry.LastSyncAt.UTC().Format(time.RFC3339)),
		}
	}

	mode, since := selectMode(e, entry, force)
	logger = logger.With("mode", mode)

	if err := o.ledger.MarkStarted(ledgerCtx, e); err != nil {
		logger.Error("marking sync started failed", "error", err)
		return EntityResult{Entity: e, Mode: mode, Message: fmt.Sprintf("updating ledger: %v", err)}
	}

	res, err := o.invoke(ctx, h, mode, since, run)

	var fallback bool
	var incrementalErr error
	if err != nil && o.shouldFallback(ctx, mode, err) {
		incrementalErr = err
		fallback = true
		mode = ModeFull
		o.metrics.fallback(ctx, e)
		logger.Warn("incremental sync failed, retrying in full mode", "error", err)
		res, err = o.invoke(ctx, h, ModeFull, nil, run)
	}

	if err != nil {
		msg := err.Error()
		if fallback {
			msg = fmt.Sprintf("full sync fallback failed: %v (incremental error: %v)", err, incrementalErr)
		}
		logger.Error("entity sync failed", "error", err, "class", source.Classify(err))
		o.metrics.failure(ctx, e, mode)
		if lerr := o.ledger.RecordFailure(ledgerCtx, e, msg); lerr != nil {
			logger.Error("recording sync failure failed", "error", lerr)
		}
		return EntityResult{Entity: e, Count: prior, Mode: mode, Fallback: fallback, Message: msg}
	}

	count := res.Upserted
	if mode == ModeIncremental {
		count = prior + res.Created
	}

	if err := o.ledger.RecordSuccess(ledgerCtx, e, start, count); err != nil {
		logger.Error("recording sync success failed", "error", err)
		return EntityResult{Entity: e, Count: prior, Mode: mode, Fallback: fallback,
			Message: fmt.Sprintf("updating ledger: %v", err)}
	}

	msg := fmt.Sprintf("synced %d records (%s)", res.Upserted, mode)
	if fallback {
		msg = fmt.Sprintf("synced %d records in full mode after incremental sync failed: %v",
			res.Upserted, incrementalErr)
	}
	logger.Info("entity synced", "fetched", res.Fetched, "upserted", res.Upserted,
		"created", res.Created, "skipped", res.Skipped, "count", count)

	return EntityResult{Entity: e, Synced: true, Count: count, Mode: mode, Fallback: fallback, Message: msg}
}

// selectMode picks full mode for reference tables, forced passes and
// first-ever syncs, and incremental mode from the last success otherwise.
func selectMode(e EntityType, entry *model.LedgerEntry, force bool) (Mode, *time.Time) {
	if e.alwaysFull() || force || entry == nil || entry.LastSyncAt == nil {
		return ModeFull, nil
	}
	since := *entry.LastSyncAt
	return ModeIncremental, &since
}

// shouldFallback reports whether a failed attempt earns one full retry.
func (o *Orchestrator) shouldFallback(ctx context.Context, mode Mode, err error) bool {
	return mode == ModeIncremental &&
		o.cfg.FallbackToFull &&
		ctx.Err() == nil &&
		source.IsRetryable(err)
}

func (o *Orchestrator) invoke(ctx context.Context, h Handler, mode Mode, since *time.Time, run *Run) (HandlerResult, error) {
	ctx, span, started := o.metrics.start(ctx, h.Entity(), mode)
	res, err := h.Sync(ctx, mode, since, run)
	o.metrics.done(ctx, span, started, h.Entity(), mode, res, err)
	return res, err
}
