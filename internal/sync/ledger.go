package sync

import (
	"context"
	"time"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/store"
)

// Ledger reads and writes the per-entity sync bookkeeping.
type Ledger struct {
	store      store.Store
	staleAfter time.Duration
}

// NewLedger creates a Ledger whose entries go stale after staleAfter.
func NewLedger(s store.Store, staleAfter time.Duration) *Ledger {
	if staleAfter <= 0 {
		staleAfter = model.DefaultStaleAfter
	}
	return &Ledger{store: s, staleAfter: staleAfter}
}

// StaleAfter returns the staleness threshold.
func (l *Ledger) StaleAfter() time.Duration {
	return l.staleAfter
}

// Entry returns the ledger row of an entity type, or nil if it has never
// been synced.
func (l *Ledger) Entry(ctx context.Context, e EntityType) (*model.LedgerEntry, error) {
	return l.store.GetLedgerEntry(ctx, string(e))
}

// IsStale reports whether entry needs a sync at now.
func (l *Ledger) IsStale(entry *model.LedgerEntry, now time.Time) bool {
	return IsStale(entry, now, l.staleAfter)
}

// IsStale reports whether an entity needs syncing: it has never completed a
// sync, or its last success is older than threshold.
func IsStale(entry *model.LedgerEntry, now time.Time, threshold time.Duration) bool {
	if entry == nil || entry.LastSyncAt == nil {
		return true
	}
	return now.Sub(*entry.LastSyncAt) > threshold
}

// MarkStarted flags the entity as in progress.
func (l *Ledger) MarkStarted(ctx context.Context, e EntityType) error {
	return l.store.MarkSyncStarted(ctx, string(e))
}

// RecordSuccess stores a successful outcome.
func (l *Ledger) RecordSuccess(ctx context.Context, e EntityType, syncedAt time.Time, count int) error {
	return l.store.RecordSyncSuccess(ctx, string(e), syncedAt, count)
}

// RecordFailure stores a failed outcome.
func (l *Ledger) RecordFailure(ctx context.Context, e EntityType, message string) error {
	return l.store.RecordSyncFailure(ctx, string(e), message)
}
