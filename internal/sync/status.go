package sync

import (
	"context"
	"time"

	"github.com/nhle/engineer-metrics/internal/model"
)

// EntityStatus is the ledger view of one entity type.
type EntityStatus struct {
	Entity   EntityType         `json:"entity"`
	LastSync *time.Time         `json:"lastSync"`
	IsStale  bool               `json:"isStale"`
	Count    int                `json:"count"`
	Status   model.LedgerStatus `json:"status,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// StatusReport summarizes the ledger across every entity type.
type StatusReport struct {
	Entities []EntityStatus `json:"entities"`

	// IsStale is true when any entity type is stale.
	IsStale bool `json:"isStale"`

	// LastSync is the oldest last sync across entity types, or nil when any
	// type has never been synced.
	LastSync *time.Time `json:"lastSync"`
}

// Status reports staleness per entity type from the ledger alone. It has
// no side effects.
func (o *Orchestrator) Status(ctx context.Context) (*StatusReport, error) {
	entries, err := o.store.ListLedgerEntries(ctx)
	if err != nil {
		return nil, err
	}
	byEntity := make(map[string]model.LedgerEntry, len(entries))
	for _, e := range entries {
		byEntity[e.EntityType] = e
	}

	now := o.now().UTC()
	report := &StatusReport{Entities: make([]EntityStatus, 0, len(AllEntities))}
	neverSynced := false
	for _, e := range AllEntities {
		st := EntityStatus{Entity: e, IsStale: true}
		if entry, ok := byEntity[string(e)]; ok {
			st.LastSync = entry.LastSyncAt
			st.IsStale = o.ledger.IsStale(&entry, now)
			st.Count = entry.RecordCount
			st.Status = entry.Status
			st.Error = entry.ErrorMessage
		}

		if st.IsStale {
			report.IsStale = true
		}
		switch {
		case st.LastSync == nil:
			neverSynced = true
		case report.LastSync == nil || st.LastSync.Before(*report.LastSync):
			report.LastSync = st.LastSync
		}
		report.Entities = append(report.Entities, st)
	}
	if neverSynced {
		report.LastSync = nil
	}
	return report, nil
}
