package model

import "time"

// LedgerStatus is the outcome of the most recent sync attempt.
type LedgerStatus string

const (
	LedgerInProgress LedgerStatus = "in_progress"
	LedgerSuccess    LedgerStatus = "success"
	LedgerFailed     LedgerStatus = "failed"
)

// LedgerEntry is the durable sync bookkeeping for one entity type.
type LedgerEntry struct {
	EntityType string `json:"entity_type" db:"entity_type"`

	// LastSyncAt is the start time of the last successful sync. It never
	// moves backwards.
	LastSyncAt *time.Time `json:"last_sync_at,omitempty" db:"last_sync_at"`

	RecordCount  int          `json:"record_count" db:"record_count"`
	Status       LedgerStatus `json:"status" db:"status"`
	ErrorMessage string       `json:"error_message" db:"error_message"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}
