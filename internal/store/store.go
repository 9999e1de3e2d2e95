package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/engineer-metrics/internal/model"
)

// ErrNotFound is returned by single-row reads when no row matches.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for the local metrics cache.
// Writes are upserts keyed by the remote id; each call commits on its own.
type Store interface {
	// === Members ===

	UpsertMember(ctx context.Context, m model.Member) (bool, error)
	GetMember(ctx context.Context, id int64) (*model.Member, error)
	GetMembersByIdentifiers(ctx context.Context, identifiers []string) ([]model.Member, error)

	// === Boards ===

	UpsertBoard(ctx context.Context, b model.Board) (bool, error)
	GetBoard(ctx context.Context, id int64) (*model.Board, error)
	InsertPlaceholderBoard(ctx context.Context, b model.Board) (bool, error)
	UpsertServiceBoard(ctx context.Context, sb model.ServiceBoard) (bool, error)
	GetServiceBoards(ctx context.Context) ([]model.ServiceBoard, error)

	// === Tickets ===

	UpsertTicket(ctx context.Context, t model.Ticket) (bool, error)
	GetTicket(ctx context.Context, id int64) (*model.Ticket, error)
	GetTicketsByIDs(ctx context.Context, ids []int64) ([]model.Ticket, error)
	InsertPlaceholderTicket(ctx context.Context, t model.Ticket) (bool, error)

	// === Time entries ===

	UpsertTimeEntry(ctx context.Context, e model.TimeEntry) (bool, error)
	GetTimeEntry(ctx context.Context, id int64) (*model.TimeEntry, error)

	// === Projects ===

	UpsertProject(ctx context.Context, p model.Project) (bool, error)
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	ListProjectIDs(ctx context.Context) ([]int64, error)
	UpsertProjectTicket(ctx context.Context, t model.ProjectTicket) (bool, error)
	GetProjectTicket(ctx context.Context, id int64) (*model.ProjectTicket, error)

	// === Project audits ===

	InsertProjectAudit(ctx context.Context, a model.ProjectAudit) error
	HasProjectAudit(ctx context.Context, a model.ProjectAudit) (bool, error)
	GetProjectAudits(ctx context.Context, projectID int64) ([]model.ProjectAudit, error)

	// === Sync ledger ===

	GetLedgerEntry(ctx context.Context, entityType string) (*model.LedgerEntry, error)
	ListLedgerEntries(ctx context.Context) ([]model.LedgerEntry, error)
	MarkSyncStarted(ctx context.Context, entityType string) error
	RecordSyncSuccess(ctx context.Context, entityType string, syncedAt time.Time, count int) error
	RecordSyncFailure(ctx context.Context, entityType string, message string) error

	// === Housekeeping ===

	TableCounts(ctx context.Context) (map[string]int, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
