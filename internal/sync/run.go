package sync

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/source/psa"
	"github.com/nhle/engineer-metrics/internal/store"
)

// Remote is the subset of the PSA client used by the handlers.
type Remote interface {
	Members(ctx context.Context) ([]model.Member, error)
	Boards(ctx context.Context, projectPattern string) ([]model.Board, error)
	Tickets(ctx context.Context, boardIDs []int64, since *time.Time) ([]model.Ticket, error)
	TimeEntries(ctx context.Context, memberIDs []int64, since *time.Time) ([]model.TimeEntry, error)
	Projects(ctx context.Context, managerIdentifiers []string, since *time.Time) ([]model.Project, error)
	ProjectTickets(ctx context.Context, since *time.Time) ([]model.ProjectTicket, error)
	AuditTrail(ctx context.Context, kind string, id int64) ([]psa.AuditRecord, error)
	LatestTimeEntry(ctx context.Context, memberID int64) (*model.TimeEntry, error)
}

var _ Remote = (*psa.Client)(nil)

// Config is the sync policy.
type Config struct {
	// AllowList holds the member identifiers whose data is retained.
	AllowList []string

	// ServiceBoardNames are fuzzy-matched against board names.
	ServiceBoardNames []string

	// ServiceBoardIDs, when non-empty, replaces name matching.
	ServiceBoardIDs []int64

	ProjectBoardPattern string
	StaleAfter          time.Duration
	FallbackToFull      bool
}

// ConfigFrom extracts the sync policy from the application configuration.
func ConfigFrom(cfg *model.AppConfig) Config {
	return Config{
		AllowList:           cfg.Members.AllowList,
		ServiceBoardNames:   cfg.Boards.ServiceNames,
		ServiceBoardIDs:     cfg.Boards.ServiceIDs,
		ProjectBoardPattern: cfg.Boards.ProjectPattern,
		StaleAfter:          cfg.Sync.StaleAfter,
		FallbackToFull:      cfg.Sync.FallbackToFull,
	}
}

// Handler syncs one entity type. since is nil in full mode.
type Handler interface {
	Entity() EntityType
	Sync(ctx context.Context, mode Mode, since *time.Time, run *Run) (HandlerResult, error)
}

// HandlerResult summarizes one handler invocation.
type HandlerResult struct {
	// Fetched is the number of valid records returned by the remote API.
	Fetched int

	// Upserted is the number of records retained and written locally.
	Upserted int

	// Created is the subset of Upserted that did not exist before.
	Created int

	// Skipped counts records discarded by filtering.
	Skipped int

	AffectedIDs []int64
}

func (r *HandlerResult) record(id int64, created bool) {
	r.Upserted++
	if created {
		r.Created++
	}
	r.AffectedIDs = append(r.AffectedIDs, id)
}

// Run carries the state shared by the handlers of one sync pass.
type Run struct {
	ID      string
	Allowed model.IdentifierSet
	Logger  *slog.Logger

	store     store.Store
	memberIDs []int64
	resolved  bool
}

// NewRun creates the state of a sync pass.
func NewRun(id string, allowList []string, s store.Store, logger *slog.Logger) *Run {
	return &Run{
		ID:      id,
		Allowed: model.NewIdentifierSet(allowList),
		Logger:  logger.With("run_id", id),
		store:   s,
	}
}

// Managers returns the allow-listed identifiers as configured, sorted.
// Remote identifier comparison may be case-sensitive.
func (r *Run) Managers() []string {
	ids := r.Allowed.Configured()
	slices.Sort(ids)
	return ids
}

// setMemberIDs records the member ids resolved by the members handler.
func (r *Run) setMemberIDs(ids []int64) {
	r.memberIDs = ids
	r.resolved = true
}

// MemberIDs returns the local ids of the allow-listed members. When the
// members handler did not run in this pass they are loaded from the store.
func (r *Run) MemberIDs(ctx context.Context) ([]int64, error) {
	if r.resolved {
		return r.memberIDs, nil
	}

	members, err := r.store.GetMembersByIdentifiers(ctx, r.Allowed.Slice())
	if err != nil {
		return nil, fmt.Errorf("resolving allow-listed members: %w", err)
	}
	ids := make([]int64, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	r.setMemberIDs(ids)
	return ids, nil
}
