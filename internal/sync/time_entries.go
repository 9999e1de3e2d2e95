package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/engineer-metrics/internal/store"
)

type timeEntriesHandler struct {
	remote Remote
	store  store.Store
	repair *Repairer
}

func (h *timeEntriesHandler) Entity() EntityType { return EntityTimeEntries }

// Sync fetches the time entries of the allow-listed members, repairing
// ticket references that are not known locally.
func (h *timeEntriesHandler) Sync(ctx context.Context, _ Mode, since *time.Time, run *Run) (HandlerResult, error) {
	memberIDs, err := run.MemberIDs(ctx)
	if err != nil {
		return HandlerResult{}, err
	}
	if len(memberIDs) == 0 {
		run.Logger.Warn("no known members to fetch time entries for", "entity", EntityTimeEntries)
		return HandlerResult{}, nil
	}

	known := make(map[int64]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		known[id] = struct{}{}
	}

	entries, err := h.remote.TimeEntries(ctx, memberIDs, since)
	if err != nil {
		return HandlerResult{}, err
	}

	res := HandlerResult{Fetched: len(entries)}
	for _, e := range entries {
		if _, ok := known[e.MemberID]; !ok {
			res.Skipped++
			continue
		}
		if e.TicketID != nil {
			if err := h.repair.EnsureTicket(ctx, *e.TicketID); err != nil {
				return res, err
			}
		}
		created, err := h.store.UpsertTimeEntry(ctx, e)
		if err != nil {
			return res, fmt.Errorf("storing time entry %d: %w", e.ID, err)
		}
		res.record(e.ID, created)
	}
	return res, nil
}
