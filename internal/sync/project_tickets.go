package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/engineer-metrics/internal/store"
)

type projectTicketsHandler struct {
	remote Remote
	store  store.Store
}

func (h *projectTicketsHandler) Entity() EntityType { return EntityProjectTickets }

// Sync fetches project tickets and keeps those whose project is known
// locally.
func (h *projectTicketsHandler) Sync(ctx context.Context, _ Mode, since *time.Time, run *Run) (HandlerResult, error) {
	projectIDs, err := h.store.ListProjectIDs(ctx)
	if err != nil {
		return HandlerResult{}, err
	}
	if len(projectIDs) == 0 {
		run.Logger.Warn("no known projects, skipping project tickets", "entity", EntityProjectTickets)
		return HandlerResult{}, nil
	}

	known := make(map[int64]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		known[id] = struct{}{}
	}

	tickets, err := h.remote.ProjectTickets(ctx, since)
	if err != nil {
		return HandlerResult{}, err
	}

	res := HandlerResult{Fetched: len(tickets)}
	for _, t := range tickets {
		if _, ok := known[t.ProjectID]; !ok {
			res.Skipped++
			continue
		}
		created, err := h.store.UpsertProjectTicket(ctx, t)
		if err != nil {
			return res, fmt.Errorf("storing project ticket %d: %w", t.ID, err)
		}
		res.record(t.ID, created)
	}
	return res, nil
}
