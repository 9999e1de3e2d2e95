package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/store"
)

type ticketsHandler struct {
	remote  Remote
	store   store.Store
	repair  *Repairer
	pattern string
	matcher serviceBoardMatcher
}

func (h *ticketsHandler) Entity() EntityType { return EntityTickets }

// Sync fetches the tickets on the service boards and keeps those owned by or
// assigned to an allow-listed member.
func (h *ticketsHandler) Sync(ctx context.Context, mode Mode, since *time.Time, run *Run) (HandlerResult, error) {
	boards, err := h.remote.Boards(ctx, h.pattern)
	if err != nil {
		return HandlerResult{}, err
	}
	boardIDs := h.matcher.serviceBoardIDs(boards)
	if len(boardIDs) == 0 {
		run.Logger.Warn("no service boards to fetch tickets from", "entity", EntityTickets)
		return HandlerResult{}, nil
	}

	tickets, err := h.remote.Tickets(ctx, boardIDs, since)
	if err != nil {
		return HandlerResult{}, err
	}

	res := HandlerResult{Fetched: len(tickets)}
	for _, t := range tickets {
		if !retainTicket(t, run.Allowed) {
			res.Skipped++
			continue
		}
		if err := h.repair.EnsureBoard(ctx, t.BoardID); err != nil {
			return res, err
		}
		created, err := h.store.UpsertTicket(ctx, t)
		if err != nil {
			return res, fmt.Errorf("storing ticket %d: %w", t.ID, err)
		}
		res.record(t.ID, created)
	}

	run.Logger.Debug("tickets filtered", "entity", EntityTickets, "mode", mode,
		"fetched", res.Fetched, "kept", res.Upserted)
	return res, nil
}

// retainTicket reports whether a ticket's owner or any of its resources is
// allow-listed.
func retainTicket(t model.Ticket, allowed model.IdentifierSet) bool {
	return allowed.Contains(t.Owner) || allowed.Any(t.Resources)
}
