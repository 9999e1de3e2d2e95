package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/store"
)

// unassignedBoardName names the reserved board created for placeholder
// tickets.
const unassignedBoardName = "Unassigned"

// Repairer synthesizes minimal parent rows so that children arriving before
// their parents still satisfy foreign keys.
type Repairer struct {
	store  store.Store
	logger *slog.Logger
}

// NewRepairer creates a Repairer.
func NewRepairer(s store.Store, logger *slog.Logger) *Repairer {
	return &Repairer{store: s, logger: logger}
}

// EnsureBoard makes sure board id exists, inserting a placeholder named
// "Board #<id>" when it does not.
func (r *Repairer) EnsureBoard(ctx context.Context, id int64) error {
	return r.ensureBoard(ctx, model.Board{
		ID:       id,
		Name:     fmt.Sprintf("Board #%d", id),
		Category: model.BoardCategoryService,
	})
}

func (r *Repairer) ensureBoard(ctx context.Context, placeholder model.Board) error {
	_, err := r.store.GetBoard(ctx, placeholder.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("checking board %d: %w", placeholder.ID, err)
	}

	created, err := r.store.InsertPlaceholderBoard(ctx, placeholder)
	if err != nil {
		return fmt.Errorf("repairing board %d: %w", placeholder.ID, err)
	}
	if created {
		r.logger.Info("created placeholder board", "board_id", placeholder.ID)
	} else {
		r.logger.Debug("placeholder board already present", "board_id", placeholder.ID)
	}
	return nil
}

// EnsureTicket makes sure ticket id exists, inserting a placeholder ticket
// on the reserved board when it does not.
func (r *Repairer) EnsureTicket(ctx context.Context, id int64) error {
	_, err := r.store.GetTicket(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("checking ticket %d: %w", id, err)
	}

	err = r.ensureBoard(ctx, model.Board{
		ID:       model.PlaceholderBoardID,
		Name:     unassignedBoardName,
		Category: model.BoardCategoryService,
	})
	if err != nil {
		return err
	}

	created, err := r.store.InsertPlaceholderTicket(ctx, model.Ticket{
		ID:      id,
		Summary: model.PlaceholderTicketSummary(id),
		BoardID: model.PlaceholderBoardID,
	})
	if err != nil {
		return fmt.Errorf("repairing ticket %d: %w", id, err)
	}
	if created {
		r.logger.Info("created placeholder ticket", "ticket_id", id)
	} else {
		r.logger.Debug("placeholder ticket already present", "ticket_id", id)
	}
	return nil
}
