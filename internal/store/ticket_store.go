package store

import (
	"context"
	"fmt"

	"github.com/nhle/engineer-metrics/internal/model"
)

// UpsertTicket creates or overwrites a service ticket. A fetched ticket
// replaces any placeholder with the same id.
func (s *SQLiteStore) UpsertTicket(ctx context.Context, t model.Ticket) (bool, error) {
	return s.upsertRow(ctx, "tickets", "id", t.ID, `
		INSERT INTO tickets (
			id, summary, board_id, status, owner, company, type, priority,
			resources, date_entered, date_resolved, closed_date, closed,
			estimated_hours, actual_hours, placeholder, synced_at
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?
		)
		ON CONFLICT(id) DO UPDATE SET
			summary = excluded.summary,
			board_id = excluded.board_id,
			status = excluded.status,
			owner = excluded.owner,
			company = excluded.company,
			type = excluded.type,
			priority = excluded.priority,
			resources = excluded.resources,
			date_entered = excluded.date_entered,
			date_resolved = excluded.date_resolved,
			closed_date = excluded.closed_date,
			closed = excluded.closed,
			estimated_hours = excluded.estimated_hours,
			actual_hours = excluded.actual_hours,
			placeholder = excluded.placeholder,
			synced_at = excluded.synced_at`,
		t.ID, t.Summary, t.BoardID, t.Status, t.Owner, t.Company, t.Type, t.Priority,
		t.Resources, utcPtr(t.DateEntered), utcPtr(t.DateResolved), utcPtr(t.ClosedDate),
		boolToInt(t.Closed),
		t.EstimatedHours, t.ActualHours, boolToInt(t.Placeholder), s.now().UTC(),
	)
}

// GetTicket retrieves a single ticket by id.
func (s *SQLiteStore) GetTicket(ctx context.Context, id int64) (*model.Ticket, error) {
	var t model.Ticket
	err := s.getOne(ctx, &t, fmt.Sprintf("ticket %d", id),
		"SELECT * FROM tickets WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTicketsByIDs retrieves the tickets with the given ids ordered by id.
// Unknown ids are ignored.
func (s *SQLiteStore) GetTicketsByIDs(ctx context.Context, ids []int64) ([]model.Ticket, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tickets []model.Ticket
	err := selectIn(ctx, s, &tickets,
		"SELECT * FROM tickets WHERE id IN (?) ORDER BY id", ids)
	if err != nil {
		return nil, fmt.Errorf("getting tickets by id: %w", err)
	}
	return tickets, nil
}

// InsertPlaceholderTicket inserts t unless a ticket with its id already
// exists. It reports whether a row was inserted.
func (s *SQLiteStore) InsertPlaceholderTicket(ctx context.Context, t model.Ticket) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (id, summary, board_id, resources, placeholder, synced_at)
		VALUES (?, ?, ?, '[]', 1, ?)
		ON CONFLICT(id) DO NOTHING`,
		t.ID, t.Summary, t.BoardID, s.now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("inserting placeholder ticket %d: %w", t.ID, err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}
