package store

import (
	"context"
	"fmt"

	"github.com/nhle/engineer-metrics/internal/model"
)

// UpsertTimeEntry creates or overwrites a time entry. The member and, when
// set, the ticket must already exist.
func (s *SQLiteStore) UpsertTimeEntry(ctx context.Context, e model.TimeEntry) (bool, error) {
	return s.upsertRow(ctx, "time_entries", "id", e.ID, `
		INSERT INTO time_entries (
			id, member_id, ticket_id, charge_to_type, hours, billable,
			notes, time_start, time_end, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			member_id = excluded.member_id,
			ticket_id = excluded.ticket_id,
			charge_to_type = excluded.charge_to_type,
			hours = excluded.hours,
			billable = excluded.billable,
			notes = excluded.notes,
			time_start = excluded.time_start,
			time_end = excluded.time_end,
			synced_at = excluded.synced_at`,
		e.ID, e.MemberID, e.TicketID, e.ChargeToType, e.Hours, boolToInt(e.Billable),
		e.Notes, utcPtr(e.TimeStart), utcPtr(e.TimeEnd), s.now().UTC(),
	)
}

// GetTimeEntry retrieves a single time entry by id.
func (s *SQLiteStore) GetTimeEntry(ctx context.Context, id int64) (*model.TimeEntry, error) {
	var e model.TimeEntry
	err := s.getOne(ctx, &e, fmt.Sprintf("time entry %d", id),
		"SELECT * FROM time_entries WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
