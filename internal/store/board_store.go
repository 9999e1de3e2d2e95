package store

import (
	"context"
	"fmt"

	"github.com/nhle/engineer-metrics/internal/model"
)

// UpsertBoard creates or overwrites a board. A fetched board replaces any
// placeholder with the same id.
func (s *SQLiteStore) UpsertBoard(ctx context.Context, b model.Board) (bool, error) {
	return s.upsertRow(ctx, "boards", "id", b.ID, `
		INSERT INTO boards (id, name, category, placeholder, synced_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			placeholder = excluded.placeholder,
			synced_at = excluded.synced_at`,
		b.ID, b.Name, string(b.Category), boolToInt(b.Placeholder), s.now().UTC(),
	)
}

// GetBoard retrieves a single board by id.
func (s *SQLiteStore) GetBoard(ctx context.Context, id int64) (*model.Board, error) {
	var b model.Board
	err := s.getOne(ctx, &b, fmt.Sprintf("board %d", id),
		"SELECT * FROM boards WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// InsertPlaceholderBoard inserts b unless a board with its id already
// exists. It reports whether a row was inserted.
func (s *SQLiteStore) InsertPlaceholderBoard(ctx context.Context, b model.Board) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO boards (id, name, category, placeholder, synced_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(id) DO NOTHING`,
		b.ID, b.Name, string(b.Category), s.now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("inserting placeholder board %d: %w", b.ID, err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

// UpsertServiceBoard marks a board as a service board.
func (s *SQLiteStore) UpsertServiceBoard(ctx context.Context, sb model.ServiceBoard) (bool, error) {
	return s.upsertRow(ctx, "service_boards", "board_id", sb.BoardID, `
		INSERT INTO service_boards (board_id, name, synced_at)
		VALUES (?, ?, ?)
		ON CONFLICT(board_id) DO UPDATE SET
			name = excluded.name,
			synced_at = excluded.synced_at`,
		sb.BoardID, sb.Name, s.now().UTC(),
	)
}

// GetServiceBoards retrieves every service board ordered by board id.
func (s *SQLiteStore) GetServiceBoards(ctx context.Context) ([]model.ServiceBoard, error) {
	var boards []model.ServiceBoard
	err := s.db.SelectContext(ctx, &boards,
		"SELECT * FROM service_boards ORDER BY board_id")
	if err != nil {
		return nil, fmt.Errorf("getting service boards: %w", err)
	}
	return boards, nil
}
