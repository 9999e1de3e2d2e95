package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nhle/engineer-metrics/internal/model"
)

// InsertProjectAudit appends an audit row, generating its id when empty.
func (s *SQLiteStore) InsertProjectAudit(ctx context.Context, a model.ProjectAudit) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_audits (
			id, project_id, status, previous_status, changed_by, changed_at, message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, a.Status, a.PreviousStatus, a.ChangedBy,
		a.ChangedAt.UTC(), a.Message, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit for project %d: %w", a.ProjectID, err)
	}
	return nil
}

// HasProjectAudit reports whether the remote event behind a has already
// been recorded. Events are identified by project, time, author and text,
// never by the status derived from them.
func (s *SQLiteStore) HasProjectAudit(ctx context.Context, a model.ProjectAudit) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM project_audits
		WHERE project_id = ? AND changed_at = ? AND changed_by = ? AND message = ?`,
		a.ProjectID, a.ChangedAt.UTC(), a.ChangedBy, a.Message,
	)
	if err != nil {
		return false, fmt.Errorf("checking audit for project %d: %w", a.ProjectID, err)
	}
	return n > 0, nil
}

// GetProjectAudits retrieves a project's audit rows, oldest change first.
func (s *SQLiteStore) GetProjectAudits(ctx context.Context, projectID int64) ([]model.ProjectAudit, error) {
	var audits []model.ProjectAudit
	err := s.db.SelectContext(ctx, &audits, `
		SELECT * FROM project_audits
		WHERE project_id = ?
		ORDER BY changed_at, created_at`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting audits for project %d: %w", projectID, err)
	}
	return audits, nil
}
