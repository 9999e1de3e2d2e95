package store

import (
	"context"
	"fmt"

	"github.com/nhle/engineer-metrics/internal/model"
)

// UpsertProject creates or overwrites a project keyed by its remote id.
func (s *SQLiteStore) UpsertProject(ctx context.Context, p model.Project) (bool, error) {
	return s.upsertRow(ctx, "projects", "id", p.ID, `
		INSERT INTO projects (
			id, name, status, company, manager_identifier, manager_name, board_name,
			estimated_start, estimated_end, actual_start, actual_end,
			percent_complete, actual_hours, budget_hours, closed, description, synced_at
		) VALUES (
			?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?, ?, ?
		)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			company = excluded.company,
			manager_identifier = excluded.manager_identifier,
			manager_name = excluded.manager_name,
			board_name = excluded.board_name,
			estimated_start = excluded.estimated_start,
			estimated_end = excluded.estimated_end,
			actual_start = excluded.actual_start,
			actual_end = excluded.actual_end,
			percent_complete = excluded.percent_complete,
			actual_hours = excluded.actual_hours,
			budget_hours = excluded.budget_hours,
			closed = excluded.closed,
			description = excluded.description,
			synced_at = excluded.synced_at`,
		p.ID, p.Name, p.Status, p.Company, p.ManagerIdentifier, p.ManagerName, p.BoardName,
		utcPtr(p.EstimatedStart), utcPtr(p.EstimatedEnd), utcPtr(p.ActualStart), utcPtr(p.ActualEnd),
		p.PercentComplete, p.ActualHours, p.BudgetHours, boolToInt(p.Closed), p.Description,
		s.now().UTC(),
	)
}

// GetProject retrieves a single project by id.
func (s *SQLiteStore) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project
	err := s.getOne(ctx, &p, fmt.Sprintf("project %d", id),
		"SELECT * FROM projects WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjectIDs returns the ids of every locally known project.
func (s *SQLiteStore) ListProjectIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, "SELECT id FROM projects ORDER BY id"); err != nil {
		return nil, fmt.Errorf("listing project ids: %w", err)
	}
	return ids, nil
}

// UpsertProjectTicket creates or overwrites a project ticket. Its project
// must already exist.
func (s *SQLiteStore) UpsertProjectTicket(ctx context.Context, t model.ProjectTicket) (bool, error) {
	return s.upsertRow(ctx, "project_tickets", "id", t.ID, `
		INSERT INTO project_tickets (
			id, summary, project_id, project_name, phase_id, phase_name,
			board_id, board_name, status, resources, budget_hours, actual_hours,
			date_entered, closed_date, closed, synced_at
		) VALUES (
			?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?,
			?, ?, ?, ?
		)
		ON CONFLICT(id) DO UPDATE SET
			summary = excluded.summary,
			project_id = excluded.project_id,
			project_name = excluded.project_name,
			phase_id = excluded.phase_id,
			phase_name = excluded.phase_name,
			board_id = excluded.board_id,
			board_name = excluded.board_name,
			status = excluded.status,
			resources = excluded.resources,
			budget_hours = excluded.budget_hours,
			actual_hours = excluded.actual_hours,
			date_entered = excluded.date_entered,
			closed_date = excluded.closed_date,
			closed = excluded.closed,
			synced_at = excluded.synced_at`,
		t.ID, t.Summary, t.ProjectID, t.ProjectName, t.PhaseID, t.PhaseName,
		t.BoardID, t.BoardName, t.Status, t.Resources, t.BudgetHours, t.ActualHours,
		utcPtr(t.DateEntered), utcPtr(t.ClosedDate), boolToInt(t.Closed), s.now().UTC(),
	)
}

// GetProjectTicket retrieves a single project ticket by id.
func (s *SQLiteStore) GetProjectTicket(ctx context.Context, id int64) (*model.ProjectTicket, error) {
	var t model.ProjectTicket
	err := s.getOne(ctx, &t, fmt.Sprintf("project ticket %d", id),
		"SELECT * FROM project_tickets WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
