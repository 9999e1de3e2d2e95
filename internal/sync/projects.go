package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/store"
)

type projectsHandler struct {
	remote Remote
	store  store.Store
	audits *AuditCapture
}

func (h *projectsHandler) Entity() EntityType { return EntityProjects }

// Sync fetches the projects managed by allow-listed members and captures the
// status history of those in a terminal status.
func (h *projectsHandler) Sync(ctx context.Context, _ Mode, since *time.Time, run *Run) (HandlerResult, error) {
	projects, err := h.remote.Projects(ctx, run.Managers(), since)
	if err != nil {
		return HandlerResult{}, err
	}

	res := HandlerResult{Fetched: len(projects)}
	var terminal []model.Project
	for _, p := range projects {
		if !run.Allowed.Contains(p.ManagerIdentifier) {
			res.Skipped++
			continue
		}
		created, err := h.store.UpsertProject(ctx, p)
		if err != nil {
			return res, fmt.Errorf("storing project %d: %w", p.ID, err)
		}
		res.record(p.ID, created)

		if model.IsTerminalProjectStatus(p.Status) {
			terminal = append(terminal, p)
		}
	}

	if len(terminal) > 0 {
		inserted := h.audits.Capture(ctx, terminal, run.Logger)
		run.Logger.Info("captured project audits", "entity", EntityProjects,
			"projects", len(terminal), "inserted", inserted)
	}
	return res, nil
}
