package sync

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/source/psa"
	"github.com/nhle/engineer-metrics/internal/store"
)

// statusTransition extracts the statuses from texts like
// `Status changed from "In Progress" to "Ready to Close"`.
var statusTransition = regexp.MustCompile(`(?i)from\s+"([^"]*)"\s+to\s+"([^"]*)"`)

// AuditCapture appends project status-change history to the local store.
type AuditCapture struct {
	remote Remote
	store  store.Store
}

// NewAuditCapture creates an AuditCapture.
func NewAuditCapture(remote Remote, s store.Store) *AuditCapture {
	return &AuditCapture{remote: remote, store: s}
}

// Capture fetches the audit trail of each project and appends the status
// changes not already recorded. It returns the number of rows inserted.
// A failure on one project is logged and the next project is attempted.
func (a *AuditCapture) Capture(ctx context.Context, projects []model.Project, logger *slog.Logger) int {
	inserted := 0
	for _, p := range projects {
		if ctx.Err() != nil {
			break
		}
		n, err := a.captureProject(ctx, p, logger)
		inserted += n
		if err != nil {
			logger.Warn("audit capture failed", "project_id", p.ID, "error", err)
		}
	}
	return inserted
}

func (a *AuditCapture) captureProject(ctx context.Context, p model.Project, logger *slog.Logger) (int, error) {
	events, err := a.remote.AuditTrail(ctx, psa.AuditKindProject, p.ID)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, ev := range events {
		audit, ok := statusChange(ev, p)
		if !ok {
			continue
		}

		exists, err := a.store.HasProjectAudit(ctx, audit)
		if err != nil {
			return inserted, err
		}
		if exists {
			continue
		}

		if err := a.store.InsertProjectAudit(ctx, audit); err != nil {
			logger.Warn("skipping project audit", "project_id", p.ID, "error", err)
			continue
		}
		inserted++
	}
	return inserted, nil
}

// isStatusEvent reports whether an audit event looks like a status change.
func isStatusEvent(ev psa.AuditRecord) bool {
	if containsFold(ev.AuditType, "status") || containsFold(ev.AuditSubType, "status") {
		return true
	}
	if containsFold(ev.Text, "status changed") {
		return true
	}
	return mentionsTerminalStatus(ev.NewValue) || mentionsTerminalStatus(ev.OldValue)
}

func mentionsTerminalStatus(s string) bool {
	return containsFold(s, model.ProjectStatusReadyToClose) ||
		containsFold(s, model.ProjectStatusClosed)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// statusChange converts a status-change event into an audit row. Events
// without a parseable timestamp are rejected.
func statusChange(ev psa.AuditRecord, p model.Project) (model.ProjectAudit, bool) {
	if !isStatusEvent(ev) {
		return model.ProjectAudit{}, false
	}
	changedAt, ok := ev.EnteredAt()
	if !ok {
		return model.ProjectAudit{}, false
	}

	status := strings.TrimSpace(ev.NewValue)
	previous := strings.TrimSpace(ev.OldValue)
	if status == "" {
		if m := statusTransition.FindStringSubmatch(ev.Text); m != nil {
			previous, status = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		}
	}
	if status == "" {
		status = p.Status
	}

	return model.ProjectAudit{
		ProjectID:      p.ID,
		Status:         status,
		PreviousStatus: previous,
		ChangedBy:      ev.EnteredBy,
		ChangedAt:      changedAt,
		Message:        ev.Text,
	}, true
}
