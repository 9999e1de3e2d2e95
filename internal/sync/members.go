package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/engineer-metrics/internal/store"
)

type membersHandler struct {
	remote Remote
	store  store.Store
}

func (h *membersHandler) Entity() EntityType { return EntityMembers }

// Sync fetches every member, keeps the allow-listed ones and publishes their
// ids to the rest of the pass.
func (h *membersHandler) Sync(ctx context.Context, _ Mode, _ *time.Time, run *Run) (HandlerResult, error) {
	members, err := h.remote.Members(ctx)
	if err != nil {
		return HandlerResult{}, err
	}

	res := HandlerResult{Fetched: len(members)}
	ids := make([]int64, 0, len(run.Allowed))
	for _, m := range members {
		if !run.Allowed.Contains(m.Identifier) {
			res.Skipped++
			continue
		}
		created, err := h.store.UpsertMember(ctx, m)
		if err != nil {
			return res, fmt.Errorf("storing member %d: %w", m.ID, err)
		}
		res.record(m.ID, created)
		ids = append(ids, m.ID)
	}

	if len(ids) < len(run.Allowed) {
		run.Logger.Warn("allow-listed members missing from remote",
			"entity", EntityMembers, "found", len(ids), "allowed", len(run.Allowed))
	}
	run.setMemberIDs(ids)
	return res, nil
}
