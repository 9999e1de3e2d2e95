package sync

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/engineer-metrics/internal/model"
)

// activityConcurrency bounds concurrent remote lookups.
const activityConcurrency = 10

// MemberActivity pairs a member with their most recent remote time entry.
type MemberActivity struct {
	Member model.Member

	// LastEntry is nil when the member has never logged time.
	LastEntry *model.TimeEntry
}

// LatestActivity looks up the latest remote time entry of each member with
// at most ten requests in flight. Results keep the order of members.
func LatestActivity(ctx context.Context, remote Remote, members []model.Member) ([]MemberActivity, error) {
	out := make([]MemberActivity, len(members))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(activityConcurrency)
	for i, m := range members {
		g.Go(func() error {
			entry, err := remote.LatestTimeEntry(gctx, m.ID)
			if err != nil {
				return fmt.Errorf("member %s: %w", m.Identifier, err)
			}
			out[i] = MemberActivity{Member: m, LastEntry: entry}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
