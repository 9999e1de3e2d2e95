package sync

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/store"
)

// boardSuffix matches the "(MS)" / "(TS)" team markers on board names.
var boardSuffix = regexp.MustCompile(`(?i)\((MS|TS)\)`)

func normalizeBoardName(name string) string {
	name = boardSuffix.ReplaceAllString(name, " ")
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// MatchServiceBoard reports whether a board name matches any configured
// service board name. Matching is a case-insensitive substring test in both
// directions after dropping team markers, so "Help Desk" matches both
// "Help Desk (MS)" and "Help".
func MatchServiceBoard(name string, candidates []string) bool {
	n := normalizeBoardName(name)
	if n == "" {
		return false
	}
	for _, c := range candidates {
		cn := normalizeBoardName(c)
		if cn == "" {
			continue
		}
		if strings.Contains(n, cn) || strings.Contains(cn, n) {
			return true
		}
	}
	return false
}

// serviceBoardMatcher decides service board membership, preferring an exact
// id list over name matching when one is configured.
type serviceBoardMatcher struct {
	ids   []int64
	names []string
}

func (m serviceBoardMatcher) matches(b model.Board) bool {
	if len(m.ids) > 0 {
		return slices.Contains(m.ids, b.ID)
	}
	return MatchServiceBoard(b.Name, m.names)
}

// serviceBoardIDs returns the ids of the matching boards in input order.
func (m serviceBoardMatcher) serviceBoardIDs(boards []model.Board) []int64 {
	var ids []int64
	for _, b := range boards {
		if m.matches(b) {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

type boardsHandler struct {
	remote  Remote
	store   store.Store
	pattern string
	matcher serviceBoardMatcher
}

func (h *boardsHandler) Entity() EntityType { return EntityBoards }

// Sync fetches every board and marks the service boards.
func (h *boardsHandler) Sync(ctx context.Context, _ Mode, _ *time.Time, run *Run) (HandlerResult, error) {
	boards, err := h.remote.Boards(ctx, h.pattern)
	if err != nil {
		return HandlerResult{}, err
	}

	res := HandlerResult{Fetched: len(boards)}
	services := 0
	for _, b := range boards {
		created, err := h.store.UpsertBoard(ctx, b)
		if err != nil {
			return res, fmt.Errorf("storing board %d: %w", b.ID, err)
		}
		res.record(b.ID, created)

		if !h.matcher.matches(b) {
			continue
		}
		_, err = h.store.UpsertServiceBoard(ctx, model.ServiceBoard{BoardID: b.ID, Name: b.Name})
		if err != nil {
			return res, fmt.Errorf("storing service board %d: %w", b.ID, err)
		}
		services++
	}

	if services == 0 {
		run.Logger.Warn("no service boards matched", "entity", EntityBoards,
			"names", h.matcher.names, "ids", h.matcher.ids)
	}
	return res, nil
}
