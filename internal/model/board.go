package model

import (
	"strings"
	"time"
)

// BoardCategory is the two-valued classification of a board.
type BoardCategory string

const (
	BoardCategoryService BoardCategory = "service"
	BoardCategoryProject BoardCategory = "project"
)

// DefaultProjectBoardPattern is the name substring that marks a project board.
const DefaultProjectBoardPattern = "project"

// PlaceholderBoardID is the reserved board that owns placeholder tickets.
const PlaceholderBoardID int64 = 1

// Board is a PSA service or project board.
type Board struct {
	ID       int64         `json:"id" db:"id"`
	Name     string        `json:"name" db:"name"`
	Category BoardCategory `json:"category" db:"category"`

	// Placeholder is set when the row was synthesized by referential
	// repair rather than fetched from the remote system.
	Placeholder bool      `json:"placeholder" db:"placeholder"`
	SyncedAt    time.Time `json:"synced_at" db:"synced_at"`
}

// ServiceBoard marks a board as one of the configured service boards.
type ServiceBoard struct {
	BoardID  int64     `json:"board_id" db:"board_id"`
	Name     string    `json:"name" db:"name"`
	SyncedAt time.Time `json:"synced_at" db:"synced_at"`
}

// ClassifyBoard derives a board category from its name. A board whose name
// contains pattern (case-insensitive) is a project board; every other board
// is a service board.
func ClassifyBoard(name, pattern string) BoardCategory {
	if pattern == "" {
		pattern = DefaultProjectBoardPattern
	}
	if strings.Contains(strings.ToLower(name), strings.ToLower(pattern)) {
		return BoardCategoryProject
	}
	return BoardCategoryService
}
