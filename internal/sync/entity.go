// Package sync keeps the local metrics cache consistent with the PSA system
// of record. The Orchestrator walks the entity types in dependency order,
// consults the sync ledger for staleness, and runs one Handler per type.
package sync

import (
	"fmt"
	"strings"
)

// EntityType names a synced entity type. It is also the ledger key.
type EntityType string

const (
	EntityMembers        EntityType = "members"
	EntityBoards         EntityType = "boards"
	EntityTickets        EntityType = "tickets"
	EntityTimeEntries    EntityType = "timeEntries"
	EntityProjects       EntityType = "projects"
	EntityProjectTickets EntityType = "projectTickets"
)

// AllEntities is the fixed dependency order of a sync pass. Later types
// consume ids resolved by earlier ones.
var AllEntities = []EntityType{
	EntityMembers,
	EntityBoards,
	EntityTickets,
	EntityTimeEntries,
	EntityProjects,
	EntityProjectTickets,
}

// alwaysFull reports whether an entity type is a small reference table that
// is never synced incrementally.
func (e EntityType) alwaysFull() bool {
	return e == EntityMembers || e == EntityBoards
}

// ParseEntity resolves a name case-insensitively, accepting the snake_case
// spelling used by the CLI (e.g. "time_entries").
func ParseEntity(name string) (EntityType, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
	for _, e := range AllEntities {
		if strings.ToLower(string(e)) == key {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown entity type %q", name)
}

// ParseEntities resolves a list of names, preserving no particular order.
// An empty list yields nil.
func ParseEntities(names []string) ([]EntityType, error) {
	var out []EntityType
	for _, n := range names {
		e, err := ParseEntity(n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Mode is the fetch strategy of one entity sync.
type Mode string

const (
	// ModeFull fetches the entity's entire remote collection.
	ModeFull Mode = "full"

	// ModeIncremental fetches only records modified since the last success.
	ModeIncremental Mode = "incremental"
)
