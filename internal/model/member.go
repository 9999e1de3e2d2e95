package model

import (
	"strings"
	"time"
)

// Member is an engineer account in the PSA system.
type Member struct {
	// ID is assigned by the remote system and never changes.
	ID int64 `json:"id" db:"id"`

	// Identifier is the human handle (e.g., "jdoe"). Comparisons are
	// case-insensitive; use NormalizeIdentifier before comparing.
	Identifier string `json:"identifier" db:"identifier"`

	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`

	// Name is the display name, usually "First Last".
	Name string `json:"name" db:"name"`

	Email    string    `json:"email" db:"email"`
	Inactive bool      `json:"inactive" db:"inactive"`
	SyncedAt time.Time `json:"synced_at" db:"synced_at"`
}

// NormalizeIdentifier returns the canonical form of a member identifier.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// IdentifierSet is a case-insensitive set of member identifiers. Each entry
// keeps the spelling it was first configured with.
type IdentifierSet map[string]string

// NewIdentifierSet builds a set from the given identifiers, ignoring blanks.
func NewIdentifierSet(identifiers []string) IdentifierSet {
	set := make(IdentifierSet, len(identifiers))
	for _, id := range identifiers {
		n := NormalizeIdentifier(id)
		if n == "" {
			continue
		}
		if _, ok := set[n]; !ok {
			set[n] = strings.TrimSpace(id)
		}
	}
	return set
}

// Contains reports whether identifier is in the set.
func (s IdentifierSet) Contains(identifier string) bool {
	_, ok := s[NormalizeIdentifier(identifier)]
	return ok
}

// Any reports whether any of the identifiers is in the set.
func (s IdentifierSet) Any(identifiers []string) bool {
	for _, id := range identifiers {
		if s.Contains(id) {
			return true
		}
	}
	return false
}

// Slice returns the normalized identifiers in unspecified order.
func (s IdentifierSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// Configured returns the identifiers as configured, in unspecified order.
func (s IdentifierSet) Configured() []string {
	out := make([]string, 0, len(s))
	for _, id := range s {
		out = append(out, id)
	}
	return out
}
