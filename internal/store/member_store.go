package store

import (
	"context"
	"fmt"

	"github.com/nhle/engineer-metrics/internal/model"
)

// UpsertMember creates or overwrites a member keyed by its remote id.
func (s *SQLiteStore) UpsertMember(ctx context.Context, m model.Member) (bool, error) {
	return s.upsertRow(ctx, "members", "id", m.ID, `
		INSERT INTO members (id, identifier, first_name, last_name, name, email, inactive, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			identifier = excluded.identifier,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			name = excluded.name,
			email = excluded.email,
			inactive = excluded.inactive,
			synced_at = excluded.synced_at`,
		m.ID, m.Identifier, m.FirstName, m.LastName, m.Name, m.Email,
		boolToInt(m.Inactive), s.now().UTC(),
	)
}

// GetMember retrieves a single member by id.
func (s *SQLiteStore) GetMember(ctx context.Context, id int64) (*model.Member, error) {
	var m model.Member
	err := s.getOne(ctx, &m, fmt.Sprintf("member %d", id),
		"SELECT * FROM members WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMembersByIdentifiers retrieves the members whose identifiers match any
// of identifiers, case-insensitively, ordered by id.
func (s *SQLiteStore) GetMembersByIdentifiers(
	ctx context.Context,
	identifiers []string,
) ([]model.Member, error) {
	if len(identifiers) == 0 {
		return nil, nil
	}
	normalized := make([]string, len(identifiers))
	for i, id := range identifiers {
		normalized[i] = model.NormalizeIdentifier(id)
	}

	var members []model.Member
	err := selectIn(ctx, s, &members,
		"SELECT * FROM members WHERE lower(identifier) IN (?) ORDER BY id", normalized)
	if err != nil {
		return nil, fmt.Errorf("getting members by identifier: %w", err)
	}
	return members, nil
}
