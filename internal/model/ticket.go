package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Ticket is a service ticket retained for an allow-listed member.
type Ticket struct {
	ID       int64  `json:"id" db:"id"`
	Summary  string `json:"summary" db:"summary"`
	BoardID  int64  `json:"board_id" db:"board_id"`
	Status   string `json:"status" db:"status"`
	Owner    string `json:"owner" db:"owner"`
	Company  string `json:"company" db:"company"`
	Type     string `json:"type" db:"type"`
	Priority string `json:"priority" db:"priority"`

	// Resources lists the identifiers of members assigned to the ticket.
	Resources StringList `json:"resources" db:"resources"`

	DateEntered  *time.Time `json:"date_entered,omitempty" db:"date_entered"`
	DateResolved *time.Time `json:"date_resolved,omitempty" db:"date_resolved"`
	ClosedDate   *time.Time `json:"closed_date,omitempty" db:"closed_date"`
	Closed       bool       `json:"closed" db:"closed"`

	EstimatedHours *float64 `json:"estimated_hours,omitempty" db:"estimated_hours"`
	ActualHours    *float64 `json:"actual_hours,omitempty" db:"actual_hours"`

	// Placeholder is set when the row was synthesized by referential repair.
	Placeholder bool      `json:"placeholder" db:"placeholder"`
	SyncedAt    time.Time `json:"synced_at" db:"synced_at"`
}

// PlaceholderTicketSummary returns the summary used for repaired tickets.
func PlaceholderTicketSummary(id int64) string {
	return fmt.Sprintf("[placeholder] Ticket #%d", id)
}

// StringList is a list of strings persisted as a JSON array.
type StringList []string

// ParseStringList splits a comma-separated remote field into a list,
// trimming blanks.
func ParseStringList(s string) StringList {
	if strings.TrimSpace(s) == "" {
		return StringList{}
	}
	parts := strings.Split(s, ",")
	out := make(StringList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshaling string list: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("scanning string list: unsupported type %T", src)
	}

	if len(data) == 0 {
		*l = StringList{}
		return nil
	}

	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshaling string list: %w", err)
	}
	*l = out
	return nil
}
