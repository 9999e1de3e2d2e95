package model

import "time"

// Charge types a time entry can be billed against.
const (
	ChargeToServiceTicket = "ServiceTicket"
	ChargeToProjectTicket = "ProjectTicket"
)

// TimeEntry is a block of time logged by an allow-listed member.
type TimeEntry struct {
	ID       int64 `json:"id" db:"id"`
	MemberID int64 `json:"member_id" db:"member_id"`

	// TicketID is nil when the entry is not charged to a ticket.
	TicketID     *int64 `json:"ticket_id,omitempty" db:"ticket_id"`
	ChargeToType string `json:"charge_to_type" db:"charge_to_type"`

	Hours     float64    `json:"hours" db:"hours"`
	Billable  bool       `json:"billable" db:"billable"`
	Notes     string     `json:"notes" db:"notes"`
	TimeStart *time.Time `json:"time_start,omitempty" db:"time_start"`
	TimeEnd   *time.Time `json:"time_end,omitempty" db:"time_end"`
	SyncedAt  time.Time  `json:"synced_at" db:"synced_at"`
}
