package model

import "time"

// Project statuses that trigger audit trail capture.
const (
	ProjectStatusReadyToClose = "Ready to Close"
	ProjectStatusClosed       = "Closed"
)

// IsTerminalProjectStatus reports whether status is one of the statuses
// whose transition history is captured.
func IsTerminalProjectStatus(status string) bool {
	return status == ProjectStatusReadyToClose || status == ProjectStatusClosed
}

// Project is a PSA project managed by an allow-listed member.
type Project struct {
	ID                int64  `json:"id" db:"id"`
	Name              string `json:"name" db:"name"`
	Status            string `json:"status" db:"status"`
	Company           string `json:"company" db:"company"`
	ManagerIdentifier string `json:"manager_identifier" db:"manager_identifier"`
	ManagerName       string `json:"manager_name" db:"manager_name"`
	BoardName         string `json:"board_name" db:"board_name"`

	EstimatedStart *time.Time `json:"estimated_start,omitempty" db:"estimated_start"`
	EstimatedEnd   *time.Time `json:"estimated_end,omitempty" db:"estimated_end"`
	ActualStart    *time.Time `json:"actual_start,omitempty" db:"actual_start"`
	ActualEnd      *time.Time `json:"actual_end,omitempty" db:"actual_end"`

	PercentComplete float64  `json:"percent_complete" db:"percent_complete"`
	ActualHours     *float64 `json:"actual_hours,omitempty" db:"actual_hours"`
	BudgetHours     *float64 `json:"budget_hours,omitempty" db:"budget_hours"`
	Closed          bool     `json:"closed" db:"closed"`
	Description     string   `json:"description" db:"description"`

	SyncedAt time.Time `json:"synced_at" db:"synced_at"`
}

// ProjectTicket is a ticket that belongs to a locally known project.
type ProjectTicket struct {
	ID          int64  `json:"id" db:"id"`
	Summary     string `json:"summary" db:"summary"`
	ProjectID   int64  `json:"project_id" db:"project_id"`
	ProjectName string `json:"project_name" db:"project_name"`
	PhaseID     *int64 `json:"phase_id,omitempty" db:"phase_id"`
	PhaseName   string `json:"phase_name" db:"phase_name"`
	BoardID     *int64 `json:"board_id,omitempty" db:"board_id"`
	BoardName   string `json:"board_name" db:"board_name"`
	Status      string `json:"status" db:"status"`

	Resources StringList `json:"resources" db:"resources"`

	BudgetHours *float64   `json:"budget_hours,omitempty" db:"budget_hours"`
	ActualHours *float64   `json:"actual_hours,omitempty" db:"actual_hours"`
	DateEntered *time.Time `json:"date_entered,omitempty" db:"date_entered"`
	ClosedDate  *time.Time `json:"closed_date,omitempty" db:"closed_date"`
	Closed      bool       `json:"closed" db:"closed"`

	SyncedAt time.Time `json:"synced_at" db:"synced_at"`
}

// ProjectAudit records when and by whom a project changed status.
// Rows are append-only.
type ProjectAudit struct {
	ID             string    `json:"id" db:"id"`
	ProjectID      int64     `json:"project_id" db:"project_id"`
	Status         string    `json:"status" db:"status"`
	PreviousStatus string    `json:"previous_status" db:"previous_status"`
	ChangedBy      string    `json:"changed_by" db:"changed_by"`
	ChangedAt      time.Time `json:"changed_at" db:"changed_at"`
	Message        string    `json:"message" db:"message"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
