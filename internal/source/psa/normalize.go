package psa

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/engineer-metrics/internal/model"
)

// ErrInvalidRecord marks a remote record that lacks a required field.
// Such records are skipped rather than stored with zero values.
var ErrInvalidRecord = errors.New("invalid record")

// billableOption is the billableOption value of billable time.
const billableOption = "Billable"

// timeLayouts are tried in order when parsing remote timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTime parses a remote timestamp. Blank or unparseable values yield nil.
func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func invalid(kind string, id *int64, reason string) error {
	if id == nil {
		return fmt.Errorf("%w: %s without id", ErrInvalidRecord, kind)
	}
	return fmt.Errorf("%w: %s %d %s", ErrInvalidRecord, kind, *id, reason)
}

// ToMember normalizes a member record. The id and identifier are required.
func (r MemberRecord) ToMember() (model.Member, error) {
	if r.ID == nil {
		return model.Member{}, invalid("member", nil, "")
	}
	identifier := strings.TrimSpace(r.Identifier)
	if identifier == "" {
		return model.Member{}, invalid("member", r.ID, "has no identifier")
	}

	name := strings.TrimSpace(r.FirstName + " " + r.LastName)
	if name == "" {
		name = identifier
	}

	return model.Member{
		ID:         *r.ID,
		Identifier: identifier,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Name:       name,
		Email:      r.PrimaryEmail,
		Inactive:   r.InactiveFlag,
	}, nil
}

// ToBoard normalizes a board record, classifying it with pattern.
func (r BoardRecord) ToBoard(pattern string) (model.Board, error) {
	if r.ID == nil {
		return model.Board{}, invalid("board", nil, "")
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return model.Board{}, invalid("board", r.ID, "has no name")
	}
	return model.Board{
		ID:       *r.ID,
		Name:     name,
		Category: model.ClassifyBoard(name, pattern),
	}, nil
}

// ToTicket normalizes a service ticket. The id and board reference are
// required.
func (r TicketRecord) ToTicket() (model.Ticket, error) {
	if r.ID == nil {
		return model.Ticket{}, invalid("ticket", nil, "")
	}
	boardID := r.Board.refID()
	if boardID == nil {
		return model.Ticket{}, invalid("ticket", r.ID, "has no board")
	}

	t := model.Ticket{
		ID:             *r.ID,
		Summary:        r.Summary,
		BoardID:        *boardID,
		Status:         r.Status.refName(),
		Owner:          r.Owner.refIdentifier(),
		Company:        r.Company.refName(),
		Type:           r.Type.refName(),
		Priority:       r.Priority.refName(),
		Resources:      model.ParseStringList(r.Resources),
		DateResolved:   parseTime(r.DateResolved),
		ClosedDate:     parseTime(r.ClosedDate),
		Closed:         r.ClosedFlag,
		EstimatedHours: r.BudgetHours,
		ActualHours:    r.ActualHours,
	}
	if r.Info != nil {
		t.DateEntered = parseTime(r.Info.DateEntered)
	}
	return t, nil
}

// ToTimeEntry normalizes a time entry. The id and member reference are
// required. The ticket reference is only set for ticket charge types.
func (r TimeEntryRecord) ToTimeEntry() (model.TimeEntry, error) {
	if r.ID == nil {
		return model.TimeEntry{}, invalid("time entry", nil, "")
	}
	memberID := r.Member.refID()
	if memberID == nil {
		return model.TimeEntry{}, invalid("time entry", r.ID, "has no member")
	}

	e := model.TimeEntry{
		ID:           *r.ID,
		MemberID:     *memberID,
		ChargeToType: r.ChargeToType,
		Billable:     strings.EqualFold(r.BillableOption, billableOption),
		Notes:        r.Notes,
		TimeStart:    parseTime(r.TimeStart),
		TimeEnd:      parseTime(r.TimeEnd),
	}
	if r.ActualHours != nil {
		e.Hours = *r.ActualHours
	}
	switch r.ChargeToType {
	case model.ChargeToServiceTicket, model.ChargeToProjectTicket:
		if r.ChargeToID != nil && *r.ChargeToID > 0 {
			id := *r.ChargeToID
			e.TicketID = &id
		}
	}
	return e, nil
}

// ToProject normalizes a project record. The id is required.
func (r ProjectRecord) ToProject() (model.Project, error) {
	if r.ID == nil {
		return model.Project{}, invalid("project", nil, "")
	}
	p := model.Project{
		ID:                *r.ID,
		Name:              r.Name,
		Status:            r.Status.refName(),
		Company:           r.Company.refName(),
		ManagerIdentifier: r.Manager.refIdentifier(),
		ManagerName:       r.Manager.refName(),
		BoardName:         r.Board.refName(),
		EstimatedStart:    parseTime(r.EstimatedStart),
		EstimatedEnd:      parseTime(r.EstimatedEnd),
		ActualStart:       parseTime(r.ActualStart),
		ActualEnd:         parseTime(r.ActualEnd),
		ActualHours:       r.ActualHours,
		BudgetHours:       r.BudgetHours,
		Closed:            r.ClosedFlag,
		Description:       r.Description,
	}
	if r.PercentComplete != nil {
		p.PercentComplete = *r.PercentComplete
	}
	return p, nil
}

// ToProjectTicket normalizes a project ticket. The id and project reference
// are required.
func (r ProjectTicketRecord) ToProjectTicket() (model.ProjectTicket, error) {
	if r.ID == nil {
		return model.ProjectTicket{}, invalid("project ticket", nil, "")
	}
	projectID := r.Project.refID()
	if projectID == nil {
		return model.ProjectTicket{}, invalid("project ticket", r.ID, "has no project")
	}

	t := model.ProjectTicket{
		ID:          *r.ID,
		Summary:     r.Summary,
		ProjectID:   *projectID,
		ProjectName: r.Project.refName(),
		PhaseID:     r.Phase.refID(),
		PhaseName:   r.Phase.refName(),
		BoardID:     r.Board.refID(),
		BoardName:   r.Board.refName(),
		Status:      r.Status.refName(),
		Resources:   model.ParseStringList(r.Resources),
		BudgetHours: r.BudgetHours,
		ActualHours: r.ActualHours,
		ClosedDate:  parseTime(r.ClosedDate),
		Closed:      r.ClosedFlag,
	}
	if r.Info != nil {
		t.DateEntered = parseTime(r.Info.DateEntered)
	}
	return t, nil
}

// EnteredAt returns the time the audit event was recorded, if parseable.
func (r AuditRecord) EnteredAt() (time.Time, bool) {
	t := parseTime(r.EnteredDate)
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}
