package psa

// Ref is a nested reference to another remote record. Which fields are
// populated depends on the referenced type.
type Ref struct {
	ID         *int64 `json:"id"`
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
}

// refID returns the referenced id, or nil when the reference is absent.
func (r *Ref) refID() *int64 {
	if r == nil {
		return nil
	}
	return r.ID
}

// refName returns the referenced name, or "" when the reference is absent.
func (r *Ref) refName() string {
	if r == nil {
		return ""
	}
	return r.Name
}

// refIdentifier returns the referenced identifier, or "" when absent.
func (r *Ref) refIdentifier() string {
	if r == nil {
		return ""
	}
	return r.Identifier
}

// Info is the bookkeeping block the remote API attaches as "_info".
type Info struct {
	DateEntered string `json:"dateEntered"`
	LastUpdated string `json:"lastUpdated"`
	UpdatedBy   string `json:"updatedBy"`
}

// MemberRecord is a record from GET /system/members.
type MemberRecord struct {
	ID           *int64 `json:"id"`
	Identifier   string `json:"identifier"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	PrimaryEmail string `json:"primaryEmail"`
	InactiveFlag bool   `json:"inactiveFlag"`
}

// BoardRecord is a record from GET /service/boards.
type BoardRecord struct {
	ID           *int64 `json:"id"`
	Name         string `json:"name"`
	InactiveFlag bool   `json:"inactiveFlag"`
	ProjectFlag  bool   `json:"projectFlag"`
}

// TicketRecord is a record from GET /service/tickets.
type TicketRecord struct {
	ID           *int64   `json:"id"`
	Summary      string   `json:"summary"`
	Board        *Ref     `json:"board"`
	Status       *Ref     `json:"status"`
	Owner        *Ref     `json:"owner"`
	Company      *Ref     `json:"company"`
	Type         *Ref     `json:"type"`
	Priority     *Ref     `json:"priority"`
	Resources    string   `json:"resources"`
	DateResolved string   `json:"dateResolved"`
	ClosedDate   string   `json:"closedDate"`
	ClosedFlag   bool     `json:"closedFlag"`
	BudgetHours  *float64 `json:"budgetHours"`
	ActualHours  *float64 `json:"actualHours"`
	Info         *Info    `json:"_info"`
}

// TimeEntryRecord is a record from GET /time/entries.
type TimeEntryRecord struct {
	ID             *int64   `json:"id"`
	Member         *Ref     `json:"member"`
	ChargeToID     *int64   `json:"chargeToId"`
	ChargeToType   string   `json:"chargeToType"`
	ActualHours    *float64 `json:"actualHours"`
	BillableOption string   `json:"billableOption"`
	Notes          string   `json:"notes"`
	TimeStart      string   `json:"timeStart"`
	TimeEnd        string   `json:"timeEnd"`
	Info           *Info    `json:"_info"`
}

// ProjectRecord is a record from GET /project/projects.
type ProjectRecord struct {
	ID              *int64   `json:"id"`
	Name            string   `json:"name"`
	Status          *Ref     `json:"status"`
	Company         *Ref     `json:"company"`
	Manager         *Ref     `json:"manager"`
	Board           *Ref     `json:"board"`
	EstimatedStart  string   `json:"estimatedStart"`
	EstimatedEnd    string   `json:"estimatedEnd"`
	ActualStart     string   `json:"actualStart"`
	ActualEnd       string   `json:"actualEnd"`
	PercentComplete *float64 `json:"percentComplete"`
	ActualHours     *float64 `json:"actualHours"`
	BudgetHours     *float64 `json:"budgetHours"`
	ClosedFlag      bool     `json:"closedFlag"`
	Description     string   `json:"description"`
	Info            *Info    `json:"_info"`
}

// ProjectTicketRecord is a record from GET /project/tickets.
type ProjectTicketRecord struct {
	ID          *int64   `json:"id"`
	Summary     string   `json:"summary"`
	Project     *Ref     `json:"project"`
	Phase       *Ref     `json:"phase"`
	Board       *Ref     `json:"board"`
	Status      *Ref     `json:"status"`
	Resources   string   `json:"resources"`
	BudgetHours *float64 `json:"budgetHours"`
	ActualHours *float64 `json:"actualHours"`
	ClosedDate  string   `json:"closedDate"`
	ClosedFlag  bool     `json:"closedFlag"`
	Info        *Info    `json:"_info"`
}

// AuditRecord is one event from GET /system/audittrail.
type AuditRecord struct {
	Text         string `json:"text"`
	EnteredDate  string `json:"enteredDate"`
	EnteredBy    string `json:"enteredBy"`
	AuditType    string `json:"auditType"`
	AuditSubType string `json:"auditSubType"`
	AuditSource  string `json:"auditSource"`
	NewValue     string `json:"newValue"`
	OldValue     string `json:"oldValue"`
}
