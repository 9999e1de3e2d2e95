package psa

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nhle/engineer-metrics/internal/model"
)

// Remote resource paths.
const (
	resourceMembers        = "system/members"
	resourceBoards         = "service/boards"
	resourceTickets        = "service/tickets"
	resourceTimeEntries    = "time/entries"
	resourceProjects       = "project/projects"
	resourceProjectTickets = "project/tickets"
	resourceAuditTrail     = "system/audittrail"
)

// AuditKindProject is the audit trail type for projects.
const AuditKindProject = "Project"

// orderByID keeps pagination stable across pages.
const orderByID = "id asc"

// normalizeAll converts records with fn, logging and dropping the ones that
// fail validation.
func normalizeAll[R any, M any](
	c *Client,
	resource string,
	records []R,
	fn func(R) (M, error),
) []M {
	out := make([]M, 0, len(records))
	for _, r := range records {
		m, err := fn(r)
		if err != nil {
			c.logger.Warn("skipping invalid record", "resource", resource, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out
}

// Members fetches every member.
func (c *Client) Members(ctx context.Context) ([]model.Member, error) {
	records, err := fetchAll[MemberRecord](ctx, c, resourceMembers, Filters{OrderBy: orderByID})
	if err != nil {
		return nil, fmt.Errorf("fetching members: %w", err)
	}
	return normalizeAll(c, resourceMembers, records, MemberRecord.ToMember), nil
}

// Boards fetches every board, classifying each by projectPattern.
func (c *Client) Boards(ctx context.Context, projectPattern string) ([]model.Board, error) {
	records, err := fetchAll[BoardRecord](ctx, c, resourceBoards, Filters{OrderBy: orderByID})
	if err != nil {
		return nil, fmt.Errorf("fetching boards: %w", err)
	}
	return normalizeAll(c, resourceBoards, records, func(r BoardRecord) (model.Board, error) {
		return r.ToBoard(projectPattern)
	}), nil
}

// Tickets fetches service tickets on the given boards, optionally limited to
// those modified after since. No boards means no tickets.
func (c *Client) Tickets(
	ctx context.Context,
	boardIDs []int64,
	since *time.Time,
) ([]model.Ticket, error) {
	if len(boardIDs) == 0 {
		return nil, nil
	}
	filters := Filters{
		Conditions:    InInts("board/id", boardIDs),
		OrderBy:       orderByID,
		ModifiedSince: since,
	}
	records, err := fetchAll[TicketRecord](ctx, c, resourceTickets, filters)
	if err != nil {
		return nil, fmt.Errorf("fetching tickets: %w", err)
	}
	return normalizeAll(c, resourceTickets, records, TicketRecord.ToTicket), nil
}

// TimeEntries fetches time entries logged by the given members, optionally
// limited to those modified after since. No members means no entries.
func (c *Client) TimeEntries(
	ctx context.Context,
	memberIDs []int64,
	since *time.Time,
) ([]model.TimeEntry, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	filters := Filters{
		Conditions:    InInts("member/id", memberIDs),
		OrderBy:       orderByID,
		ModifiedSince: since,
	}
	records, err := fetchAll[TimeEntryRecord](ctx, c, resourceTimeEntries, filters)
	if err != nil {
		return nil, fmt.Errorf("fetching time entries: %w", err)
	}
	return normalizeAll(c, resourceTimeEntries, records, TimeEntryRecord.ToTimeEntry), nil
}

// Projects fetches projects managed by the given member identifiers,
// optionally limited to those modified after since.
func (c *Client) Projects(
	ctx context.Context,
	managerIdentifiers []string,
	since *time.Time,
) ([]model.Project, error) {
	if len(managerIdentifiers) == 0 {
		return nil, nil
	}
	filters := Filters{
		Conditions:    InStrings("manager/identifier", managerIdentifiers),
		OrderBy:       orderByID,
		ModifiedSince: since,
	}
	records, err := fetchAll[ProjectRecord](ctx, c, resourceProjects, filters)
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}
	return normalizeAll(c, resourceProjects, records, ProjectRecord.ToProject), nil
}

// ProjectTickets fetches every project ticket, optionally limited to those
// modified after since.
func (c *Client) ProjectTickets(
	ctx context.Context,
	since *time.Time,
) ([]model.ProjectTicket, error) {
	filters := Filters{OrderBy: orderByID, ModifiedSince: since}
	records, err := fetchAll[ProjectTicketRecord](ctx, c, resourceProjectTickets, filters)
	if err != nil {
		return nil, fmt.Errorf("fetching project tickets: %w", err)
	}
	return normalizeAll(c, resourceProjectTickets, records, ProjectTicketRecord.ToProjectTicket), nil
}

// AuditTrail fetches the change history of one remote record.
func (c *Client) AuditTrail(
	ctx context.Context,
	kind string,
	id int64,
) ([]AuditRecord, error) {
	filters := Filters{
		Params: map[string]string{
			"type": kind,
			"id":   strconv.FormatInt(id, 10),
		},
	}
	records, err := fetchAll[AuditRecord](ctx, c, resourceAuditTrail, filters)
	if err != nil {
		return nil, fmt.Errorf("fetching %s %d audit trail: %w", kind, id, err)
	}
	return records, nil
}

// LatestTimeEntry returns the most recent time entry of a member, or nil if
// the member has never logged time.
func (c *Client) LatestTimeEntry(
	ctx context.Context,
	memberID int64,
) (*model.TimeEntry, error) {
	filters := Filters{
		Conditions: "member/id = " + strconv.FormatInt(memberID, 10),
		OrderBy:    "timeStart desc",
	}
	raw, err := c.FetchPage(ctx, resourceTimeEntries, filters, 1, 1)
	if err != nil {
		return nil, fmt.Errorf("fetching latest time entry for member %d: %w", memberID, err)
	}

	records := make([]TimeEntryRecord, 0, len(raw))
	for _, r := range raw {
		var rec TimeEntryRecord
		if err := json.Unmarshal(r, &rec); err != nil {
			c.logger.Warn("skipping undecodable record",
				"resource", resourceTimeEntries, "error", err)
			continue
		}
		records = append(records, rec)
	}

	entries := normalizeAll(c, resourceTimeEntries, records, TimeEntryRecord.ToTimeEntry)
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}
