package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/source/psa"
)

func TestParseEntity(t *testing.T) {
	tests := []struct {
		in   string
		want EntityType
	}{
		{"members", EntityMembers},
		{"Boards", EntityBoards},
		{"time_entries", EntityTimeEntries},
		{"timeEntries", EntityTimeEntries},
		{" PROJECT_TICKETS ", EntityProjectTickets},
	}
	for _, tt := range tests {
		got, err := ParseEntity(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseEntity("invoices")
	assert.Error(t, err)

	_, err = ParseEntities([]string{"members", "nope"})
	assert.Error(t, err)
}

func TestMatchServiceBoard(t *testing.T) {
	candidates := []string{"Help Desk", "Managed Services"}
	tests := []struct {
		name string
		want bool
	}{
		{"Help Desk (MS)", true},
		{"help desk", true},
		{"HELP DESK (TS)", true},
		{"Help", true},
		{"Managed Services - Tier 2", true},
		{"Client Projects", false},
		{"Escalations", false},
		{"", false},
		{"(MS)", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchServiceBoard(tt.name, candidates), tt.name)
	}
	assert.False(t, MatchServiceBoard("Help Desk", nil))
}

func TestServiceBoardMatcher_IDsOverrideNames(t *testing.T) {
	boards := []model.Board{
		{ID: 10, Name: "Help Desk (MS)"},
		{ID: 30, Name: "Escalations"},
	}

	byName := serviceBoardMatcher{names: []string{"Help Desk"}}
	assert.Equal(t, []int64{10}, byName.serviceBoardIDs(boards))

	byID := serviceBoardMatcher{ids: []int64{30}, names: []string{"Help Desk"}}
	assert.Equal(t, []int64{30}, byID.serviceBoardIDs(boards))
}

func TestIsStale(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *model.LedgerEntry {
		last := now.Add(-d)
		return &model.LedgerEntry{LastSyncAt: &last}
	}

	assert.True(t, IsStale(nil, now, time.Hour), "never synced")
	assert.True(t, IsStale(&model.LedgerEntry{Status: model.LedgerFailed}, now, time.Hour), "never succeeded")
	assert.False(t, IsStale(at(time.Second), now, time.Hour))
	assert.False(t, IsStale(at(time.Hour), now, time.Hour), "exactly at threshold")
	assert.True(t, IsStale(at(time.Hour+time.Second), now, time.Hour))
}

func TestNewLedger_DefaultsThreshold(t *testing.T) {
	assert.Equal(t, model.DefaultStaleAfter, NewLedger(nil, 0).StaleAfter())
	assert.Equal(t, 5*time.Minute, NewLedger(nil, 5*time.Minute).StaleAfter())
}

func TestSelectMode(t *testing.T) {
	last := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	synced := &model.LedgerEntry{LastSyncAt: &last, Status: model.LedgerSuccess}
	failedOnly := &model.LedgerEntry{Status: model.LedgerFailed}

	tests := []struct {
		name      string
		entity    EntityType
		entry     *model.LedgerEntry
		force     bool
		wantMode  Mode
		wantSince bool
	}{
		{"first sync", EntityTickets, nil, false, ModeFull, false},
		{"never succeeded", EntityTickets, failedOnly, false, ModeFull, false},
		{"incremental", EntityTickets, synced, false, ModeIncremental, true},
		{"forced", EntityTickets, synced, true, ModeFull, false},
		{"members always full", EntityMembers, synced, false, ModeFull, false},
		{"boards always full", EntityBoards, synced, false, ModeFull, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, since := selectMode(tt.entity, tt.entry, tt.force)
			assert.Equal(t, tt.wantMode, mode)
			if tt.wantSince {
				require.NotNil(t, since)
				assert.True(t, since.Equal(last))
			} else {
				assert.Nil(t, since)
			}
		})
	}
}

func TestSelectEntities(t *testing.T) {
	assert.Equal(t, AllEntities, selectEntities(nil))
	assert.Equal(t,
		[]EntityType{EntityMembers, EntityTimeEntries},
		selectEntities([]EntityType{EntityTimeEntries, EntityMembers, EntityTimeEntries}))
}

func TestStatusChange(t *testing.T) {
	project := model.Project{ID: 7, Status: "Ready to Close"}

	t.Run("values", func(t *testing.T) {
		audit, ok := statusChange(psa.AuditRecord{
			Text:         "Status updated",
			EnteredDate:  "2024-06-01T12:30:00Z",
			EnteredBy:    "eng1",
			AuditSubType: "Status",
			OldValue:     "In Progress",
			NewValue:     "Ready to Close",
		}, project)
		require.True(t, ok)
		assert.Equal(t, int64(7), audit.ProjectID)
		assert.Equal(t, "Ready to Close", audit.Status)
		assert.Equal(t, "In Progress", audit.PreviousStatus)
		assert.Equal(t, "eng1", audit.ChangedBy)
		assert.True(t, audit.ChangedAt.Equal(time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)))
	})

	t.Run("parsed from text", func(t *testing.T) {
		audit, ok := statusChange(psa.AuditRecord{
			Text:        `Status changed from "Open" to "Closed"`,
			EnteredDate: "2024-06-01T12:30:00Z",
		}, project)
		require.True(t, ok)
		assert.Equal(t, "Closed", audit.Status)
		assert.Equal(t, "Open", audit.PreviousStatus)
	})

	t.Run("falls back to project status", func(t *testing.T) {
		audit, ok := statusChange(psa.AuditRecord{
			Text:        "Status changed",
			EnteredDate: "2024-06-01T12:30:00Z",
		}, project)
		require.True(t, ok)
		assert.Equal(t, "Ready to Close", audit.Status)
	})

	t.Run("not a status event", func(t *testing.T) {
		_, ok := statusChange(psa.AuditRecord{
			Text:        "Budget hours changed",
			EnteredDate: "2024-06-01T12:30:00Z",
			AuditType:   "Project",
		}, project)
		assert.False(t, ok)
	})

	t.Run("missing timestamp", func(t *testing.T) {
		_, ok := statusChange(psa.AuditRecord{
			Text:         "Status changed",
			AuditSubType: "Status",
		}, project)
		assert.False(t, ok)
	})
}

func TestRetainTicket(t *testing.T) {
	allowed := model.NewIdentifierSet([]string{"eng1"})
	assert.True(t, retainTicket(model.Ticket{Owner: "ENG1"}, allowed))
	assert.True(t, retainTicket(model.Ticket{Owner: "x", Resources: []string{"y", "eng1"}}, allowed))
	assert.False(t, retainTicket(model.Ticket{Owner: "x", Resources: []string{"y"}}, allowed))
	assert.False(t, retainTicket(model.Ticket{}, allowed))
}
