package ui

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/engineer-metrics/internal/sync"
	"github.com/nhle/engineer-metrics/internal/theme"
)

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(theme.BorderStyle)
}

// FormatTime renders an optional timestamp in local time.
func FormatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// Freshness names a staleness flag.
func Freshness(stale bool) string {
	if stale {
		return "stale"
	}
	return "fresh"
}

// Outcome names the result of one entity sync.
func Outcome(r sync.EntityResult) string {
	switch {
	case r.Synced:
		return "synced"
	case r.Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// StatusTable draws the ledger, one row per entity type.
func StatusTable(report *sync.StatusReport) string {
	rows := make([][]string, 0, len(report.Entities))
	for _, e := range report.Entities {
		status := string(e.Status)
		if status == "" {
			status = "-"
		}
		rows = append(rows, []string{
			string(e.Entity),
			FormatTime(e.LastSync),
			Freshness(e.IsStale),
			strconv.Itoa(e.Count),
			status,
			e.Error,
		})
	}

	return newTable().
		Headers("ENTITY", "LAST SYNC", "FRESHNESS", "COUNT", "STATUS", "ERROR").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeaderStyle
			}
			e := report.Entities[row]
			switch col {
			case 2:
				return theme.FreshnessStyle(e.IsStale).Padding(0, 1)
			case 4:
				return theme.LedgerStatusStyle(e.Status).Padding(0, 1)
			case 5:
				return theme.ErrorStyle.Padding(0, 1)
			}
			return theme.CellStyle
		}).
		String()
}

// ResultsTable draws the outcome of a sync pass.
func ResultsTable(resp *sync.Response) string {
	rows := make([][]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		mode := string(r.Mode)
		if r.Fallback {
			mode += " (fallback)"
		}
		rows = append(rows, []string{string(r.Entity), Outcome(r), mode, strconv.Itoa(r.Count), r.Message})
	}

	return newTable().
		Headers("ENTITY", "RESULT", "MODE", "COUNT", "MESSAGE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeaderStyle
			}
			if col == 1 {
				r := resp.Results[row]
				return theme.OutcomeStyle(r.Synced, r.Skipped).Padding(0, 1)
			}
			return theme.CellStyle
		}).
		String()
}

// ActivityTable draws each member's most recent time entry.
func ActivityTable(activity []sync.MemberActivity, now time.Time) string {
	rows := make([][]string, 0, len(activity))
	for _, a := range activity {
		last, ago := "never", "-"
		if a.LastEntry != nil && a.LastEntry.TimeStart != nil {
			last = FormatTime(a.LastEntry.TimeStart)
			ago = now.Sub(*a.LastEntry.TimeStart).Round(time.Minute).String()
		}
		rows = append(rows, []string{a.Member.Identifier, a.Member.Name, last, ago})
	}

	return newTable().
		Headers("MEMBER", "NAME", "LAST ENTRY", "AGO").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeaderStyle
			}
			return theme.CellStyle
		}).
		String()
}
