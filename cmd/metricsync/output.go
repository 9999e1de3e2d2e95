package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/nhle/engineer-metrics/internal/sync"
	"github.com/nhle/engineer-metrics/internal/theme"
	"github.com/nhle/engineer-metrics/internal/ui"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderStatus(w io.Writer, report *sync.StatusReport) {
	fmt.Fprintln(w, theme.HeaderStyle.Render("Sync status"))
	fmt.Fprintln(w, ui.StatusTable(report))
	fmt.Fprintf(w, "Overall: %s, oldest sync %s\n", ui.Freshness(report.IsStale), ui.FormatTime(report.LastSync))
}

func renderResults(w io.Writer, resp *sync.Response) {
	fmt.Fprintln(w, theme.HeaderStyle.Render("Sync run "+resp.RunID))
	fmt.Fprintln(w, ui.ResultsTable(resp))
}

func renderActivity(w io.Writer, activity []sync.MemberActivity, now time.Time) {
	fmt.Fprintln(w, ui.ActivityTable(activity, now))
}
