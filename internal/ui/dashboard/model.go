// Package dashboard is the terminal view behind "metricsync watch": a live
// ledger table with keys to trigger sync passes.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/engineer-metrics/internal/keys"
	"github.com/nhle/engineer-metrics/internal/sync"
	"github.com/nhle/engineer-metrics/internal/theme"
	"github.com/nhle/engineer-metrics/internal/ui"
)

// Syncer is the part of the orchestrator the dashboard drives.
type Syncer interface {
	Run(ctx context.Context, req sync.Request) (*sync.Response, error)
	Status(ctx context.Context) (*sync.StatusReport, error)
}

type statusMsg struct {
	report *sync.StatusReport
	err    error
}

type syncDoneMsg struct {
	resp *sync.Response
	err  error
}

type tickMsg time.Time

// Model is the root Bubble Tea model of the dashboard.
type Model struct {
	ctx     context.Context
	syncer  Syncer
	keys    *keys.KeyMap
	help    help.Model
	spinner spinner.Model
	layout  ui.Layout
	refresh time.Duration

	report   *sync.StatusReport
	lastRun  *sync.Response
	err      error
	syncing  bool
	showHelp bool
}

// New creates a dashboard that reloads the ledger every refresh interval.
func New(ctx context.Context, syncer Syncer, refresh time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorYellow)

	return Model{
		ctx:     ctx,
		syncer:  syncer,
		keys:    keys.DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		layout:  ui.NewLayout(80, 24),
		refresh: refresh,
	}
}

// Init loads the ledger and starts the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadStatus(), m.tick())
}

func (m Model) loadStatus() tea.Cmd {
	return func() tea.Msg {
		report, err := m.syncer.Status(m.ctx)
		return statusMsg{report: report, err: err}
	}
}

func (m Model) runSync(force bool) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.syncer.Run(m.ctx, sync.Request{Force: force})
		return syncDoneMsg{resp: resp, err: err}
	}
}

func (m Model) tick() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case statusMsg:
		m.err = msg.err
		if msg.err == nil {
			m.report = msg.report
		}
		return m, nil

	case syncDoneMsg:
		m.syncing = false
		m.err = msg.err
		if msg.err == nil {
			m.lastRun = msg.resp
		}
		return m, m.loadStatus()

	case tickMsg:
		return m, tea.Batch(m.loadStatus(), m.tick())

	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadStatus()
	case key.Matches(msg, m.keys.Sync), key.Matches(msg, m.keys.ForceSync):
		if m.syncing {
			return m, nil
		}
		m.syncing = true
		m.err = nil
		force := key.Matches(msg, m.keys.ForceSync)
		return m, tea.Batch(m.runSync(force), m.spinner.Tick)
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	header := m.layout.RenderHeader("metricsync", m.summary())

	var body []string
	if m.report != nil {
		body = append(body, ui.StatusTable(m.report))
	} else {
		body = append(body, theme.HelpStyle.Render("Loading ledger..."))
	}
	if m.syncing {
		body = append(body, m.spinner.View()+" syncing...")
	}
	if m.lastRun != nil {
		body = append(body, theme.HelpStyle.Render("Last run "+m.lastRun.RunID), ui.ResultsTable(m.lastRun))
	}
	if m.err != nil {
		msg := m.err.Error()
		if errors.Is(m.err, sync.ErrSyncInProgress) {
			msg = "a sync pass is already running"
		}
		body = append(body, theme.ErrorStyle.Render(msg))
	}
	if m.showHelp {
		body = append(body, m.help.FullHelpView(m.keys.FullHelp()))
	}

	content := lipgloss.NewStyle().
		Height(m.layout.ContentHeight()).
		Render(lipgloss.JoinVertical(lipgloss.Left, body...))
	return m.layout.Frame(header, content, m.layout.RenderStatusBar(m.help.ShortHelpView(m.keys.ShortHelp())))
}

// summary is the right side of the header.
func (m Model) summary() string {
	if m.report == nil {
		return ""
	}
	stale := 0
	for _, e := range m.report.Entities {
		if e.IsStale {
			stale++
		}
	}
	if stale == 0 {
		return "all fresh"
	}
	return fmt.Sprintf("%d stale", stale)
}
