// Package theme holds the terminal styles of the CLI.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/engineer-metrics/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for section titles.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// TableHeaderStyle styles table column headers.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue).
	Padding(0, 1)

// CellStyle is the base style of table cells.
var CellStyle = lipgloss.NewStyle().Padding(0, 1)

// BorderStyle colors table borders.
var BorderStyle = lipgloss.NewStyle().Foreground(ColorBorder)

// HelpStyle is used for hints and secondary text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ErrorStyle highlights error messages.
var ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed)

// LedgerStatusStyle returns a color-coded style for a ledger status.
func LedgerStatusStyle(status model.LedgerStatus) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch status {
	case model.LedgerSuccess:
		return base.Foreground(ColorGreen)
	case model.LedgerInProgress:
		return base.Foreground(ColorYellow)
	case model.LedgerFailed:
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// FreshnessStyle colors stale entities orange and fresh ones green.
func FreshnessStyle(stale bool) lipgloss.Style {
	if stale {
		return lipgloss.NewStyle().Foreground(ColorOrange)
	}
	return lipgloss.NewStyle().Foreground(ColorGreen)
}

// OutcomeStyle colors a sync result: synced, skipped or failed.
func OutcomeStyle(synced, skipped bool) lipgloss.Style {
	switch {
	case synced:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case skipped:
		return lipgloss.NewStyle().Foreground(ColorGray)
	default:
		return lipgloss.NewStyle().Foreground(ColorRed)
	}
}
