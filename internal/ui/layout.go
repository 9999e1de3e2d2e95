// Package ui holds the layout helpers shared by terminal views.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/engineer-metrics/internal/theme"
)

// Layout tracks the terminal size and draws the header and status bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentHeight is the height left between the header and status bar.
func (l Layout) ContentHeight() int {
	if h := l.Height - 2; h > 0 {
		return h
	}
	return 0
}

// fill pads rendered to the full width using style's background.
func (l Layout) fill(style lipgloss.Style, left, right string) string {
	leftR := style.Render(left)
	rightR := ""
	if right != "" {
		rightR = style.Render(right)
	}

	gap := l.Width - lipgloss.Width(leftR) - lipgloss.Width(rightR)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, leftR, filler, rightR)
}

// RenderHeader renders the title bar with a right-aligned summary.
func (l Layout) RenderHeader(title, summary string) string {
	return l.fill(theme.HeaderStyle, title, summary)
}

// RenderStatusBar renders the bottom bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	return l.fill(theme.StatusBarStyle, hints, "")
}

// Frame joins header, content and status bar vertically.
func (l Layout) Frame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}
