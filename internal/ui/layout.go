package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	appsync "github.com/nhle/cub-fuel-log/internal/sync"
	"github.com/nhle/cub-fuel-log/internal/theme"
)

// Title is shown at the left of the header.
const Title = "Cub Fuel Log"

// Frame sizes the fuel log screen: a header, a tab strip, the active tab
// and a one-line status bar.
type Frame struct {
	Width  int
	Height int
}

// Tab is one entry of the tab strip.
type Tab struct {
	Label  string
	Active bool
}

// NewFrame creates a Frame for the given terminal size.
func NewFrame(width, height int) Frame {
	return Frame{Width: width, Height: height}
}

// ContentHeight is the height left for the active tab.
func (f Frame) ContentHeight() int {
	h := f.Height - 3
	if h < 0 {
		return 0
	}
	return h
}

// HeaderStatus describes the log size and, when the offline shell is
// monitored, its connectivity and last successful refresh.
func HeaderStatus(records int, conn *appsync.Status) string {
	status := fmt.Sprintf("%d records", records)
	if conn == nil {
		return status
	}

	state := conn.State.String()
	shell := "shell " + state
	if !conn.LastRefresh.IsZero() && conn.State != appsync.StateOnline {
		shell += conn.LastRefresh.Format(" (since 15:04)")
	}
	return status + " | " + theme.ConnectionStyle(state).Render(shell)
}

// RenderHeader renders the title bar with the header status at the right.
func (f Frame) RenderHeader(records int, conn *appsync.Status) string {
	title := theme.HeaderStyle.Render(Title)
	status := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(HeaderStatus(records, conn))

	return lipgloss.JoinHorizontal(lipgloss.Top, title, f.fill(theme.HeaderStyle, title, status), status)
}

// RenderTabs renders the tab strip.
func (f Frame) RenderTabs(tabs []Tab) string {
	parts := make([]string, len(tabs))
	for i, t := range tabs {
		if t.Active {
			parts[i] = theme.ActiveTabStyle.Render(t.Label)
		} else {
			parts[i] = theme.TabStyle.Render(t.Label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// RenderStatusBar renders a notification when one is showing, otherwise the
// key hints.
func (f Frame) RenderStatusBar(hints, notice string, isError bool) string {
	if notice != "" {
		return theme.NotificationStyle(isError).Width(f.Width).Render(notice)
	}
	hint := theme.StatusBarStyle.Render(hints)
	return lipgloss.JoinHorizontal(lipgloss.Top, hint, f.fill(theme.StatusBarStyle, hint))
}

// Render stacks the header, tab strip, content and status bar.
func (f Frame) Render(header, tabs, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, statusBar)
}

// fill pads a bar out to the full width in the bar's background.
func (f Frame) fill(style lipgloss.Style, rendered ...string) string {
	gap := f.Width
	for _, r := range rendered {
		gap -= lipgloss.Width(r)
	}
	if gap < 0 {
		gap = 0
	}
	return lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
}
