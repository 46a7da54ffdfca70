package summary

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/cub-fuel-log/internal/derive"
	"github.com/nhle/cub-fuel-log/internal/theme"
)

// Summarizer aggregates one YYYY-MM month of the log.
type Summarizer interface {
	Summary(month string) derive.Summary
}

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Model is the monthly summary view.
type Model struct {
	input   textinput.Model
	source  Summarizer
	month   string
	summary derive.Summary
	width   int
	height  int
}

// New creates a summary view showing the current month.
func New(source Summarizer, now time.Time, width, height int) Model {
	month := now.Format("2006-01")

	ti := textinput.New()
	ti.Placeholder = "YYYY-MM"
	ti.Prompt = "Month: "
	ti.CharLimit = 7
	ti.SetValue(month)
	ti.Width = 10

	m := Model{
		input:  ti,
		source: source,
		month:  month,
		width:  width,
		height: height,
	}
	m.Recompute()
	return m
}

// Focus gives keyboard focus to the month input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Blur removes keyboard focus from the month input.
func (m *Model) Blur() {
	m.input.Blur()
}

// Focused reports whether the month input has keyboard focus.
func (m Model) Focused() bool {
	return m.input.Focused()
}

// Month returns the month currently summarised.
func (m Model) Month() string { return m.month }

// Summary returns the current aggregate.
func (m Model) Summary() derive.Summary { return m.summary }

// Recompute refreshes the aggregate, after the log has changed.
func (m *Model) Recompute() {
	if m.source == nil {
		m.summary = derive.Summary{Month: m.month}
		return
	}
	m.summary = m.source.Summary(m.month)
}

// Update handles messages for the summary view. The summary follows the
// input as soon as it holds a complete month.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if v := strings.TrimSpace(m.input.Value()); monthPattern.MatchString(v) && v != m.month {
		m.month = v
		m.Recompute()
	}
	return m, cmd
}

// View renders the month input and the summary card.
func (m Model) View() string {
	row := func(label, value string) string {
		return theme.LabelStyle.Width(16).Render(label) + theme.ValueStyle.Render(value)
	}

	s := m.summary
	avg := "-"
	avgStyle := theme.EfficiencyStyle(0, 1)
	if s.HasAverage {
		avg = fmt.Sprintf("%.2f km/L", s.AverageEfficiency)
		avgStyle = theme.EfficiencyStyle(s.AverageEfficiency, 40)
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render(m.month)
	card := theme.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		row("Records", fmt.Sprintf("%d", s.Records)),
		row("Distance", fmt.Sprintf("%.1f km", s.TotalDistance)),
		row("Fuel", fmt.Sprintf("%.2f L", s.TotalFuel)),
		theme.LabelStyle.Width(16).Render("Avg efficiency")+avgStyle.Render(avg),
	))

	return lipgloss.NewStyle().Padding(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, m.input.View(), "", card),
	)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
