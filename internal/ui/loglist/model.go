package loglist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/cub-fuel-log/internal/keys"
	"github.com/nhle/cub-fuel-log/internal/model"
	"github.com/nhle/cub-fuel-log/internal/theme"
)

// EditMsg is sent when the user asks to edit the selected record.
type EditMsg struct {
	Record model.FuelRecord
}

// DeleteMsg is sent once the user confirms deleting a record.
type DeleteMsg struct {
	ID int64
}

// Model is the log list view component. Records are shown newest first.
type Model struct {
	list       list.Model
	keys       *keys.KeyMap
	confirming bool
	pending    model.EnrichedRecord
	width      int
	height     int
}

// New creates a new log list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Fuel Log"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetRecords replaces the list contents with the derived log, which is
// given in ascending order.
func (m *Model) SetRecords(view []model.EnrichedRecord) tea.Cmd {
	items := make([]list.Item, len(view))
	for i, r := range view {
		items[len(view)-1-i] = RecordItem{Record: r}
	}
	return m.list.SetItems(items)
}

// Len returns the number of records shown.
func (m Model) Len() int { return len(m.list.Items()) }

// Confirming reports whether a delete confirmation is pending.
func (m Model) Confirming() bool { return m.confirming }

// Selected returns the highlighted record.
func (m Model) Selected() (model.EnrichedRecord, bool) {
	item, ok := m.list.SelectedItem().(RecordItem)
	if !ok {
		return model.EnrichedRecord{}, false
	}
	return item.Record, true
}

// Update handles messages for the log list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.confirming {
			return m.handleConfirmKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleConfirmKeys processes y/n while a delete is pending.
func (m Model) handleConfirmKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirming = false
		id := m.pending.ID
		return m, func() tea.Msg { return DeleteMsg{ID: id} }
	case key.Matches(msg, m.keys.Cancel):
		m.confirming = false
	}
	return m, nil
}

// handleNormalKeys processes key input when no confirmation is pending.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Edit), key.Matches(msg, m.keys.Select):
		rec, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return EditMsg{Record: rec.FuelRecord} }

	case key.Matches(msg, m.keys.Delete):
		rec, ok := m.Selected()
		if !ok {
			return m, nil
		}
		m.confirming = true
		m.pending = rec
		return m, nil
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the log list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	if m.confirming {
		prompt := theme.ConfirmStyle.Padding(0, 1).Render(fmt.Sprintf(
			"Delete record %s (%.0f km)? y/n", m.pending.Date, m.pending.Odometer))
		return lipgloss.JoinVertical(lipgloss.Left, prompt, m.list.View())
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when the log is empty.
func (m Model) renderEmptyState() string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render("No records yet.\n\n" +
			"Press 1 to add one, or : then 'import <file>'.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
