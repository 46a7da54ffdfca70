package entryform

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/cub-fuel-log/internal/derive"
	"github.com/nhle/cub-fuel-log/internal/logbook"
	"github.com/nhle/cub-fuel-log/internal/model"
	"github.com/nhle/cub-fuel-log/internal/theme"
)

// SubmitMsg is dispatched when the form is completed. EditID is 0 for a
// new record.
type SubmitMsg struct {
	Input  logbook.RecordInput
	EditID int64
}

// CancelMsg is dispatched when the user aborts an edit.
type CancelMsg struct{}

// Previewer forecasts the interval an unsaved entry would close.
type Previewer interface {
	Preview(in logbook.RecordInput, editingID int64) (derive.Preview, bool)
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	date     string
	odometer string
	fuel     string
	memo     string
}

func (fb *formBindings) input() logbook.RecordInput {
	return logbook.RecordInput{
		Date:     fb.date,
		Odometer: fb.odometer,
		Fuel:     fb.fuel,
		Memo:     fb.memo,
	}
}

// Model is the Bubble Tea model for the record entry form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	preview  Previewer
	editMode bool
	editID   int64
	now      func() time.Time
	width    int
	height   int
}

// New creates a new entry form model. preview may be nil.
func New(preview Previewer, width, height int) Model {
	return Model{
		fb:      &formBindings{},
		preview: preview,
		now:     time.Now,
		width:   width,
		height:  height,
	}
}

// StartCreate clears the form for a new record dated today.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.editID = 0
	m.fb.date = m.now().Format(model.DateLayout)
	m.fb.odometer = ""
	m.fb.fuel = ""
	m.fb.memo = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit pre-fills the form with an existing record.
func (m *Model) StartEdit(rec model.FuelRecord) tea.Cmd {
	in := logbook.InputFromRecord(rec)
	m.editMode = true
	m.editID = rec.ID
	m.fb.date = in.Date
	m.fb.odometer = in.Odometer
	m.fb.fuel = in.Fuel
	m.fb.memo = in.Memo
	m.form = m.buildForm()
	return m.form.Init()
}

// Resume rebuilds a completed form keeping its values, after the
// submission was rejected.
func (m *Model) Resume() tea.Cmd {
	m.form = m.buildForm()
	return m.form.Init()
}

// Editing reports whether the form is editing an existing record.
func (m Model) Editing() bool { return m.editMode }

// Input returns the current field values.
func (m Model) Input() logbook.RecordInput { return m.fb.input() }

// Update handles messages for the entry form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form next to the preview card.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Record"
	if m.editMode {
		titleText = fmt.Sprintf("Edit Record #%d", m.editID)
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	form := titleStyle.Render(titleText) + "\n" + m.form.View()
	content := lipgloss.JoinHorizontal(lipgloss.Top, form, "  ", m.renderPreview())

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// renderPreview draws the forecast card, or nothing when no forecast is
// computable yet.
func (m Model) renderPreview() string {
	if m.preview == nil {
		return ""
	}
	p, ok := m.preview.Preview(m.fb.input(), m.editID)
	if !ok {
		return ""
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render("Preview")
	row := func(label, value string) string {
		return theme.LabelStyle.Render(label) + theme.ValueStyle.Render(value)
	}
	card := lipgloss.JoinVertical(lipgloss.Left,
		title,
		row("Distance", fmt.Sprintf("%.1f km", p.Distance)),
		row("Fuel", fmt.Sprintf("%.2f L", p.Fuel)),
		theme.LabelStyle.Render("Efficiency")+
			theme.EfficiencyStyle(p.Efficiency, 40).Render(fmt.Sprintf("%.2f km/L", p.Efficiency)),
	)
	return theme.PanelStyle.Render(card)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Date").
				Placeholder("YYYY-MM-DD").
				Value(&m.fb.date).
				Validate(validateField("date", func(in *logbook.RecordInput, s string) { in.Date = s })),
			huh.NewInput().
				Title("Odometer (km)").
				Placeholder("12345").
				Value(&m.fb.odometer).
				Validate(validateField("odometer", func(in *logbook.RecordInput, s string) { in.Odometer = s })),
			huh.NewInput().
				Title("Fuel (L)").
				Placeholder("0.00").
				Value(&m.fb.fuel).
				Validate(validateField("fuel", func(in *logbook.RecordInput, s string) { in.Fuel = s })),
			huh.NewInput().
				Title("Memo").
				Placeholder("Optional").
				Value(&m.fb.memo),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// validField is a neutral input every field check starts from.
var validField = logbook.RecordInput{Date: "2000-01-01", Odometer: "0"}

// validateField checks one field in isolation and reports only its errors.
func validateField(field string, set func(*logbook.RecordInput, string)) func(string) error {
	return func(s string) error {
		in := validField
		set(&in, s)
		_, err := in.Validate()
		var verr *logbook.ValidationError
		if errors.As(err, &verr) && verr.Field == field {
			return fmt.Errorf("%s %s", field, verr.Message)
		}
		return nil
	}
}

func (m Model) handleSubmit() tea.Cmd {
	in := m.fb.input()
	id := m.editID
	return func() tea.Msg { return SubmitMsg{Input: in, EditID: id} }
}

func (m Model) formWidth() int {
	w := m.width/2 - 4
	if w < 30 {
		w = 30
	}
	if w > 60 {
		w = 60
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}
