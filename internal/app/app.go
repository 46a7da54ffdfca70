package app

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/cub-fuel-log/internal/keys"
	"github.com/nhle/cub-fuel-log/internal/logbook"
	appsync "github.com/nhle/cub-fuel-log/internal/sync"
	"github.com/nhle/cub-fuel-log/internal/ui"
	"github.com/nhle/cub-fuel-log/internal/ui/command"
	"github.com/nhle/cub-fuel-log/internal/ui/entryform"
	helpview "github.com/nhle/cub-fuel-log/internal/ui/help"
	"github.com/nhle/cub-fuel-log/internal/ui/loglist"
	"github.com/nhle/cub-fuel-log/internal/ui/summary"
)

// noticeDuration is how long a notification stays in the status bar.
const noticeDuration = 4 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInput ViewState = iota
	ViewList
	ViewSummary
	ViewHelp
	ViewCommand
)

// tabs are the views reachable from the tab strip, in order.
var tabs = []struct {
	view  ViewState
	label string
}{
	{ViewInput, "1 Input"},
	{ViewList, "2 Log"},
	{ViewSummary, "3 Summary"},
}

// ParseView maps a display.default_tab value to a view. Unknown names
// select the input tab.
func ParseView(name string) ViewState {
	switch name {
	case "list", "log":
		return ViewList
	case "summary":
		return ViewSummary
	default:
		return ViewInput
	}
}

// notice is a transient status bar message.
type notice struct {
	text    string
	isError bool
	seq     int
}

// clearNoticeMsg expires the notice with the same sequence number.
type clearNoticeMsg struct{ seq int }

// Model is the root Bubble Tea model that manages tab routing, layout,
// and access to the logbook service.
type Model struct {
	currentView  ViewState
	previousView ViewState
	frame        ui.Frame
	svc          *logbook.Service
	monitor      *appsync.Monitor
	keys         *keys.KeyMap
	entryForm    entryform.Model
	logList      loglist.Model
	summaryView  summary.Model
	helpView     helpview.Model
	commandView  command.Model
	connection   *appsync.Status
	notice       notice
	ready        bool
}

// New creates a new root application model. monitor may be nil when the
// offline shell is not configured.
func New(svc *logbook.Service, monitor *appsync.Monitor, start ViewState) Model {
	k := keys.DefaultKeyMap()
	if start > ViewSummary {
		start = ViewInput
	}

	return Model{
		currentView:  start,
		previousView: start,
		svc:          svc,
		monitor:      monitor,
		keys:         k,
		entryForm:    entryform.New(svc, 80, 24),
		logList:      loglist.New(k, 80, 24),
		summaryView:  summary.New(svc, time.Now(), 80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
	}
}

// Init loads the log, opens the entry form and starts the monitor.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.loadLog(),
		m.entryForm.StartCreate(),
	}
	if m.monitor != nil {
		cmds = append(cmds, m.monitor.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.frame = ui.NewFrame(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.frame.Width
		contentHeight := m.frame.ContentHeight()
		m.entryForm.SetSize(contentWidth, contentHeight)
		m.logList.SetSize(contentWidth, contentHeight)
		m.summaryView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to the form so huh can calculate its layout.
		var cmd tea.Cmd
		m.entryForm, cmd = m.entryForm.Update(msg)
		return m, cmd

	case logLoadedMsg:
		if msg.err != nil {
			cmd := m.notify(msg.err.Error(), true)
			return m, cmd
		}
		cmd := m.refreshViews()
		return m, cmd

	case resultMsg:
		return m.handleResult(msg)

	case clearNoticeMsg:
		if msg.seq == m.notice.seq {
			m.notice.text = ""
		}
		return m, nil

	case appsync.StatusMsg:
		status := msg.Status
		m.connection = &status
		return m, m.monitor.WaitForNextResult()

	case entryform.SubmitMsg:
		if msg.EditID != 0 {
			return m, m.updateRecord(msg.EditID, msg.Input)
		}
		return m, m.addRecord(msg.Input)

	case entryform.CancelMsg:
		cmd := m.entryForm.StartCreate()
		return m, cmd

	case loglist.EditMsg:
		m.currentView = ViewInput
		cmd := m.entryForm.StartEdit(msg.Record)
		return m, cmd

	case loglist.DeleteMsg:
		return m, m.deleteRecord(msg.ID)

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if model, cmd, handled := m.handleGlobalKey(msg); handled {
			return model, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that are not owned by the active view.
// Text inputs own every key except the ones handled here.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if key.Matches(msg, m.keys.NextTab) && m.currentView <= ViewSummary {
		return m.switchTab(tabs[(int(m.currentView)+1)%len(tabs)].view), nil, true
	}

	switch m.currentView {
	case ViewInput:
		if key.Matches(msg, m.keys.Back) {
			if m.entryForm.Editing() {
				m.currentView = ViewList
				cmd := m.entryForm.StartCreate()
				return m, cmd, true
			}
			return m.switchTab(ViewList), nil, true
		}
		return m, nil, false

	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false

	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false

	case ViewSummary:
		if m.summaryView.Focused() {
			if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Select) {
				m.summaryView.Blur()
				return m, nil, true
			}
			return m, nil, false
		}
		if key.Matches(msg, m.keys.Edit) {
			cmd := m.summaryView.Focus()
			return m, cmd, true
		}

	case ViewList:
		if m.logList.Confirming() {
			return m, nil, false
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit(), true
	case key.Matches(msg, m.keys.TabInput):
		return m.switchTab(ViewInput), nil, true
	case key.Matches(msg, m.keys.TabList):
		return m.switchTab(ViewList), nil, true
	case key.Matches(msg, m.keys.TabSummary):
		return m.switchTab(ViewSummary), nil, true
	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true
	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return m, cmd, true
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh(), true
	}
	return m, nil, false
}

// switchTab activates one of the tabbed views.
func (m Model) switchTab(v ViewState) Model {
	if m.currentView == ViewSummary && v != ViewSummary {
		m.summaryView.Blur()
	}
	m.currentView = v
	m.previousView = v
	return m
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInput:
		m.entryForm, cmd = m.entryForm.Update(msg)
	case ViewList:
		m.logList, cmd = m.logList.Update(msg)
	case ViewSummary:
		m.summaryView, cmd = m.summaryView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI inside the frame.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.frame.RenderHeader(m.logList.Len(), m.connection)
	statusBar := m.frame.RenderStatusBar(m.keyHints(), m.notice.text, m.notice.isError)

	return m.frame.Render(header, m.frame.RenderTabs(m.tabStrip()), m.renderContent(), statusBar)
}

// tabStrip marks the active tab, or the one under an open overlay.
func (m Model) tabStrip() []ui.Tab {
	active := m.currentView
	if active > ViewSummary {
		active = m.previousView
	}
	strip := make([]ui.Tab, len(tabs))
	for i, t := range tabs {
		strip[i] = ui.Tab{Label: t.label, Active: t.view == active}
	}
	return strip
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewInput:
		return m.entryForm.View()
	case ViewList:
		return m.logList.View()
	case ViewSummary:
		return m.summaryView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewInput:
		if m.entryForm.Editing() {
			return "enter next/submit | esc cancel edit | ctrl+t next tab"
		}
		return "enter next/submit | esc log | ctrl+t next tab"
	case ViewList:
		if m.logList.Confirming() {
			return "y delete | n cancel"
		}
		return "q quit | ? help | : command | e edit | d delete | r refresh | 1/2/3 tabs"
	case ViewSummary:
		if m.summaryView.Focused() {
			return "type YYYY-MM | enter/esc done"
		}
		return "q quit | ? help | e change month | r refresh | 1/2/3 tabs"
	default:
		return ""
	}
}

// notify shows a notification and schedules its removal.
func (m *Model) notify(text string, isError bool) tea.Cmd {
	seq := m.notice.seq + 1
	m.notice = notice{text: text, isError: isError, seq: seq}
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

// refreshViews pushes the service's current view into the tabs.
func (m *Model) refreshViews() tea.Cmd {
	cmd := m.logList.SetRecords(m.svc.View())
	m.summaryView.Recompute()
	return cmd
}

// quit stops the monitor and exits.
func (m Model) quit() tea.Cmd {
	if m.monitor != nil {
		m.monitor.Stop()
	}
	return tea.Quit
}
