package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/cub-fuel-log/internal/logbook"
	"github.com/nhle/cub-fuel-log/internal/ui/command"
)

// logLoadedMsg is sent after the service has read the store.
type logLoadedMsg struct{ err error }

// resultKind says how the UI reacts to a finished operation.
type resultKind int

const (
	resultOther resultKind = iota
	resultAdded
	resultUpdated
)

// resultMsg carries the outcome of a service operation.
type resultMsg struct {
	kind    resultKind
	message string
	err     error
}

// loadLog reads the log from the store.
func (m Model) loadLog() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return logLoadedMsg{err: svc.Load(context.Background())}
	}
}

// addRecord stores a new record.
func (m Model) addRecord(in logbook.RecordInput) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		out, err := svc.AddRecord(context.Background(), in)
		return resultMsg{kind: resultAdded, message: out.Message, err: err}
	}
}

// updateRecord overwrites the record being edited.
func (m Model) updateRecord(id int64, in logbook.RecordInput) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		out, err := svc.UpdateRecord(context.Background(), id, in)
		return resultMsg{kind: resultUpdated, message: out.Message, err: err}
	}
}

// deleteRecord removes one record.
func (m Model) deleteRecord(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		out, err := svc.DeleteRecord(context.Background(), id)
		return resultMsg{message: out.Message, err: err}
	}
}

// handleResult refreshes the tabs and reports the outcome. A rejected
// entry keeps the form open with the user's values.
func (m Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		cmds := []tea.Cmd{m.notify(errorText(msg.err), true)}
		if msg.kind == resultAdded || msg.kind == resultUpdated {
			cmds = append(cmds, m.entryForm.Resume())
		}
		return m, tea.Batch(cmds...)
	}

	cmds := []tea.Cmd{m.refreshViews(), m.notify(msg.message, false)}
	switch msg.kind {
	case resultAdded:
		cmds = append(cmds, m.entryForm.StartCreate())
	case resultUpdated:
		m.currentView = ViewList
		m.previousView = ViewList
		cmds = append(cmds, m.entryForm.StartCreate())
	}
	return m, tea.Batch(cmds...)
}

// errorText renders an operation error for the status bar.
func errorText(err error) string {
	var verr *logbook.ValidationError
	if errors.As(err, &verr) {
		return "Invalid input: " + verr.Error()
	}
	return "Error: " + err.Error()
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(cmd command.CommandMsg) tea.Cmd {
	switch cmd.Name {
	case "import":
		if len(cmd.Args) == 0 {
			return m.notify("usage: import <file>", true)
		}
		return m.importFile(cmd.Args[0])
	case "export":
		if len(cmd.Args) == 0 {
			return m.notify("usage: export <file>", true)
		}
		return m.exportFile(cmd.Args[0])
	case "delete":
		if strings.Join(cmd.Args, " ") != "all" {
			return m.notify("usage: delete all", true)
		}
		return m.deleteAll()
	case "refresh", "reload":
		return m.refresh()
	case "quit", "q":
		return m.quit()
	default:
		return m.notify(fmt.Sprintf("unknown command %q", cmd.Name), true)
	}
}

// importFile imports a CSV file.
func (m Model) importFile(path string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return resultMsg{err: err}
		}
		defer f.Close()

		res, err := svc.ImportCSV(context.Background(), f)
		return resultMsg{message: res.Message(), err: err}
	}
}

// exportFile writes the log as CSV.
func (m Model) exportFile(path string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return resultMsg{err: err}
		}
		n, err := svc.ExportAll(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
			return resultMsg{err: err}
		}
		return resultMsg{message: fmt.Sprintf("Exported %d records to %s.", n, path)}
	}
}

// deleteAll clears the log.
func (m Model) deleteAll() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		out, err := svc.DeleteAll(context.Background())
		return resultMsg{message: out.Message, err: err}
	}
}

// refresh reloads the log and asks the monitor for an immediate check.
func (m Model) refresh() tea.Cmd {
	if m.monitor != nil {
		m.monitor.Refresh()
	}
	return m.loadLog()
}
