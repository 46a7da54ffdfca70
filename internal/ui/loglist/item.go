package loglist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/cub-fuel-log/internal/model"
	"github.com/nhle/cub-fuel-log/internal/theme"
)

// GoodEfficiency is the km/L figure rendered in green.
var GoodEfficiency = 40.0

// RecordItem wraps an enriched record so it can be used in a bubbles/list.
type RecordItem struct {
	Record model.EnrichedRecord
}

// FilterValue returns the string used for fuzzy filtering.
func (i RecordItem) FilterValue() string {
	return i.Record.Date + " " + i.Record.Memo
}

// Title returns the record date.
func (i RecordItem) Title() string { return i.Record.Date }

// Description returns a short summary line for the list.
func (i RecordItem) Description() string {
	return strings.Join([]string{
		efficiencyLabel(i.Record),
		distanceLabel(i.Record),
		fmt.Sprintf("%.0f km", i.Record.Odometer),
		fmt.Sprintf("%.2f L", i.Record.Fuel),
	}, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering log entries.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single log line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ri, ok := item.(RecordItem)
	if !ok {
		return
	}
	r := ri.Record

	eff := theme.EfficiencyStyle(r.Efficiency, GoodEfficiency).
		Width(12).
		Render(efficiencyLabel(r))

	dist := distanceLabel(r)
	if r.IsFirst {
		dist = theme.FirstRecordStyle.Render(dist)
	}

	memo := ""
	if r.Memo != "" {
		memo = theme.DimmedStyle.Render("  " + r.Memo)
	}

	line := fmt.Sprintf(
		"%s  %s %-12s %10.0f km %7.2f L%s",
		r.Date, eff, dist, r.Odometer, r.Fuel, memo,
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// efficiencyLabel formats km/L, or a dash when it is not computable.
func efficiencyLabel(r model.EnrichedRecord) string {
	if r.Efficiency <= 0 {
		return "- km/L"
	}
	return fmt.Sprintf("%.2f km/L", r.Efficiency)
}

// distanceLabel formats the interval distance, or "(first)".
func distanceLabel(r model.EnrichedRecord) string {
	if r.IsFirst {
		return "(first)"
	}
	return fmt.Sprintf("+%.1f km", r.Distance)
}
