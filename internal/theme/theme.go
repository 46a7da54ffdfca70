package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
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

// PanelStyle wraps cards and overlays.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders secondary values such as memos.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// LabelStyle renders field labels on cards.
var LabelStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Width(12)

// ValueStyle renders figures on cards.
var ValueStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// FirstRecordStyle marks records that have no preceding interval.
var FirstRecordStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ConfirmStyle renders the delete confirmation prompt.
var ConfirmStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorOrange)

// TabStyle and ActiveTabStyle render the tab strip.
var (
	TabStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Padding(0, 2)

	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBlue).
			Underline(true).
			Padding(0, 2)
)

// EfficiencyStyle colors a km/L figure: green at or above good, yellow
// above half of it, red below. Zero means not computable.
func EfficiencyStyle(kmPerLiter, good float64) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case kmPerLiter <= 0:
		return base.Foreground(ColorGray)
	case kmPerLiter >= good:
		return base.Foreground(ColorGreen)
	case kmPerLiter >= good/2:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorRed)
	}
}

// NotificationStyle returns the status bar style for a notification.
func NotificationStyle(isError bool) lipgloss.Style {
	if isError {
		return StatusBarStyle.Foreground(ColorRed).Bold(true)
	}
	return StatusBarStyle.Foreground(ColorGreen)
}

// ConnectionStyle returns a color-coded style for an offline monitor state.
func ConnectionStyle(state string) lipgloss.Style {
	base := HeaderStyle.Bold(false)

	switch state {
	case "online":
		return base.Foreground(ColorGreen)
	case "offline":
		return base.Foreground(ColorYellow)
	case "unregistered":
		return base.Foreground(ColorRed)
	default:
		return base
	}
}
