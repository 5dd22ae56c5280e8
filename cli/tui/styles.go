// Package tui provides the Bubble Tea dashboard for the scrutin CLI.
//
// The dashboard is read-only: it renders whatever the store holds and
// never mutates result state itself. Submissions go through the submit
// commands, not the TUI.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	primaryColor = lipgloss.Color("#2563EB") // Blue
	successColor = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
)

// Styles for TUI components.
var (
	// TitleStyle for the dashboard header.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// LabelStyle for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(14)

	// ValueStyle for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// ConnectedStyle for the open connection state.
	ConnectedStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// ReconnectingStyle for the connecting state.
	ReconnectingStyle = lipgloss.NewStyle().
				Foreground(warningColor)

	// DisconnectedStyle for the closing and closed states.
	DisconnectedStyle = lipgloss.NewStyle().
				Foreground(errorColor)

	// ErrorStyle for slice fetch errors.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// BoxStyle for the results table container.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	// HeaderRowStyle for the results table header.
	HeaderRowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(mutedColor)

	// FooterStyle for the metrics and help footer.
	FooterStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)

// StateStyle returns the style for a connection state string.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case "open":
		return ConnectedStyle
	case "connecting":
		return ReconnectingStyle
	case "closing", "closed":
		return DisconnectedStyle
	default:
		return ValueStyle
	}
}
