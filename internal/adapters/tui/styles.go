package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorInk     = lipgloss.Color("#101F38")
	colorAccent  = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#9aa3ad")
	colorCursor  = lipgloss.Color("#2196F3")
	colorSelect  = lipgloss.Color("#FFC107")
	colorInvalid = lipgloss.Color("#e53935")
)

// Styles holds the styled components of the board screen.
type Styles struct {
	Title   lipgloss.Style
	Stats   lipgloss.Style
	Board   lipgloss.Style
	Message lipgloss.Style
	Error   lipgloss.Style

	// cells
	Active   lipgloss.Style
	Matched  lipgloss.Style
	Empty    lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Hint     lipgloss.Style
	Invalid  lipgloss.Style
}

func DefaultStyles() Styles {
	cell := lipgloss.NewStyle().Width(3).Align(lipgloss.Center)
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Stats:   lipgloss.NewStyle().Foreground(colorMuted),
		Board:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(0, 1),
		Message: lipgloss.NewStyle().Italic(true),
		Error:   lipgloss.NewStyle().Foreground(colorInvalid),

		Active:   cell.Bold(true),
		Matched:  cell.Foreground(colorMuted).Faint(true),
		Empty:    cell,
		Cursor:   cell.Bold(true).Reverse(true).Foreground(colorCursor),
		Selected: cell.Bold(true).Background(colorSelect).Foreground(colorInk),
		Hint:     cell.Bold(true).Background(colorAccent).Foreground(colorInk),
		Invalid:  cell.Bold(true).Background(colorInvalid).Foreground(lipgloss.Color("#ffffff")),
	}
}
