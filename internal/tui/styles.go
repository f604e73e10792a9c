package tui

import "github.com/charmbracelet/lipgloss"

var (
	focusColor = lipgloss.Color("205")
	breakColor = lipgloss.Color("42")
	mutedColor = lipgloss.Color("240")

	docStyle = lipgloss.NewStyle().Padding(1, 2)

	phaseStyle = lipgloss.NewStyle().
			Foreground(focusColor).
			Bold(true).
			Padding(0, 1)

	taskNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true).
			Padding(1, 0).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Width(40).
			Align(lipgloss.Center)

	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true).
			Padding(1, 0)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	miniStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)
)

func phaseColor(breakPhase bool) lipgloss.Color {
	if breakPhase {
		return breakColor
	}
	return focusColor
}
