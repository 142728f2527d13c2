package cli

import "github.com/charmbracelet/lipgloss"

const (
	colorPrimary = "#7D56F4"
	colorSuccess = "#04B575"
	colorError   = "#FF0000"
	colorInfo    = "#626262"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary))

	headingStyle = lipgloss.NewStyle().
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorSuccess))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorInfo))
)
