package tui

import "github.com/charmbracelet/lipgloss"

var (
	typedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#73F59F"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cursorStyle  = pendingStyle.Underline(true)
	flashStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Underline(true)

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	statStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#73D0FF")).Bold(true)
	toastStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(0, 1)

	trackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#3A3A3A")).
			Padding(0, 1)
)
