package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#01B4E4") // TMDB blue
	secondaryColor = lipgloss.Color("#F5F5F1")
	accentColor    = lipgloss.Color("#564D4D")
	favoriteColor  = lipgloss.Color("#F5C518")

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	favoriteStyle = lipgloss.NewStyle().
			Foreground(favoriteColor)

	labelStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Width(16)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)
)
