package ui

import "github.com/charmbracelet/lipgloss"

var (
	brandGreen = lipgloss.Color("#3ECF8E")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(brandGreen)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))
)
