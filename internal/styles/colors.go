package styles

import "github.com/charmbracelet/lipgloss"

// Board color palette, after Trello's label colors
const (
	// Base colors
	Background = "#1D2125"
	Foreground = "#DEE4EA"

	// Accent colors
	Red    = "#F87168" // Failures
	Orange = "#FEA362" // Fallbacks, warnings
	Yellow = "#F5CD47" // Highlights
	Green  = "#4BCE97" // Migrated
	Blue   = "#579DFF" // Links, issue keys
	Purple = "#9F8FEF" // Titles

	// UI colors
	Subtle = "#8C9BAB" // Dim text, help
	Border = "#454F59" // Borders, separators
)

// Common styles
var (
	SuccessStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Green))
	ErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Red))
	WarningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Orange))
	DimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color(Subtle))
	TitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Purple))
	HighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Yellow)).Bold(true)
	KeyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color(Blue))
	SpinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Purple))
	HelpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(Subtle))

	// Summary box printed after a migration
	SummaryStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(Border)).
			Padding(0, 1)
)
