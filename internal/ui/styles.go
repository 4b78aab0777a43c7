// internal/ui/styles.go
package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Cyan     = lipgloss.Color("#00FFFF")
	Green    = lipgloss.Color("#00FF00")
	Yellow   = lipgloss.Color("#FFD700")
	Orange   = lipgloss.Color("#FFA500")
	Red      = lipgloss.Color("#FF6B6B")
	Magenta  = lipgloss.Color("#FF00FF")
	SkyBlue  = lipgloss.Color("#87CEEB")
	Dim      = lipgloss.Color("#555555")
	White    = lipgloss.Color("#FFFFFF")
	DarkGray = lipgloss.Color("#333333")

	// Sender colors
	ReaderColor  = SkyBlue
	PersonaColor = Magenta
	SystemColor  = Yellow

	// Box styles
	ActiveBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Cyan)

	InactiveBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Dim)

	// Text styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan)

	ReaderStyle = lipgloss.NewStyle().
			Foreground(SkyBlue).
			Bold(true)

	PersonaStyle = lipgloss.NewStyle().
			Foreground(Magenta).
			Bold(true)

	SystemStyle = lipgloss.NewStyle().
			Foreground(Yellow)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(Dim)

	// Choice list styles
	ChoiceNumStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	ChoiceStyle = lipgloss.NewStyle().
			Foreground(White)

	// Annotation above a page while browsing back through the book
	AnnotationStyle = lipgloss.NewStyle().
			Foreground(Dim).
			Italic(true)

	// Status indicators
	StatusOK   = lipgloss.NewStyle().Foreground(Green).Bold(true)
	StatusWarn = lipgloss.NewStyle().Foreground(Orange).Bold(true)
	StatusCrit = lipgloss.NewStyle().Foreground(Red).Bold(true)

	// Bottom status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(DarkGray)
)

// SenderStyle returns the style for a transcript sender
func SenderStyle(sender string) lipgloss.Style {
	switch sender {
	case "user":
		return ReaderStyle
	case "system":
		return SystemStyle
	default:
		return PersonaStyle
	}
}
