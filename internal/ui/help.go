// internal/ui/help.go
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Help overlay content and rendering

var (
	// Help section title style
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan).
			MarginBottom(1)

	// Help section header style
	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Yellow).
				MarginTop(1)

	// Help key style (for keybindings)
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	// Help command style (for slash commands)
	helpCmdStyle = lipgloss.NewStyle().
			Foreground(Magenta)

	// Help description style
	helpDescStyle = lipgloss.NewStyle().
			Foreground(White)

	// Help dim style (for secondary info)
	helpDimStyle = lipgloss.NewStyle().
			Foreground(Dim)

	// Phase indicator styles for help
	helpStatusOK   = lipgloss.NewStyle().Foreground(Green).Bold(true)
	helpStatusWarn = lipgloss.NewStyle().Foreground(Orange).Bold(true)
	helpStatusDim  = lipgloss.NewStyle().Foreground(Dim)
	helpStatusErr  = lipgloss.NewStyle().Foreground(Red).Bold(true)
)

// HelpContent returns the formatted help overlay content
func HelpContent(width, height int) string {
	var content strings.Builder

	// Title
	title := helpTitleStyle.Render("FABLE HELP")
	content.WriteString(title)
	content.WriteString("\n\n")

	// Keybindings section
	content.WriteString(helpSectionStyle.Render("READING KEYS"))
	content.WriteString("\n\n")

	keybindings := []struct {
		key  string
		desc string
	}{
		{"1-9", "Pick one of the offered choices"},
		{"i", "Write your own choice"},
		{"r", "Regenerate the newest page with the same choice"},
		{"R", "Regenerate the newest page with a custom prompt"},
		{"Left/Right", "Previous / next page (also h and l)"},
		{"g / G", "Jump to the first / newest page"},
		{"e", "Edit the viewed page"},
		{"c", "Copy the viewed page to the clipboard"},
		{"m", "Story insight: summary, characters, key events"},
		{"x", "Export the book to markdown"},
		{"F1 / ?", "Toggle this help overlay"},
		{"Esc", "Stop generation / back out one screen"},
		{"Ctrl+C", "Quit Fable"},
	}

	for _, kb := range keybindings {
		key := helpKeyStyle.Width(14).Render(kb.key)
		desc := helpDescStyle.Render(kb.desc)
		content.WriteString("  " + key + "  " + desc + "\n")
	}

	// Slash commands section
	content.WriteString("\n")
	content.WriteString(helpSectionStyle.Render("SLASH COMMANDS"))
	content.WriteString("\n\n")

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help", "Show this help overlay"},
		{"/books", "Open the library"},
		{"/open <n|id>", "Open a book by list number or id"},
		{"/new [title]", "Start a new book"},
		{"/rename <title>", "Rename the open book"},
		{"/delete", "Delete the open book (asks first)"},
		{"/models", "Pick the generation model"},
		{"/model <id>", "Set the model directly"},
		{"/personas", "Browse chat personas"},
		{"/persona <n|name>", "Start a chat with a persona"},
		{"/chats", "Resume a saved conversation"},
		{"/prompts", "View and edit the system prompts"},
		{"/insight", "Story insight for the open book"},
		{"/commit", "Commit the story so far to the summary"},
		{"/edit", "Edit the viewed page or newest reply"},
		{"/export [format]", "Export to markdown or html"},
		{"/copy", "Copy the viewed page or newest reply"},
		{"/stop", "Stop the in-flight generation"},
		{"/quit", "Quit Fable"},
	}

	for _, cmd := range commands {
		cmdStr := helpCmdStyle.Width(22).Render(cmd.cmd)
		desc := helpDescStyle.Render(cmd.desc)
		content.WriteString("  " + cmdStr + "  " + desc + "\n")
	}

	// Generation phase indicators section
	content.WriteString("\n")
	content.WriteString(helpSectionStyle.Render("GENERATION PHASES"))
	content.WriteString("\n\n")

	indicators := []struct {
		symbol string
		style  lipgloss.Style
		desc   string
	}{
		{"●", helpStatusDim, "Idle - Nothing in flight"},
		{"●", helpStatusWarn, "Thinking - The model is reasoning, no text yet"},
		{"●", helpStatusOK, "Emitting - Page text is streaming in"},
		{"●", helpStatusOK, "Done - Page finished, choices are live"},
		{"✗", helpStatusErr, "Errored - Generation failed, partial text kept"},
	}

	for _, ind := range indicators {
		symbol := ind.style.Width(3).Render(ind.symbol)
		desc := helpDescStyle.Render(ind.desc)
		content.WriteString("  " + symbol + "  " + desc + "\n")
	}

	// Reading flow section
	content.WriteString("\n")
	content.WriteString(helpSectionStyle.Render("HOW A BOOK GROWS"))
	content.WriteString("\n\n")

	flow := []string{
		"Fable is a reader for a storybuilder server that writes",
		"choose-your-own-adventure books one page at a time.",
		"",
		"1. Open a book from the library, or start a new one",
		"2. Press Enter on an empty book to generate the opening page",
		"3. Pick a choice (1-9) or write your own (i) to turn the page",
		"4. Browse back anytime; generation continues at the newest page",
		"5. Regenerate (r/R) when a page misses the mark",
		"",
		"Pages stream in live. Esc stops a generation mid-page and",
		"keeps whatever text already arrived.",
	}

	for _, line := range flow {
		if line == "" {
			content.WriteString("\n")
		} else {
			content.WriteString("  " + helpDimStyle.Render(line) + "\n")
		}
	}

	// Footer
	content.WriteString("\n")
	footer := helpDimStyle.Render("Press F1 or Esc to close this help")
	content.WriteString(lipgloss.PlaceHorizontal(width-8, lipgloss.Center, footer))

	// Build the overlay box
	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(1, 3).
		MaxWidth(width - 10).
		MaxHeight(height - 4)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlayStyle.Render(content.String()),
	)
}

// renderHelp renders the help overlay (called from app.go)
func (m Model) renderHelp() string {
	return HelpContent(m.width, m.height)
}
