// internal/ui/welcome.go
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) updateWelcome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Help) {
		m.overlay = overlayHelp
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.welCursor > 0 {
			m.welCursor--
		}
		return m, nil

	case "down", "j":
		if m.welCursor < len(m.recents)-1 {
			m.welCursor++
		}
		return m, nil

	case "enter":
		if m.welCursor < 0 || m.welCursor >= len(m.recents) {
			return m, nil
		}
		r := m.recents[m.welCursor]
		if r.Mode == "chat" {
			return m, tea.Batch(m.openChat(r.ID), m.loadPersonas())
		}
		return m, m.openBook(r.ID, r.LastPage)

	case "l":
		m.mode = modeLibrary
		m.libInput = libInputNone
		return m, m.loadBooks()

	case "p":
		m.mode = modePersonas
		m.personaView = personaList
		return m, m.loadPersonas()

	case "c":
		return m, m.loadChats()

	case "P":
		m.mode = modePrompts
		m.promptMode = "story"
		return m, m.loadPrompt("story")

	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) renderWelcome() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(TitleStyle.Render("FABLE"))
	b.WriteString("  " + DimStyle.Render("a storybuilder reader") + "\n\n")

	if len(m.recents) == 0 {
		b.WriteString(DimStyle.Render("Nothing opened yet. Visit the library to start a book.") + "\n")
	} else {
		b.WriteString(SystemStyle.Render("Recently opened") + "\n\n")
		for i, r := range m.recents {
			title := r.Title
			if len(title) > 38 {
				title = title[:38] + ".."
			}

			pos := ""
			if r.Mode == "story" && r.LastPage >= 0 {
				pos = fmt.Sprintf("page %d", r.LastPage+1)
			}

			timeStr := r.LastOpened.Format("2006-01-02 15:04")
			if time.Since(r.LastOpened) < 24*time.Hour {
				timeStr = r.LastOpened.Format("Today 15:04")
			}

			cursor := "  "
			lineStyle := DimStyle
			if i == m.welCursor {
				cursor = "> "
				lineStyle = lipgloss.NewStyle().Foreground(Cyan)
			}

			line := fmt.Sprintf("%-40s  %-6s  %-8s  %s", title, r.Mode, pos, timeStr)
			b.WriteString(cursor + lineStyle.Render(line) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(DimStyle.Render("Enter: Open | l: Library | p: Personas | c: Chats | P: Prompts | ?: Help | q: Quit"))
	return b.String()
}
