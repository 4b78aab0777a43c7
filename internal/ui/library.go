// internal/ui/library.go
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fable/internal/commands"
)

func (m Model) updateLibrary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.libInput != libInputNone {
		return m.updateLibraryInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.overlay = overlayHelp
		return m, nil

	case key.Matches(msg, m.keys.Back):
		m.mode = modeWelcome
		return m, m.loadRecents()
	}

	switch msg.String() {
	case "up", "k":
		if m.libCursor > 0 {
			m.libCursor--
		}
		return m, nil

	case "down", "j":
		if m.libCursor < len(m.books)-1 {
			m.libCursor++
		}
		return m, nil

	case "enter":
		if m.libCursor < 0 || m.libCursor >= len(m.books) {
			return m, nil
		}
		return m, m.openBook(m.books[m.libCursor].ID, -1)

	case "n":
		m.libInput = libInputNewTitle
		m.input.Reset()
		m.input.Placeholder = "title for the new book"
		return m, m.input.Focus()

	case "r":
		if m.libCursor < 0 || m.libCursor >= len(m.books) {
			return m, nil
		}
		m.libInput = libInputRename
		m.input.Placeholder = ""
		m.input.SetValue(m.books[m.libCursor].Title)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case "t":
		if m.libCursor < 0 || m.libCursor >= len(m.books) {
			return m, nil
		}
		m.libInput = libInputTags
		m.input.Placeholder = "comma-separated tags"
		m.input.SetValue(strings.Join(m.books[m.libCursor].Tags, ", "))
		m.input.CursorEnd()
		return m, m.input.Focus()

	case "d":
		if m.libCursor < 0 || m.libCursor >= len(m.books) {
			return m, nil
		}
		b := m.books[m.libCursor]
		m.confirm = confirmState{
			prompt: fmt.Sprintf("Delete %q and all its pages?", b.Title),
			action: confirmDeleteBook,
			id:     b.ID,
		}
		m.overlay = overlayConfirm
		return m, nil

	case "/":
		m.libInput = libInputCommand
		m.input.Placeholder = ""
		m.input.SetValue("/")
		m.input.CursorEnd()
		return m, m.input.Focus()
	}
	return m, nil
}

func (m Model) updateLibraryInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.libInput = libInputNone
		m.input.Reset()
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		kind := m.libInput
		m.libInput = libInputNone
		m.input.Reset()
		m.input.Blur()

		switch kind {
		case libInputNewTitle:
			if text == "" {
				return m, nil
			}
			return m, m.createBook(text)

		case libInputRename:
			if text == "" || m.libCursor < 0 || m.libCursor >= len(m.books) {
				return m, nil
			}
			return m, m.renameBook(m.books[m.libCursor].ID, text)

		case libInputTags:
			if m.libCursor < 0 || m.libCursor >= len(m.books) {
				return m, nil
			}
			// An empty submission clears the tags.
			var tags []string
			for _, t := range strings.Split(text, ",") {
				if t = strings.TrimSpace(t); t != "" {
					tags = append(tags, t)
				}
			}
			return m, m.saveTags(m.books[m.libCursor].ID, tags)

		case libInputCommand:
			if c := commands.Parse(text); c != nil {
				return m.dispatchCommand(c)
			}
			m.notice = "commands start with /"
			return m, nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// bookTime formats the backend's bare ISO timestamp for table display.
func bookTime(iso string) string {
	if i := strings.IndexByte(iso, '.'); i > 0 {
		iso = iso[:i]
	}
	t, err := time.Parse("2006-01-02T15:04:05", iso)
	if err != nil {
		return iso
	}
	if time.Since(t) < 24*time.Hour {
		return t.Format("Today 15:04")
	}
	return t.Format("2006-01-02 15:04")
}

func (m Model) renderLibrary() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Library") + "\n\n")

	if len(m.books) == 0 {
		b.WriteString(DimStyle.Render("No books yet. Press n to start one.") + "\n")
	} else {
		header := fmt.Sprintf("   %-36s  %5s  %-16s  %s", "Title", "Pages", "Updated", "Tags")
		b.WriteString(DimStyle.Render(header) + "\n")
		b.WriteString(DimStyle.Render(strings.Repeat("-", 75)) + "\n")

		for i, book := range m.books {
			title := book.Title
			if len(title) > 34 {
				title = title[:34] + ".."
			}
			tags := strings.Join(book.Tags, ", ")
			if len(tags) > 20 {
				tags = tags[:20] + ".."
			}

			cursor := "  "
			lineStyle := DimStyle
			if i == m.libCursor {
				cursor = "> "
				lineStyle = lipgloss.NewStyle().Foreground(Cyan)
			}

			line := fmt.Sprintf("%-36s  %5d  %-16s  %s",
				title, book.NumPages, bookTime(book.UpdatedAt), tags)
			b.WriteString(cursor + lineStyle.Render(line) + "\n")
		}
	}

	if m.libInput != libInputNone {
		b.WriteString("\n" + m.input.View() + "\n")
	}

	b.WriteString("\n" + DimStyle.Render("Enter: Read | n: New | r: Rename | t: Tags | d: Delete | /: Command | Esc: Back"))
	return b.String()
}
