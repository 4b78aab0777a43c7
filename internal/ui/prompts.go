// internal/ui/prompts.go
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
)

func (m Model) updatePrompts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Help):
		m.overlay = overlayHelp
		return m, nil

	case key.Matches(msg, m.keys.Back):
		m.mode = modeWelcome
		return m, m.loadRecents()
	}

	switch msg.String() {
	case "s":
		return m.showPrompt("story")

	case "c":
		return m.showPrompt("chat")

	case "tab":
		next := "chat"
		if m.promptMode == "chat" {
			next = "story"
		}
		return m.showPrompt(next)

	case "r":
		delete(m.promptContent, m.promptMode)
		return m, m.loadPrompt(m.promptMode)

	case "e":
		content, ok := m.promptContent[m.promptMode]
		if !ok {
			m.notice = "still loading"
			return m, nil
		}
		m.edit = editTarget{kind: editPrompt, promptMode: m.promptMode}
		m.editReturn = modePrompts
		m.editor.SetValue(content)
		m.mode = modeEditing
		return m, m.editor.Focus()
	}
	return m, nil
}

func (m Model) showPrompt(mode string) (tea.Model, tea.Cmd) {
	m.promptMode = mode
	if _, ok := m.promptContent[mode]; !ok {
		return m, m.loadPrompt(mode)
	}
	return m, nil
}

func (m Model) renderPrompts() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("System prompts") + "\n\n")

	if m.promptMode == "story" {
		b.WriteString(SystemStyle.Render("[story]") + DimStyle.Render("  chat ") + "\n\n")
	} else {
		b.WriteString(DimStyle.Render(" story  ") + SystemStyle.Render("[chat]") + "\n\n")
	}

	content, ok := m.promptContent[m.promptMode]
	switch {
	case !ok:
		b.WriteString(DimStyle.Render("loading...") + "\n")
	case content == "":
		b.WriteString(DimStyle.Render("Empty: the server uses its built-in default for this mode.") + "\n")
	default:
		text := wordwrap.String(content, m.width-4)
		lines := strings.Split(text, "\n")
		if max := m.height - 10; max > 3 && len(lines) > max {
			lines = append(lines[:max], DimStyle.Render("... (e opens the full prompt)"))
		}
		b.WriteString(strings.Join(lines, "\n") + "\n")
	}

	b.WriteString("\n" + DimStyle.Render("s/c or Tab: Mode | e: Edit | r: Reload | Esc: Back"))
	return b.String()
}
