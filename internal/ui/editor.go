// internal/ui/editor.go
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// updateEditor drives the full-screen textarea. Saving keeps the editor
// open until the server accepts; the saved message switches back.
func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = m.editReturn
		m.editor.Blur()
		return m, nil

	case "ctrl+s":
		text := m.editor.Value()
		switch m.edit.kind {
		case editPage:
			if m.book == nil {
				m.mode = m.editReturn
				m.editor.Blur()
				return m, nil
			}
			if strings.TrimSpace(text) == "" {
				m.notice = "page text cannot be empty"
				return m, nil
			}
			return m, m.savePage(m.book.ID, m.edit.index, text)

		case editChatMessage:
			if m.conv == nil {
				m.mode = m.editReturn
				m.editor.Blur()
				return m, nil
			}
			if strings.TrimSpace(text) == "" {
				m.notice = "message cannot be empty"
				return m, nil
			}
			return m, m.saveChatMessage(m.conv.ID, m.edit.index, text)

		case editPrompt:
			// An empty prompt is valid: it resets the server default.
			return m, m.savePrompt(m.edit.promptMode, text)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) renderEditor() string {
	title := "Edit"
	switch m.edit.kind {
	case editPage:
		title = fmt.Sprintf("Edit page %d", m.edit.index+1)
	case editChatMessage:
		title = "Edit reply"
	case editPrompt:
		title = "Edit " + m.edit.promptMode + " prompt"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(title) + "\n\n")
	b.WriteString(m.editor.View() + "\n\n")
	b.WriteString(DimStyle.Render("Ctrl+S: Save | Esc: Discard"))
	return b.String()
}
