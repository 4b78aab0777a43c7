// internal/ui/overlay.go
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"fable/internal/stream"
)

func (m Model) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case overlayHelp:
		if key.Matches(msg, m.keys.Help) || msg.String() == "esc" || msg.String() == "enter" {
			m.overlay = overlayNone
		}
		return m, nil

	case overlayError:
		switch msg.String() {
		case "esc", "enter":
			m.overlay = overlayNone
			m.errText = ""
			// A failed stream parks the phase at errored, which offers
			// no affordances. Dismissing the notice restores the retry
			// surface over whatever text survived.
			if m.phase == stream.PhaseErrored {
				if m.streamLog().Len() > 0 {
					m.phase = stream.PhaseDone
				} else {
					m.phase = stream.PhaseIdle
				}
			}
		}
		return m, nil

	case overlayInsight:
		switch msg.String() {
		case "esc", "enter", "m":
			m.overlay = overlayNone
		}
		return m, nil

	case overlayModels:
		return m.updateModelsOverlay(msg)

	case overlayConfirm:
		return m.updateConfirmOverlay(msg)

	case overlayChats:
		return m.updateChatsOverlay(msg)
	}

	m.overlay = overlayNone
	return m, nil
}

func (m Model) updateModelsOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.overlay = overlayNone
		return m, nil

	case "up", "k":
		if m.modelCursor > 0 {
			m.modelCursor--
		}
		return m, nil

	case "down", "j":
		if m.modelCursor < len(m.models)-1 {
			m.modelCursor++
		}
		return m, nil

	case "enter":
		if m.modelCursor < 0 || m.modelCursor >= len(m.models) {
			return m, nil
		}
		m.overlay = overlayNone
		return m.selectModel(m.models[m.modelCursor].ID)

	case "d":
		m.modelID = ""
		m.overlay = overlayNone
		m.notice = "model reset to server default"
		return m, nil

	case "r":
		return m, m.loadModels(true)
	}
	return m, nil
}

func (m Model) updateConfirmOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.overlay = overlayNone
		switch m.confirm.action {
		case confirmDeleteBook:
			return m, m.deleteBook(m.confirm.id)
		case confirmDeletePersona:
			return m, m.deletePersona(m.confirm.id)
		}
		return m, nil

	case "n", "N", "esc":
		m.overlay = overlayNone
		m.notice = "cancelled"
		return m, nil
	}
	return m, nil
}

func (m Model) updateChatsOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.overlay = overlayNone
		return m, nil

	case "up", "k":
		if m.chatCursor > 0 {
			m.chatCursor--
		}
		return m, nil

	case "down", "j":
		if m.chatCursor < len(m.chats)-1 {
			m.chatCursor++
		}
		return m, nil

	case "enter":
		if m.chatCursor < 0 || m.chatCursor >= len(m.chats) {
			return m, nil
		}
		return m, m.openChat(m.chats[m.chatCursor].ID)
	}
	return m, nil
}

func (m Model) renderOverlay() string {
	switch m.overlay {
	case overlayHelp:
		return m.renderHelp()
	case overlayError:
		return m.renderError()
	case overlayInsight:
		return m.renderInsight()
	case overlayModels:
		return m.renderModels()
	case overlayConfirm:
		return m.renderConfirm()
	case overlayChats:
		return m.renderChats()
	}
	return ""
}

// overlayBox centers content in a rounded border over the full screen.
func (m Model) overlayBox(content string, border lipgloss.Color) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 3).
		MaxWidth(m.width - 10).
		MaxHeight(m.height - 4)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		style.Render(content),
	)
}

func (m Model) renderError() string {
	width := m.width - 20
	if width > 70 {
		width = 70
	}
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	b.WriteString(ErrorStyle.Render("Something went wrong") + "\n\n")
	b.WriteString(wordwrap.String(m.errText, width) + "\n\n")
	b.WriteString(DimStyle.Render("Enter/Esc: Dismiss"))
	return m.overlayBox(b.String(), Red)
}

func (m Model) renderInsight() string {
	var b strings.Builder
	b.WriteString(helpTitleStyle.Render("STORY INSIGHT") + "\n")

	if m.meta == nil {
		b.WriteString(DimStyle.Render("nothing tracked yet") + "\n\n")
		b.WriteString(DimStyle.Render("m/Esc: Close"))
		return m.overlayBox(b.String(), Cyan)
	}

	b.WriteString(helpSectionStyle.Render("SUMMARY") + "\n\n")
	if m.meta.Summary == "" {
		b.WriteString(DimStyle.Render("  No summary committed yet. /commit records the story so far.") + "\n")
	} else {
		b.WriteString(wordwrap.String(m.meta.Summary, 64) + "\n")
	}

	if len(m.meta.Characters) > 0 {
		b.WriteString("\n" + helpSectionStyle.Render("CHARACTERS") + "\n\n")
		for _, c := range m.meta.Characters {
			name := c.Name
			if c.Role != "" {
				name += " (" + c.Role + ")"
			}
			b.WriteString("  " + helpKeyStyle.Render(name) + "\n")
			if c.Description != "" {
				b.WriteString("    " + DimStyle.Render(truncate.StringWithTail(c.Description, 60, "..")) + "\n")
			}
		}
	}

	if len(m.meta.KeyEvents) > 0 {
		b.WriteString("\n" + helpSectionStyle.Render("KEY EVENTS") + "\n\n")
		for _, e := range m.meta.KeyEvents {
			b.WriteString(fmt.Sprintf("  p%-3d %s\n",
				e.PageNumber+1, truncate.StringWithTail(e.Event, 60, "..")))
		}
	}

	if cur := m.view.Cursor(); cur >= 0 && cur < len(m.pagePrompts) && m.pagePrompts[cur] != "" {
		b.WriteString("\n" + helpSectionStyle.Render("PROMPT BEHIND THIS PAGE") + "\n\n")
		b.WriteString(DimStyle.Render(wordwrap.String(m.pagePrompts[cur], 60)) + "\n")
	}

	b.WriteString("\n" + DimStyle.Render("m/Esc: Close"))
	return m.overlayBox(b.String(), Cyan)
}

func (m Model) renderModels() string {
	var b strings.Builder
	b.WriteString(helpTitleStyle.Render("MODELS") + "\n")

	if len(m.models) == 0 {
		b.WriteString(DimStyle.Render("loading the catalog...") + "\n")
	}
	for i, mo := range m.models {
		cursor := "  "
		lineStyle := DimStyle
		if i == m.modelCursor {
			cursor = "> "
			lineStyle = lipgloss.NewStyle().Foreground(Cyan)
		}
		mark := " "
		if mo.ID == m.modelID {
			mark = StatusOK.Render("●")
		}
		name := mo.Name
		if name == "" {
			name = mo.ID
		}
		line := fmt.Sprintf("%-28s  %-10s  %s",
			truncate.StringWithTail(name, 28, ".."),
			mo.Provider,
			truncate.StringWithTail(mo.Description, 30, ".."))
		b.WriteString(cursor + mark + " " + lineStyle.Render(line) + "\n")
	}

	b.WriteString("\n" + DimStyle.Render("Enter: Select | d: Server default | r: Refresh catalog | Esc: Close"))
	return m.overlayBox(b.String(), Cyan)
}

func (m Model) renderConfirm() string {
	var b strings.Builder
	b.WriteString(StatusWarn.Render("Confirm") + "\n\n")
	b.WriteString(m.confirm.prompt + "\n\n")
	b.WriteString(DimStyle.Render("y: Delete | n/Esc: Cancel"))
	return m.overlayBox(b.String(), Orange)
}

func (m Model) renderChats() string {
	var b strings.Builder
	b.WriteString(helpTitleStyle.Render("SAVED CHATS") + "\n")

	if len(m.chats) == 0 {
		b.WriteString(DimStyle.Render("No conversations saved yet.") + "\n")
	}
	for i, c := range m.chats {
		cursor := "  "
		lineStyle := DimStyle
		if i == m.chatCursor {
			cursor = "> "
			lineStyle = lipgloss.NewStyle().Foreground(Cyan)
		}

		name := c.PersonaID
		for _, p := range m.personas {
			if p.ID == c.PersonaID {
				name = p.Name
				break
			}
		}
		preview := ""
		if len(c.Messages) > 0 {
			preview = truncate.StringWithTail(c.Messages[len(c.Messages)-1].Text, 40, "..")
		}
		line := fmt.Sprintf("%-20s  %3d msgs  %s",
			truncate.StringWithTail(name, 20, ".."), len(c.Messages), preview)
		b.WriteString(cursor + lineStyle.Render(line) + "\n")
	}

	b.WriteString("\n" + DimStyle.Render("Enter: Resume | Esc: Close"))
	return m.overlayBox(b.String(), Cyan)
}
