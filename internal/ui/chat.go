// internal/ui/chat.go
package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"fable/internal/api"
	"fable/internal/commands"
	"fable/internal/stream"
)

// startChat begins a fresh conversation with p. The conversation id is
// adopted from the server's done event after the first turn.
func (m Model) startChat(p api.Persona) (tea.Model, tea.Cmd) {
	m.stopActiveStream()

	persona := p
	m.persona = &persona
	m.conv = nil
	m.chatLog.Load(nil)
	m.chatSenders = nil
	m.phase = stream.PhaseIdle
	m.tokens = 0
	m.streamChat = true
	m.streamRegen = false
	m.overlay = overlayNone
	m.mode = modeChatting
	m.input.Reset()
	m.input.Placeholder = "Say something to " + p.Name
	m.refreshChatView()
	return m, m.input.Focus()
}

// enterChat resumes a stored conversation.
func (m Model) enterChat(conv *api.Conversation) (tea.Model, tea.Cmd) {
	m.stopActiveStream()

	m.persona = nil
	for i := range m.personas {
		if m.personas[i].ID == conv.PersonaID {
			p := m.personas[i]
			m.persona = &p
			break
		}
	}
	if m.persona == nil {
		// Resumed from recents before the persona list has loaded.
		m.persona = &api.Persona{ID: conv.PersonaID, Name: "Persona"}
	}

	m.conv = conv
	texts := make([]string, len(conv.Messages))
	senders := make([]string, len(conv.Messages))
	for i, msg := range conv.Messages {
		texts[i] = msg.Text
		senders[i] = msg.Sender
	}
	m.chatLog.Load(texts)
	m.chatSenders = senders

	m.phase = stream.PhaseIdle
	m.tokens = 0
	m.streamChat = true
	m.streamRegen = false
	m.overlay = overlayNone
	m.mode = modeChatting
	m.input.Reset()
	m.input.Placeholder = "Say something to " + m.persona.Name
	m.refreshChatView()
	m.chatView.GotoBottom()
	return m, tea.Batch(m.input.Focus(), m.touchRecent(conv.ID, m.persona.Name, "chat"))
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		if m.phase.Active() {
			m.stopActiveStream()
			m.refreshChatView()
			return m, nil
		}
		m.mode = modePersonas
		m.personaView = personaList
		return m, m.loadPersonas()

	case tea.KeyEnter:
		if m.phase.Active() {
			m.notice = "wait for the reply to finish"
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if text == "" {
			return m, nil
		}
		if c := commands.Parse(text); c != nil {
			return m.dispatchCommand(c)
		}
		return m.sendChatMessage(text)
	}

	switch msg.String() {
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// sendChatMessage appends the user's turn locally and opens the reply
// stream. The user entry is complete at append; only the reply streams.
func (m Model) sendChatMessage(text string) (tea.Model, tea.Cmd) {
	if m.persona == nil {
		return m, nil
	}
	m.stopActiveStream()
	m.chatLog.Append(text)
	m.chatSenders = append(m.chatSenders, "user")
	m.streamChat = true
	m.streamRegen = false
	m.phase = stream.PhaseThinking
	m.refreshChatView()
	m.chatView.GotoBottom()
	return m, tea.Batch(m.openChatStream(text), m.spin.Tick)
}

// beginChatEdit opens the newest persona reply in the editor. Only
// saved conversations can be edited; an unsaved first turn has nothing
// on the server to write back to.
func (m Model) beginChatEdit() (tea.Model, tea.Cmd) {
	if m.phase.Active() {
		m.notice = "wait for the reply to finish"
		return m, nil
	}
	if m.conv == nil {
		m.notice = "nothing saved to edit yet"
		return m, nil
	}
	idx := -1
	for i := m.chatLog.LastIndex(); i >= 0; i-- {
		if i < len(m.chatSenders) && m.chatSenders[i] != "user" {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.notice = "no reply to edit"
		return m, nil
	}
	entry, _ := m.chatLog.Entry(idx)
	m.edit = editTarget{kind: editChatMessage, index: idx}
	m.editReturn = modeChatting
	m.editor.SetValue(entry.Text)
	m.mode = modeEditing
	return m, m.editor.Focus()
}

func (m Model) senderLabel(sender string) string {
	switch sender {
	case "user":
		return "You"
	case "", "persona":
		if m.persona != nil {
			return m.persona.Name
		}
		return "Persona"
	}
	return sender
}

// refreshChatView re-renders the whole transcript.
func (m *Model) refreshChatView() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for i := 0; i < m.chatLog.Len(); i++ {
		entry, _ := m.chatLog.Entry(i)
		sender := ""
		if i < len(m.chatSenders) {
			sender = m.chatSenders[i]
		}
		b.WriteString(SenderStyle(sender).Render("["+m.senderLabel(sender)+"]") + "\n")
		text := entry.Text
		if entry.Pending && text == "" {
			text = "..."
		}
		b.WriteString(wordwrap.String(text, m.chatView.Width) + "\n\n")
	}
	m.chatView.SetContent(b.String())
}

func (m Model) renderChat() string {
	if m.persona == nil {
		return DimStyle.Render("no persona selected")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Chat with "+m.persona.Name) + "\n\n")
	b.WriteString(m.chatView.View() + "\n")
	if m.phase.Active() {
		b.WriteString(m.spin.View() + " " + DimStyle.Render(m.phase.String()+"...") + "\n")
	}
	b.WriteString(m.input.View() + "\n")

	hints := "Enter: Send | /edit: Fix last reply | /chats: Saved chats | Esc: Personas"
	if m.phase.Active() {
		hints = "Esc: Stop"
	}
	b.WriteString(DimStyle.Render(hints))
	return b.String()
}
