// internal/ui/streaming.go
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"fable/internal/api"
	"fable/internal/story"
	"fable/internal/stream"
)

// streamLog returns the transcript the live stream writes into.
func (m Model) streamLog() *story.PageLog {
	if m.streamChat {
		return m.chatLog
	}
	return m.log
}

// stopActiveStream stops the live session, if any, and settles its
// pending entry. Must run synchronously before any context switch or
// new open, so a raced pump message can never leave an entry pending.
func (m *Model) stopActiveStream() {
	if m.session != nil {
		m.session.Stop()
		m.session = nil
	}
	if m.phase.Active() {
		m.streamLog().Finalize(m.streamEntry)
		m.phase = stream.PhaseIdle
	}
}

// refreshStreamViews redraws whichever transcript the stream feeds and
// keeps its tail in view.
func (m *Model) refreshStreamViews() {
	if m.streamChat {
		m.refreshChatView()
		m.chatView.GotoBottom()
	} else {
		m.refreshPageView()
		m.pageView.GotoBottom()
	}
}

// handleStreamOpened adopts a freshly dialed session. A dial can race a
// cancel or a context switch; a session arriving after one is stopped
// and dropped.
func (m Model) handleStreamOpened(msg streamOpenedMsg) (tea.Model, tea.Cmd) {
	cancelled := m.session == nil && !m.phase.Active()
	want := modeReading
	if msg.chat {
		want = modeChatting
	}
	if cancelled || m.mode != want {
		msg.session.Stop()
		return m, nil
	}
	if m.session != nil {
		// Superseded dial: opening msg.session already stopped this
		// one server-side. Settle its entry before adopting.
		m.stopActiveStream()
	}

	m.session = msg.session
	m.phase = msg.session.Phase()
	m.tokens = 0
	m.streamChat = msg.chat
	m.streamRegen = msg.regen

	switch {
	case msg.chat:
		m.streamEntry = m.chatLog.AppendPending()
		name := "persona"
		if m.persona != nil {
			name = m.persona.Name
		}
		m.chatSenders = append(m.chatSenders, name)
		m.refreshChatView()
		m.chatView.GotoBottom()

	case msg.regen:
		// Regeneration rewrites the newest entry in place. Its prior
		// text stays visible until a thinking event clears it.
		m.streamEntry = m.log.LastIndex()
		m.log.ReplacePending(m.streamEntry)
		m.history.ReplaceLast(msg.choice)
		m.choices = nil
		m.view.Select(m.streamEntry, m.log.Len())
		m.refreshPageView()

	default:
		m.streamEntry = m.log.AppendPending()
		m.history.Record(msg.choice)
		m.choices = nil
		m.view.Select(m.streamEntry, m.log.Len())
		m.refreshPageView()
	}

	return m, tea.Batch(waitForStreamEvent(msg.session), m.spin.Tick)
}

// handleStreamEvent applies one stream event to the model and re-arms
// the pump unless the event was terminal.
func (m Model) handleStreamEvent(msg streamEventMsg) (tea.Model, tea.Cmd) {
	// Every pump message names its session; anything from a session
	// this model no longer tracks is dropped unseen.
	if m.session == nil || msg.sessionID != m.session.ID {
		return m, nil
	}

	if !msg.ok {
		// Channel closed under the armed pump without a terminal
		// event reaching us. Settle so the entry cannot stay pending.
		m.deps.Log.Warn("stream closed without terminal event",
			zap.String("session", msg.sessionID))
		m.streamLog().Finalize(m.streamEntry)
		m.session = nil
		m.phase = stream.PhaseDone
		m.refreshStreamViews()
		return m, nil
	}

	switch ev := msg.ev.(type) {
	case stream.Token:
		m.streamLog().ApplyToken(m.streamEntry, ev.Text)
		m.tokens++
		m.phase = stream.PhaseEmitting
		m.refreshStreamViews()
		return m, waitForStreamEvent(m.session)

	case stream.Thinking:
		if ev.On {
			// A thinking restart discards whatever text accumulated.
			m.streamLog().ClearText(m.streamEntry)
			m.phase = stream.PhaseThinking
		} else {
			m.phase = stream.PhaseEmitting
		}
		m.refreshStreamViews()
		return m, waitForStreamEvent(m.session)

	case stream.Choices:
		m.streamLog().Finalize(m.streamEntry)
		m.choices = ev.Options
		m.phase = stream.PhaseDone
		m.session = nil
		m.refreshStreamViews()
		if !m.streamChat && m.book != nil {
			return m, tea.Batch(
				m.refreshBook(m.book.ID),
				m.savePosition(m.book.ID, m.streamEntry),
			)
		}
		return m, nil

	case stream.Done:
		m.streamLog().Finalize(m.streamEntry)
		m.phase = stream.PhaseDone
		m.session = nil
		m.refreshStreamViews()
		if m.streamChat && m.persona != nil {
			if ev.ConversationID != "" && m.conv == nil {
				m.conv = &api.Conversation{ID: ev.ConversationID, PersonaID: m.persona.ID}
			}
			if m.conv != nil {
				return m, m.touchRecent(m.conv.ID, m.persona.Name, "chat")
			}
		}
		return m, nil

	case stream.Failure:
		m.streamLog().Finalize(m.streamEntry)
		m.phase = stream.PhaseErrored
		m.session = nil
		m.refreshStreamViews()
		if ev.Stalled {
			m.errText = "generation stalled: no events arrived before the timeout; partial text was kept"
		} else {
			m.errText = ev.Err.Error()
		}
		m.overlay = overlayError
		return m, nil
	}

	return m, waitForStreamEvent(m.session)
}
