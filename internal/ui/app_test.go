// internal/ui/app_test.go
package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"fable/internal/api"
	"fable/internal/commands"
	"fable/internal/stream"
)

func newTestModel() Model {
	client := api.NewClient("http://localhost:9", api.RetryConfig{}, nil)
	return New(Deps{API: client})
}

func TestStreamEvents_TokenAccumulation(t *testing.T) {
	m := newTestModel()
	m.mode = modeReading
	m.book = &api.Book{ID: "b1", Title: "Test"}
	m.streamEntry = m.log.AppendPending()
	m.view.Select(m.streamEntry, m.log.Len())
	m.session = &stream.Session{ID: "s1"}
	m.phase = stream.PhaseThinking

	apply := func(ev stream.Event) {
		t.Helper()
		next, _ := m.handleStreamEvent(streamEventMsg{sessionID: "s1", ev: ev, ok: true})
		m = next.(Model)
	}

	apply(stream.Token{Text: "Once "})
	apply(stream.Token{Text: "upon"})

	entry, _ := m.log.Entry(0)
	if entry.Text != "Once upon" {
		t.Errorf("expected accumulated text, got %q", entry.Text)
	}
	if m.phase != stream.PhaseEmitting {
		t.Errorf("expected emitting phase, got %v", m.phase)
	}
	if m.tokens != 2 {
		t.Errorf("expected 2 tokens counted, got %d", m.tokens)
	}

	// A thinking restart discards whatever accumulated so far.
	apply(stream.Thinking{On: true})
	entry, _ = m.log.Entry(0)
	if entry.Text != "" {
		t.Errorf("expected cleared text after thinking restart, got %q", entry.Text)
	}
	if m.phase != stream.PhaseThinking {
		t.Errorf("expected thinking phase, got %v", m.phase)
	}

	apply(stream.Token{Text: "Hello"})
	entry, _ = m.log.Entry(0)
	if entry.Text != "Hello" {
		t.Errorf("expected only post-restart text, got %q", entry.Text)
	}

	apply(stream.Choices{Options: []string{"north", "south", "east"}})
	entry, _ = m.log.Entry(0)
	if entry.Pending {
		t.Error("entry still pending after terminal choices event")
	}
	if m.phase != stream.PhaseDone {
		t.Errorf("expected done phase, got %v", m.phase)
	}
	if m.session != nil {
		t.Error("session not released after terminal event")
	}
	if len(m.choices) != 3 {
		t.Errorf("expected 3 choices, got %d", len(m.choices))
	}
}

func TestStreamEvents_StaleSessionDropped(t *testing.T) {
	m := newTestModel()
	m.mode = modeReading
	m.streamEntry = m.log.AppendPending()
	m.session = &stream.Session{ID: "s2"}
	m.phase = stream.PhaseEmitting

	next, _ := m.handleStreamEvent(streamEventMsg{sessionID: "s1", ev: stream.Token{Text: "late"}, ok: true})
	m = next.(Model)

	entry, _ := m.log.Entry(0)
	if entry.Text != "" {
		t.Errorf("stale token applied: %q", entry.Text)
	}
	if m.tokens != 0 {
		t.Errorf("stale token counted: %d", m.tokens)
	}
}

func TestStreamEvents_FailureKeepsPartialText(t *testing.T) {
	m := newTestModel()
	m.mode = modeReading
	m.book = &api.Book{ID: "b1"}
	m.streamEntry = m.log.AppendPending()
	m.session = &stream.Session{ID: "s1"}
	m.phase = stream.PhaseEmitting

	next, _ := m.handleStreamEvent(streamEventMsg{
		sessionID: "s1", ev: stream.Token{Text: "Partial page"}, ok: true,
	})
	m = next.(Model)
	next, _ = m.handleStreamEvent(streamEventMsg{
		sessionID: "s1", ev: stream.Failure{Err: errors.New("server: boom")}, ok: true,
	})
	m = next.(Model)

	entry, _ := m.log.Entry(0)
	if entry.Text != "Partial page" {
		t.Errorf("partial text rolled back: %q", entry.Text)
	}
	if entry.Pending {
		t.Error("entry still pending after failure")
	}
	if m.phase != stream.PhaseErrored {
		t.Errorf("expected errored phase, got %v", m.phase)
	}
	if m.session != nil {
		t.Error("session not released after failure")
	}
	if m.overlay != overlayError {
		t.Error("failure did not raise the error overlay")
	}
	if !strings.Contains(m.errText, "boom") {
		t.Errorf("error text missing cause: %q", m.errText)
	}
}

func TestStreamEvents_ClosedChannelSettles(t *testing.T) {
	m := newTestModel()
	m.mode = modeReading
	m.streamEntry = m.log.AppendPending()
	m.session = &stream.Session{ID: "s1"}
	m.phase = stream.PhaseEmitting

	next, _ := m.handleStreamEvent(streamEventMsg{sessionID: "s1", ok: false})
	m = next.(Model)

	entry, _ := m.log.Entry(0)
	if entry.Pending {
		t.Error("entry left pending after the channel closed")
	}
	if m.session != nil {
		t.Error("session not released")
	}
	if m.phase.Active() {
		t.Errorf("phase still active: %v", m.phase)
	}
}

func TestStreamOpened_FreshGeneration(t *testing.T) {
	m := newTestModel()
	m.mode = modeReading
	m.book = &api.Book{ID: "b1"}
	m.phase = stream.PhaseThinking // set when the request was issued

	next, _ := m.handleStreamOpened(streamOpenedMsg{
		session: &stream.Session{ID: "s1"}, choice: "go north",
	})
	m = next.(Model)

	if m.log.Len() != 1 {
		t.Fatalf("expected one pending entry, got %d", m.log.Len())
	}
	entry, _ := m.log.Entry(0)
	if !entry.Pending {
		t.Error("new entry not pending")
	}
	if m.view.Cursor() != 0 {
		t.Errorf("cursor not on the new entry: %d", m.view.Cursor())
	}
	if got := m.history.At(0); got != "go north" {
		t.Errorf("choice not recorded: %q", got)
	}
	if m.session == nil || m.session.ID != "s1" {
		t.Error("session not adopted")
	}
}

func TestStreamOpened_RegenerationReplacesInPlace(t *testing.T) {
	m := newTestModel()
	m.mode = modeReading
	m.book = &api.Book{ID: "b1"}
	m.log.Load([]string{"first page", "second page"})
	m.history.Load([]string{"", "go north"})
	m.view.Select(1, m.log.Len())
	m.phase = stream.PhaseEmitting // regenerations skip thinking

	next, _ := m.handleStreamOpened(streamOpenedMsg{
		session: &stream.Session{ID: "s1"}, regen: true, choice: "go west",
	})
	m = next.(Model)

	if m.log.Len() != 2 {
		t.Fatalf("regeneration changed the page count: %d", m.log.Len())
	}
	entry, _ := m.log.Entry(1)
	if !entry.Pending {
		t.Error("regenerated entry not pending")
	}
	if entry.Text != "second page" {
		t.Errorf("prior text dropped before any event: %q", entry.Text)
	}
	if got := m.history.At(1); got != "go west" {
		t.Errorf("replacement choice not recorded: %q", got)
	}
	if m.view.Cursor() != 1 {
		t.Errorf("cursor moved off the regenerated entry: %d", m.view.Cursor())
	}
}

func TestStreamOpened_ChatTurn(t *testing.T) {
	m := newTestModel()
	m.mode = modeChatting
	m.persona = &api.Persona{ID: "p1", Name: "Mira"}
	m.streamChat = true
	m.phase = stream.PhaseThinking

	next, _ := m.handleStreamOpened(streamOpenedMsg{
		session: &stream.Session{ID: "s1"}, chat: true,
	})
	m = next.(Model)

	if m.chatLog.Len() != 1 {
		t.Fatalf("expected one pending reply entry, got %d", m.chatLog.Len())
	}
	if len(m.chatSenders) != 1 || m.chatSenders[0] != "Mira" {
		t.Errorf("reply sender not recorded: %v", m.chatSenders)
	}
	if m.log.Len() != 0 {
		t.Error("chat turn leaked into the book log")
	}
}

func TestStreamEvents_DoneAdoptsConversation(t *testing.T) {
	m := newTestModel()
	m.mode = modeChatting
	m.persona = &api.Persona{ID: "p1", Name: "Mira"}
	m.streamChat = true
	m.streamEntry = m.chatLog.AppendPending()
	m.session = &stream.Session{ID: "s1"}
	m.phase = stream.PhaseEmitting

	next, _ := m.handleStreamEvent(streamEventMsg{
		sessionID: "s1", ev: stream.Done{ConversationID: "c9"}, ok: true,
	})
	m = next.(Model)

	if m.conv == nil || m.conv.ID != "c9" {
		t.Fatal("conversation id not adopted from the done event")
	}
	if m.conv.PersonaID != "p1" {
		t.Errorf("adopted conversation bound to wrong persona: %q", m.conv.PersonaID)
	}
	entry, _ := m.chatLog.Entry(0)
	if entry.Pending {
		t.Error("reply entry still pending after done")
	}
	if m.phase != stream.PhaseDone {
		t.Errorf("expected done phase, got %v", m.phase)
	}
}

func TestSendChatMessage_AppendsUserTurn(t *testing.T) {
	m := newTestModel()
	m.mode = modeChatting
	m.persona = &api.Persona{ID: "p1", Name: "Mira"}
	m.streamChat = true

	next, cmd := m.sendChatMessage("hello there")
	m = next.(Model)

	if cmd == nil {
		t.Fatal("no stream command issued")
	}
	if m.chatLog.Len() != 1 {
		t.Fatalf("expected one entry, got %d", m.chatLog.Len())
	}
	entry, _ := m.chatLog.Entry(0)
	if entry.Text != "hello there" || entry.Pending {
		t.Errorf("user turn not appended complete: %+v", entry)
	}
	if m.chatSenders[0] != "user" {
		t.Errorf("user turn sender = %q", m.chatSenders[0])
	}
	if !m.phase.Active() {
		t.Errorf("phase not active after send: %v", m.phase)
	}
}

func TestDispatchCommand_Guards(t *testing.T) {
	tests := []struct {
		name string
		cmd  commands.Command
		want string
	}{
		{"stop with nothing in flight", commands.Stop{}, "nothing to stop"},
		{"rename without a book", commands.Rename{Title: "New"}, "no open book"},
		{"export without a book", commands.Export{Format: "markdown"}, "no open book"},
		{"commit without pages", commands.Commit{}, "nothing to commit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel()
			next, _ := m.dispatchCommand(tt.cmd)
			got := next.(Model).notice
			if !strings.Contains(got, tt.want) {
				t.Errorf("notice = %q, want it to mention %q", got, tt.want)
			}
		})
	}
}

func TestDispatchCommand_HelpOpensOverlay(t *testing.T) {
	m := newTestModel()
	next, _ := m.dispatchCommand(commands.Help{})
	if next.(Model).overlay != overlayHelp {
		t.Error("help command did not open the help overlay")
	}
}

func TestErrorOverlayDismissRestoresRetrySurface(t *testing.T) {
	m := newTestModel()
	m.mode = modeReading
	m.log.Load([]string{"partial page"})
	m.view.Select(0, 1)
	m.overlay = overlayError
	m.errText = "server: boom"
	m.phase = stream.PhaseErrored

	next, _ := m.updateOverlay(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	if m.overlay != overlayNone {
		t.Error("overlay not dismissed")
	}
	if m.phase != stream.PhaseDone {
		t.Errorf("phase = %v, want done so the reader can retry", m.phase)
	}
}

func TestReadingDigitSubmitsChoice(t *testing.T) {
	m := newTestModel()
	m.mode = modeReading
	m.book = &api.Book{ID: "b1"}
	m.log.Load([]string{"page one"})
	m.history.Load([]string{""})
	m.view.Select(0, 1)
	m.phase = stream.PhaseDone
	m.choices = []string{"north", "south", "east"}

	next, cmd := m.updateReading(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	m = next.(Model)

	if cmd == nil {
		t.Fatal("no stream command issued for a digit choice")
	}
	if !m.phase.Active() {
		t.Errorf("phase not flipped active on submit: %v", m.phase)
	}
}

func TestReadingRegenRequiresPriorChoice(t *testing.T) {
	m := newTestModel()
	m.mode = modeReading
	m.book = &api.Book{ID: "b1"}
	m.log.Load([]string{"opening page"})
	m.history.Load([]string{""}) // opening pages record no choice
	m.view.Select(0, 1)
	m.phase = stream.PhaseDone

	next, cmd := m.updateReading(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(Model)

	if cmd != nil {
		t.Fatal("regeneration issued with no prior choice to reuse")
	}
	if m.notice == "" {
		t.Error("no notice explaining why regeneration is unavailable")
	}
}

func TestStopActiveStreamFinalizesEntry(t *testing.T) {
	m := newTestModel()
	m.mode = modeReading
	m.streamEntry = m.log.AppendPending()
	m.log.ApplyToken(m.streamEntry, "text so far")
	m.phase = stream.PhaseEmitting

	// No live session here: the dial may still be in flight when the
	// user cancels. Settling must not depend on one.
	m.stopActiveStream()

	entry, _ := m.log.Entry(0)
	if entry.Pending {
		t.Error("pending entry survived the stop")
	}
	if entry.Text != "text so far" {
		t.Errorf("accumulated text dropped on stop: %q", entry.Text)
	}
	if m.phase != stream.PhaseIdle {
		t.Errorf("phase = %v after stop, want idle", m.phase)
	}
}
