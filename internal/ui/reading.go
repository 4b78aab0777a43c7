// internal/ui/reading.go
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"fable/internal/api"
	"fable/internal/commands"
	"fable/internal/story"
	"fable/internal/stream"
)

// enterReading makes book the open book and resets the reading state
// around it. resume is the page to land on, -1 for the newest.
func (m Model) enterReading(book *api.Book, choices []string, resume int) (tea.Model, tea.Cmd) {
	m.stopActiveStream()

	texts := make([]string, len(book.Pages))
	used := make([]string, len(book.Pages))
	for i, p := range book.Pages {
		texts[i] = p.Text
		used[i] = p.ChoiceUsed
	}

	m.book = book
	m.log.Load(texts)
	m.history.Load(used)
	m.choices = choices
	m.view = story.NewViewState()
	if resume >= 0 {
		m.view.Select(resume, m.log.Len())
	} else {
		m.view.Select(m.log.LastIndex(), m.log.Len())
	}
	m.view.Clamp(m.log.Len())

	m.phase = stream.PhaseIdle
	if m.log.Len() > 0 {
		m.phase = stream.PhaseDone
	}
	m.tokens = 0
	m.streamChat = false
	m.streamRegen = false
	m.readInput = readInputClosed
	m.input.Reset()
	m.input.Blur()
	m.mode = modeReading
	m.refreshPageView()
	m.pageView.GotoTop()

	return m, tea.Batch(
		m.touchRecent(book.ID, book.Title, "story"),
		m.savePosition(book.ID, m.view.Cursor()),
	)
}

func (m Model) updateReading(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.readInput != readInputClosed {
		return m.updateReadingInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.overlay = overlayHelp
		return m, nil

	case key.Matches(msg, m.keys.Back):
		if m.phase.Active() {
			m.stopActiveStream()
			m.refreshPageView()
			return m, nil
		}
		m.mode = modeLibrary
		return m, m.loadBooks()
	}

	if m.phase.Active() {
		// Generation in flight: the page still scrolls, everything
		// else waits for the terminal event or an explicit stop.
		var cmd tea.Cmd
		m.pageView, cmd = m.pageView.Update(msg)
		return m, cmd
	}

	gate := m.gate()

	switch {
	case key.Matches(msg, m.keys.PrevPage):
		m.view.Prev()
		m.refreshPageView()
		m.pageView.GotoTop()
		return m, m.saveCursor()

	case key.Matches(msg, m.keys.NextPage):
		m.view.Next(m.log.Len())
		m.refreshPageView()
		m.pageView.GotoTop()
		return m, m.saveCursor()

	case key.Matches(msg, m.keys.FirstPage):
		m.view.Select(0, m.log.Len())
		m.refreshPageView()
		m.pageView.GotoTop()
		return m, m.saveCursor()

	case key.Matches(msg, m.keys.LastPage):
		m.view.Select(m.log.LastIndex(), m.log.Len())
		m.refreshPageView()
		m.pageView.GotoTop()
		return m, m.saveCursor()

	case key.Matches(msg, m.keys.FreeText):
		if !gate.FreeText {
			m.notice = "finish the current page first"
			return m, nil
		}
		m.readInput = readInputChoice
		m.input.Placeholder = "write your own choice"
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Regen):
		if !gate.Regenerate {
			m.notice = "nothing to regenerate here"
			return m, nil
		}
		last, _ := m.history.Last()
		return m.submitChoice(last, true)

	case key.Matches(msg, m.keys.RegenWith):
		if !gate.RegeneratePrompt {
			m.notice = "nothing to regenerate here"
			return m, nil
		}
		last, _ := m.history.Last()
		m.readInput = readInputRegen
		m.input.Placeholder = ""
		m.input.SetValue(last)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.EditPage):
		return m.beginPageEdit()

	case key.Matches(msg, m.keys.CopyPage):
		return m.dispatchCommand(commands.Copy{})

	case key.Matches(msg, m.keys.Insight):
		return m.dispatchCommand(commands.Insight{})

	case key.Matches(msg, m.keys.Export):
		return m.dispatchCommand(commands.Export{Format: "markdown"})
	}

	switch s := msg.String(); {
	case s == "/":
		m.readInput = readInputCommand
		m.input.Placeholder = ""
		m.input.SetValue("/")
		m.input.CursorEnd()
		return m, m.input.Focus()

	case s == "enter":
		if m.log.Len() == 0 {
			return m.submitChoice("", false)
		}
		return m, nil

	case len(s) == 1 && s[0] >= '1' && s[0] <= '9':
		if !gate.Choices {
			return m, nil
		}
		n := int(s[0] - '1')
		if n >= len(m.choices) {
			m.notice = fmt.Sprintf("no choice %s", s)
			return m, nil
		}
		return m.submitChoice(m.choices[n], false)
	}

	var cmd tea.Cmd
	m.pageView, cmd = m.pageView.Update(msg)
	return m, cmd
}

// updateReadingInput drives the one-line input while it is open. Submit
// always collapses the input, whatever the outcome.
func (m Model) updateReadingInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.readInput = readInputClosed
		m.input.Reset()
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		kind := m.readInput
		m.readInput = readInputClosed
		m.input.Reset()
		m.input.Blur()
		if text == "" {
			return m, nil
		}
		switch kind {
		case readInputCommand:
			if c := commands.Parse(text); c != nil {
				return m.dispatchCommand(c)
			}
			m.notice = "commands start with /"
			return m, nil
		case readInputChoice:
			if c := commands.Parse(text); c != nil {
				return m.dispatchCommand(c)
			}
			return m.submitChoice(text, false)
		case readInputRegen:
			return m.submitChoice(text, true)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitChoice issues a generation request for the open book. The phase
// flips immediately so the gate blocks further submissions while the
// dial is in flight.
func (m Model) submitChoice(choice string, regen bool) (tea.Model, tea.Cmd) {
	if m.book == nil {
		return m, nil
	}
	m.stopActiveStream()
	m.streamChat = false
	m.streamRegen = regen
	if regen {
		m.phase = stream.PhaseEmitting
	} else {
		m.phase = stream.PhaseThinking
	}
	return m, tea.Batch(m.openStoryStream(choice, regen), m.spin.Tick)
}

func (m Model) beginPageEdit() (tea.Model, tea.Cmd) {
	if m.phase.Active() {
		m.notice = "wait for the page to finish"
		return m, nil
	}
	entry, ok := m.log.Entry(m.view.Cursor())
	if !ok {
		m.notice = "no page to edit"
		return m, nil
	}
	m.edit = editTarget{kind: editPage, index: m.view.Cursor()}
	m.editReturn = modeReading
	m.editor.SetValue(entry.Text)
	m.mode = modeEditing
	return m, m.editor.Focus()
}

func (m Model) gate() story.Affordances {
	return story.Gate(m.phase, m.view.AtLast(m.log.Len()), m.hasPriorChoice())
}

func (m Model) hasPriorChoice() bool {
	_, ok := m.history.Last()
	return ok
}

func (m Model) saveCursor() tea.Cmd {
	if m.book == nil {
		return nil
	}
	return m.savePosition(m.book.ID, m.view.Cursor())
}

// refreshPageView re-renders the viewed entry into the page viewport.
// Markdown rendering waits until the entry is finalized; partial pages
// wrap as plain text.
func (m *Model) refreshPageView() {
	if !m.ready {
		return
	}
	entry, ok := m.log.Entry(m.view.Cursor())
	if !ok {
		m.pageView.SetContent(DimStyle.Render("This book has no pages yet. Press Enter to begin the story."))
		return
	}

	var b strings.Builder
	if used := m.history.At(m.view.Cursor()); used != "" {
		b.WriteString(AnnotationStyle.Render("You chose: "+used) + "\n\n")
	}

	text := entry.Text
	if m.md != nil && !entry.Pending {
		if out, err := m.md.Render(text); err == nil {
			text = out
		} else {
			text = wordwrap.String(text, m.pageView.Width)
		}
	} else {
		text = wordwrap.String(text, m.pageView.Width)
	}
	b.WriteString(text)

	if entry.ImageURL != "" {
		b.WriteString("\n\n" + DimStyle.Render("Illustration: "+entry.ImageURL))
	}
	m.pageView.SetContent(b.String())
}

func (m Model) renderReading() string {
	if m.book == nil {
		return DimStyle.Render("no book open")
	}

	var b strings.Builder
	header := TitleStyle.Render(m.book.Title)
	if m.log.Len() > 0 && m.view.Cursor() >= 0 {
		header += DimStyle.Render(fmt.Sprintf("  page %d of %d", m.view.Cursor()+1, m.log.Len()))
	}
	b.WriteString(header + "\n\n")
	b.WriteString(m.pageView.View() + "\n")

	gate := m.gate()
	if m.phase.Active() {
		b.WriteString(m.spin.View() + " " + DimStyle.Render(m.phase.String()+"...") + "\n")
	}

	if gate.Choices && len(m.choices) > 0 {
		b.WriteString("\n")
		for i, c := range m.choices {
			b.WriteString(fmt.Sprintf("  %s %s\n",
				ChoiceNumStyle.Render(fmt.Sprintf("%d.", i+1)),
				ChoiceStyle.Render(c)))
		}
	}

	if m.readInput != readInputClosed {
		b.WriteString("\n" + m.input.View() + "\n")
	} else {
		b.WriteString("\n" + DimStyle.Render(m.readingHints(gate)) + "\n")
	}
	return b.String()
}

func (m Model) readingHints(gate story.Affordances) string {
	if m.phase.Active() {
		return "Esc: Stop | Up/Down: Scroll"
	}
	var parts []string
	if m.log.Len() == 0 {
		parts = append(parts, "Enter: Begin")
	}
	if gate.Choices && len(m.choices) > 0 {
		parts = append(parts, fmt.Sprintf("1-%d: Choose", len(m.choices)))
	}
	if gate.FreeText {
		parts = append(parts, "i: Own choice")
	}
	if gate.Regenerate {
		parts = append(parts, "r: Regen", "R: Regen+prompt")
	}
	if m.log.Len() > 1 {
		parts = append(parts, "Left/Right: Pages")
	}
	if m.log.Len() > 0 {
		parts = append(parts, "e: Edit", "c: Copy")
	}
	parts = append(parts, "m: Insight", "x: Export", "/: Command", "?: Help", "Esc: Library")
	return strings.Join(parts, " | ")
}
