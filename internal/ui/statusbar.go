// internal/ui/statusbar.go
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"fable/internal/stream"
)

// statusBar renders the single-line bar at the bottom: mode, context,
// generation state on the left, the transient notice on the right.
func (m Model) statusBar() string {
	segs := []string{m.mode.String()}

	switch m.mode {
	case modeReading, modeEditing:
		if m.book != nil {
			segs = append(segs, truncate.StringWithTail(m.book.Title, 32, "…"))
			if m.log.Len() > 0 && m.view.Cursor() >= 0 {
				segs = append(segs, fmt.Sprintf("page %d/%d", m.view.Cursor()+1, m.log.Len()))
			}
		}
	case modeChatting:
		if m.persona != nil {
			segs = append(segs, truncate.StringWithTail(m.persona.Name, 32, "…"))
		}
		if m.conv == nil {
			segs = append(segs, "new conversation")
		}
	}

	if m.modelID != "" {
		segs = append(segs, m.modelID)
	}

	if m.mode == modeReading || m.mode == modeChatting {
		switch {
		case m.phase.Active():
			segs = append(segs, fmt.Sprintf("%s %s · %d tok", m.spin.View(), m.phase, m.tokens))
		case m.phase != stream.PhaseIdle:
			segs = append(segs, m.phase.String())
		}
	}

	left := " " + strings.Join(segs, " · ")
	bar := left

	if m.notice != "" {
		maxNotice := m.width - lipgloss.Width(left) - 3
		if maxNotice > 8 {
			right := truncate.StringWithTail(m.notice, uint(maxNotice), "…")
			gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 1
			if gap > 0 {
				bar = left + strings.Repeat(" ", gap) + right
			}
		}
	}

	return StatusBarStyle.Width(m.width).Render(bar)
}
