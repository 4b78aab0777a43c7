// internal/ui/personas.go
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fable/internal/api"
)

// personaForm is the three-field editor for creating and editing
// personas.
type personaForm struct {
	id     string // empty for a new persona
	name   textinput.Model
	desc   textinput.Model
	traits textinput.Model
	focus  int
}

func newPersonaForm() personaForm {
	name := textinput.New()
	name.Prompt = "Name: "
	name.CharLimit = 80
	desc := textinput.New()
	desc.Prompt = "Description: "
	desc.CharLimit = 500
	traits := textinput.New()
	traits.Prompt = "Traits (comma-separated): "
	traits.CharLimit = 300
	return personaForm{name: name, desc: desc, traits: traits}
}

// fill loads p into the form fields.
func (f *personaForm) fill(p api.Persona) {
	f.id = p.ID
	f.name.SetValue(p.Name)
	f.desc.SetValue(p.Description)
	f.traits.SetValue(strings.Join(p.Traits, ", "))
}

// draft builds the persona the form currently describes.
func (f personaForm) draft() api.Persona {
	var traits []string
	for _, t := range strings.Split(f.traits.Value(), ",") {
		if t = strings.TrimSpace(t); t != "" {
			traits = append(traits, t)
		}
	}
	return api.Persona{
		ID:          f.id,
		Name:        strings.TrimSpace(f.name.Value()),
		Description: strings.TrimSpace(f.desc.Value()),
		Traits:      traits,
	}
}

// setFocus moves focus to field i and blurs the others.
func (f *personaForm) setFocus(i int) tea.Cmd {
	f.focus = i
	fields := []*textinput.Model{&f.name, &f.desc, &f.traits}
	var cmd tea.Cmd
	for j, fld := range fields {
		if j == i {
			cmd = fld.Focus()
		} else {
			fld.Blur()
		}
	}
	return cmd
}

// update forwards msg to the fields; only the focused one consumes it.
func (f *personaForm) update(msg tea.Msg) tea.Cmd {
	var cmds [3]tea.Cmd
	f.name, cmds[0] = f.name.Update(msg)
	f.desc, cmds[1] = f.desc.Update(msg)
	f.traits, cmds[2] = f.traits.Update(msg)
	return tea.Batch(cmds[0], cmds[1], cmds[2])
}

func (m Model) updatePersonas(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.personaView == personaFormView {
		return m.updatePersonaForm(msg)
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
		if m.personaCursor > 0 {
			m.personaCursor--
		}
		return m, nil

	case "down", "j":
		if m.personaCursor < len(m.personas)-1 {
			m.personaCursor++
		}
		return m, nil

	case "enter":
		if m.personaCursor < 0 || m.personaCursor >= len(m.personas) {
			return m, nil
		}
		return m.startChat(m.personas[m.personaCursor])

	case "n":
		m.form = newPersonaForm()
		m.personaView = personaFormView
		return m, m.form.setFocus(0)

	case "e":
		if m.personaCursor < 0 || m.personaCursor >= len(m.personas) {
			return m, nil
		}
		m.form = newPersonaForm()
		m.form.fill(m.personas[m.personaCursor])
		m.personaView = personaFormView
		return m, m.form.setFocus(0)

	case "d":
		if m.personaCursor < 0 || m.personaCursor >= len(m.personas) {
			return m, nil
		}
		p := m.personas[m.personaCursor]
		m.confirm = confirmState{
			prompt: fmt.Sprintf("Delete persona %q?", p.Name),
			action: confirmDeletePersona,
			id:     p.ID,
		}
		m.overlay = overlayConfirm
		return m, nil

	case "c":
		return m, m.loadChats()
	}
	return m, nil
}

func (m Model) updatePersonaForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.personaView = personaList
		return m, nil

	case "tab", "enter":
		next := m.form.focus + 1
		if next > 2 {
			next = 0
		}
		return m, m.form.setFocus(next)

	case "shift+tab":
		next := m.form.focus - 1
		if next < 0 {
			next = 2
		}
		return m, m.form.setFocus(next)

	case "ctrl+s":
		draft := m.form.draft()
		if draft.Name == "" {
			m.notice = "persona needs a name"
			return m, nil
		}
		return m, m.savePersona(m.form.id, draft)

	case "ctrl+e":
		draft := m.form.draft()
		if draft.Name == "" {
			m.notice = "persona needs a name"
			return m, nil
		}
		m.notice = "enhancing persona..."
		return m, m.enhancePersona(draft)
	}

	return m, m.form.update(msg)
}

func (m Model) renderPersonas() string {
	if m.personaView == personaFormView {
		return m.renderPersonaForm()
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Personas") + "\n\n")

	if len(m.personas) == 0 {
		b.WriteString(DimStyle.Render("No personas yet. Press n to create one.") + "\n")
	} else {
		for i, p := range m.personas {
			cursor := "  "
			lineStyle := DimStyle
			if i == m.personaCursor {
				cursor = "> "
				lineStyle = lipgloss.NewStyle().Foreground(Cyan)
			}
			desc := p.Description
			if len(desc) > 48 {
				desc = desc[:48] + ".."
			}
			line := fmt.Sprintf("%-24s  %s", p.Name, desc)
			b.WriteString(cursor + lineStyle.Render(line) + "\n")
		}
	}

	b.WriteString("\n" + DimStyle.Render("Enter: Chat | n: New | e: Edit | d: Delete | c: Saved chats | Esc: Back"))
	return b.String()
}

func (m Model) renderPersonaForm() string {
	var b strings.Builder
	title := "New persona"
	if m.form.id != "" {
		title = "Edit persona"
	}
	b.WriteString(TitleStyle.Render(title) + "\n\n")
	b.WriteString(m.form.name.View() + "\n")
	b.WriteString(m.form.desc.View() + "\n")
	b.WriteString(m.form.traits.View() + "\n\n")
	b.WriteString(DimStyle.Render("Tab: Next field | Ctrl+S: Save | Ctrl+E: Enhance | Esc: Cancel"))
	return b.String()
}
