// internal/ui/keymap.go
package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PrevPage  key.Binding
	NextPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding
	FreeText  key.Binding
	Regen     key.Binding
	RegenWith key.Binding
	EditPage  key.Binding
	CopyPage  key.Binding
	Insight   key.Binding
	Export    key.Binding
	Help      key.Binding
	Back      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next page"),
		),
		FirstPage: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "first page"),
		),
		LastPage: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "last page"),
		),
		FreeText: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "write your own choice"),
		),
		Regen: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "regenerate page"),
		),
		RegenWith: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "regenerate with custom prompt"),
		),
		EditPage: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit page"),
		),
		CopyPage: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy page"),
		),
		Insight: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "story insight"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export book"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "f1"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back / stop"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}
