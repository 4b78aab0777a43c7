// internal/ui/messages.go
package ui

import (
	"fable/internal/api"
	"fable/internal/db"
	"fable/internal/stream"
)

// errMsg routes a failed operation into the blocking error modal.
type errMsg struct {
	err error
}

// Library and book messages.

type booksMsg struct {
	books []api.Book
}

type bookOpenedMsg struct {
	book    *api.Book
	choices []string
	resume  int // page index to restore the cursor to, -1 for newest
}

type bookCreatedMsg struct {
	book *api.Book
}

type bookRenamedMsg struct {
	id    string
	title string
}

type bookDeletedMsg struct {
	id string
}

// bookRefreshedMsg carries the re-fetched record after a completed
// generation bumped the server-side page count.
type bookRefreshedMsg struct {
	book *api.Book
}

type tagsSavedMsg struct {
	book *api.Book
}

type pageSavedMsg struct {
	index int
	text  string
}

type committedMsg struct{}

type insightMsg struct {
	meta    *api.Meta
	prompts []string
}

type exportedMsg struct {
	path string
}

type copiedMsg struct{}

// Model catalog messages.

type modelsMsg struct {
	models    []api.Model
	refreshed bool
}

// Persona and chat messages.

type personasMsg struct {
	personas []api.Persona
}

type personaSavedMsg struct {
	persona *api.Persona
	created bool
}

type personaDeletedMsg struct {
	id string
}

type personaEnhancedMsg struct {
	draft api.Persona
}

type chatsMsg struct {
	chats []api.Conversation
}

type chatOpenedMsg struct {
	conv *api.Conversation
}

type chatMessageSavedMsg struct {
	index int
	text  string
}

// Prompt messages.

type promptMsg struct {
	mode    string
	content string
}

type promptSavedMsg struct {
	mode string
}

// Recents messages.

type recentsMsg struct {
	recents []db.Recent
}

// Streaming messages.

// streamOpenedMsg announces a freshly dialed generation stream. The
// entry bookkeeping happens in Update so it lives on the UI goroutine.
type streamOpenedMsg struct {
	session *stream.Session
	regen   bool
	choice  string
	chat    bool
}

// streamEventMsg delivers exactly one event from the session channel.
// ok is false once the channel is closed. sessionID guards against a
// stale pump delivering into a newer session's state.
type streamEventMsg struct {
	sessionID string
	ev        stream.Event
	ok        bool
}
