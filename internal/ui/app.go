// internal/ui/app.go
package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"fable/internal/api"
	"fable/internal/commands"
	"fable/internal/config"
	"fable/internal/db"
	"fable/internal/story"
	"fable/internal/stream"
)

// appMode is the single tag describing what the main area shows. Every
// screen is one mode; transient surfaces layer on top as overlays.
type appMode int

const (
	modeWelcome appMode = iota
	modeLibrary
	modeReading
	modeChatting
	modePersonas
	modePrompts
	modeEditing
)

func (m appMode) String() string {
	switch m {
	case modeWelcome:
		return "welcome"
	case modeLibrary:
		return "library"
	case modeReading:
		return "reading"
	case modeChatting:
		return "chat"
	case modePersonas:
		return "personas"
	case modePrompts:
		return "prompts"
	case modeEditing:
		return "editing"
	}
	return "unknown"
}

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayHelp
	overlayError
	overlayInsight
	overlayModels
	overlayConfirm
	overlayChats
)

// libInputKind tags what a submitted library input line means.
type libInputKind int

const (
	libInputNone libInputKind = iota
	libInputNewTitle
	libInputRename
	libInputTags
	libInputCommand
)

// readInputKind tags what a submitted reading input line means.
type readInputKind int

const (
	readInputClosed readInputKind = iota
	readInputChoice
	readInputRegen
	readInputCommand
)

type personaViewKind int

const (
	personaList personaViewKind = iota
	personaFormView
)

type editKind int

const (
	editPage editKind = iota
	editChatMessage
	editPrompt
)

type editTarget struct {
	kind       editKind
	index      int    // page or chat message index
	promptMode string // for editPrompt
}

type confirmAction int

const (
	confirmDeleteBook confirmAction = iota
	confirmDeletePersona
)

type confirmState struct {
	prompt string
	action confirmAction
	id     string
}

// Deps carries everything the TUI needs from main.
type Deps struct {
	Config *config.Config
	Log    *zap.Logger
	Store  *db.Store // nil disables recents
	API    *api.Client
	Stream *stream.Client
}

type Model struct {
	deps Deps

	width  int
	height int
	ready  bool

	mode    appMode
	overlay overlayKind
	keys    keyMap

	// Shared widgets
	input    textinput.Model
	editor   textarea.Model
	pageView viewport.Model
	chatView viewport.Model
	spin     spinner.Model
	md       *glamour.TermRenderer // nil renders plain text

	notice  string // transient status bar note, cleared on next key
	errText string
	confirm confirmState

	// Welcome
	recents   []db.Recent
	welCursor int

	// Library
	books     []api.Book
	libCursor int
	libInput  libInputKind

	// Model catalog
	models      []api.Model
	modelCursor int
	modelID     string // "" lets the server pick its default

	// Reading
	book        *api.Book
	log         *story.PageLog
	view        story.ViewState
	history     *story.History
	choices     []string
	phase       stream.Phase
	session     *stream.Session
	streamEntry int
	streamChat  bool
	streamRegen bool
	tokens      int
	readInput   readInputKind

	// Insight overlay content
	meta        *api.Meta
	pagePrompts []string

	// Personas and chat
	personas      []api.Persona
	personaCursor int
	personaView   personaViewKind
	form          personaForm
	persona       *api.Persona
	conv          *api.Conversation
	chatLog       *story.PageLog
	chatSenders   []string
	chats         []api.Conversation
	chatCursor    int

	// Prompts
	promptMode    string
	promptContent map[string]string

	// Editing
	edit       editTarget
	editReturn appMode
}

func New(deps Deps) Model {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 500

	editor := textarea.New()
	editor.ShowLineNumbers = false
	editor.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(Cyan)

	modelID := ""
	if deps.Config != nil {
		modelID = deps.Config.Story.DefaultModel
	}

	return Model{
		deps:          deps,
		mode:          modeWelcome,
		keys:          defaultKeyMap(),
		input:         input,
		editor:        editor,
		spin:          sp,
		form:          newPersonaForm(),
		log:           story.NewPageLog(),
		chatLog:       story.NewPageLog(),
		history:       story.NewHistory(),
		view:          story.NewViewState(),
		modelID:       modelID,
		promptMode:    "story",
		promptContent: map[string]string{},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadRecents(), m.loadModels(false), textinput.Blink)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case spinner.TickMsg:
		if m.phase.Active() {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case streamOpenedMsg:
		return m.handleStreamOpened(msg)

	case streamEventMsg:
		return m.handleStreamEvent(msg)

	case errMsg:
		m.deps.Log.Error("operation failed", zap.Error(msg.err))
		m.errText = msg.err.Error()
		m.overlay = overlayError
		return m, nil

	default:
		return m.handleData(msg)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	m.notice = ""

	if m.overlay != overlayNone {
		return m.updateOverlay(msg)
	}

	switch m.mode {
	case modeWelcome:
		return m.updateWelcome(msg)
	case modeLibrary:
		return m.updateLibrary(msg)
	case modeReading:
		return m.updateReading(msg)
	case modeChatting:
		return m.updateChat(msg)
	case modePersonas:
		return m.updatePersonas(msg)
	case modePrompts:
		return m.updatePrompts(msg)
	case modeEditing:
		return m.updateEditor(msg)
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	content := m.width - 4
	if content < 20 {
		content = 20
	}
	m.input.Width = content - 2
	m.editor.SetWidth(content)
	m.editor.SetHeight(m.height - 8)

	m.pageView = viewport.New(content, m.pageHeight())
	m.chatView = viewport.New(content, m.height-7)

	m.md = nil
	if m.deps.Config == nil || !m.deps.Config.Story.PlainText {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(content),
		)
		if err != nil {
			m.deps.Log.Warn("markdown renderer unavailable", zap.Error(err))
		} else {
			m.md = renderer
		}
	}

	m.refreshPageView()
	m.refreshChatView()
	return m, nil
}

// pageHeight is the room left for the page viewport after the reading
// chrome: title, choices block, input line, status bar.
func (m Model) pageHeight() int {
	h := m.height - 10
	if h < 3 {
		h = 3
	}
	return h
}

// handleData routes every non-stream data message.
func (m Model) handleData(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case booksMsg:
		m.books = msg.books
		if m.libCursor >= len(m.books) {
			m.libCursor = len(m.books) - 1
		}
		if m.libCursor < 0 {
			m.libCursor = 0
		}
		return m, nil

	case bookOpenedMsg:
		return m.enterReading(msg.book, msg.choices, msg.resume)

	case bookCreatedMsg:
		m.notice = fmt.Sprintf("created %q", msg.book.Title)
		return m.enterReading(msg.book, nil, -1)

	case bookRenamedMsg:
		for i := range m.books {
			if m.books[i].ID == msg.id {
				m.books[i].Title = msg.title
			}
		}
		if m.book != nil && m.book.ID == msg.id {
			m.book.Title = msg.title
		}
		m.notice = fmt.Sprintf("renamed to %q", msg.title)
		return m, m.renameRecent(msg.id, msg.title)

	case bookDeletedMsg:
		books := m.books[:0]
		for _, b := range m.books {
			if b.ID != msg.id {
				books = append(books, b)
			}
		}
		m.books = books
		if m.libCursor >= len(m.books) && m.libCursor > 0 {
			m.libCursor = len(m.books) - 1
		}
		cmds := []tea.Cmd{m.forgetRecent(msg.id)}
		if m.book != nil && m.book.ID == msg.id {
			m.stopActiveStream()
			m.book = nil
			m.mode = modeLibrary
			cmds = append(cmds, m.loadBooks())
		}
		m.notice = "book deleted"
		return m, tea.Batch(cmds...)

	case bookRefreshedMsg:
		if m.book != nil && m.book.ID == msg.book.ID {
			m.book = msg.book
		}
		return m, nil

	case tagsSavedMsg:
		for i := range m.books {
			if m.books[i].ID == msg.book.ID {
				m.books[i] = *msg.book
			}
		}
		if m.book != nil && m.book.ID == msg.book.ID {
			m.book = msg.book
		}
		m.notice = "tags saved"
		return m, nil

	case pageSavedMsg:
		// Reflect the server-accepted text locally. Replacement is a
		// clear plus a single append.
		m.log.ClearText(msg.index)
		m.log.ApplyToken(msg.index, msg.text)
		m.refreshPageView()
		if m.mode == modeEditing {
			m.mode = m.editReturn
			m.editor.Blur()
		}
		m.notice = fmt.Sprintf("page %d saved", msg.index+1)
		return m, nil

	case committedMsg:
		m.notice = "page committed to summary"
		if m.book != nil {
			return m, m.refreshBook(m.book.ID)
		}
		return m, nil

	case insightMsg:
		m.meta = msg.meta
		m.pagePrompts = msg.prompts
		m.overlay = overlayInsight
		return m, nil

	case exportedMsg:
		m.notice = "exported to " + msg.path
		return m, nil

	case copiedMsg:
		m.notice = "copied to clipboard"
		return m, nil

	case modelsMsg:
		m.models = msg.models
		if m.modelCursor >= len(m.models) {
			m.modelCursor = 0
		}
		if msg.refreshed {
			m.notice = fmt.Sprintf("model catalog refreshed (%d models)", len(m.models))
		}
		return m, nil

	case personasMsg:
		m.personas = msg.personas
		if m.personaCursor >= len(m.personas) {
			m.personaCursor = 0
		}
		// A chat resumed from recents may hold a placeholder persona
		// until the list arrives.
		if m.persona != nil {
			for i := range m.personas {
				if m.personas[i].ID == m.persona.ID {
					p := m.personas[i]
					m.persona = &p
					m.refreshChatView()
					break
				}
			}
		}
		return m, nil

	case personaSavedMsg:
		if msg.created {
			m.personas = append(m.personas, *msg.persona)
			m.notice = fmt.Sprintf("created persona %q", msg.persona.Name)
		} else {
			for i := range m.personas {
				if m.personas[i].ID == msg.persona.ID {
					m.personas[i] = *msg.persona
				}
			}
			m.notice = fmt.Sprintf("updated persona %q", msg.persona.Name)
		}
		m.personaView = personaList
		return m, nil

	case personaDeletedMsg:
		personas := m.personas[:0]
		for _, p := range m.personas {
			if p.ID != msg.id {
				personas = append(personas, p)
			}
		}
		m.personas = personas
		if m.personaCursor >= len(m.personas) && m.personaCursor > 0 {
			m.personaCursor = len(m.personas) - 1
		}
		m.notice = "persona deleted"
		return m, nil

	case personaEnhancedMsg:
		m.form.fill(msg.draft)
		m.notice = "persona enhanced, review and save"
		return m, nil

	case chatsMsg:
		m.chats = msg.chats
		m.chatCursor = 0
		m.overlay = overlayChats
		return m, nil

	case chatOpenedMsg:
		return m.enterChat(msg.conv)

	case chatMessageSavedMsg:
		m.chatLog.ClearText(msg.index)
		m.chatLog.ApplyToken(msg.index, msg.text)
		m.refreshChatView()
		if m.mode == modeEditing {
			m.mode = m.editReturn
			m.editor.Blur()
		}
		m.notice = "message saved"
		return m, nil

	case promptMsg:
		m.promptContent[msg.mode] = msg.content
		return m, nil

	case promptSavedMsg:
		m.promptContent[msg.mode] = m.editor.Value()
		if m.mode == modeEditing {
			m.mode = m.editReturn
			m.editor.Blur()
		}
		m.notice = msg.mode + " prompt saved"
		return m, nil

	case recentsMsg:
		m.recents = msg.recents
		if m.welCursor >= len(m.recents) {
			m.welCursor = 0
		}
		return m, nil
	}

	return m, nil
}

// dispatchCommand executes a parsed slash command from any input line.
func (m Model) dispatchCommand(c commands.Command) (tea.Model, tea.Cmd) {
	switch c := c.(type) {
	case commands.Help:
		m.overlay = overlayHelp
		return m, nil

	case commands.Library:
		m.mode = modeLibrary
		m.libInput = libInputNone
		return m, m.loadBooks()

	case commands.Open:
		if n, err := strconv.Atoi(c.Target); err == nil {
			if n < 1 || n > len(m.books) {
				m.notice = fmt.Sprintf("no book %d in the library", n)
				return m, nil
			}
			return m, m.openBook(m.books[n-1].ID, -1)
		}
		return m, m.openBook(c.Target, -1)

	case commands.NewBook:
		return m, m.createBook(c.Title)

	case commands.Rename:
		if m.book == nil {
			m.notice = "no open book to rename"
			return m, nil
		}
		return m, m.renameBook(m.book.ID, c.Title)

	case commands.Delete:
		if m.book == nil {
			m.notice = "no open book to delete"
			return m, nil
		}
		m.confirm = confirmState{
			prompt: fmt.Sprintf("Delete %q and all its pages?", m.book.Title),
			action: confirmDeleteBook,
			id:     m.book.ID,
		}
		m.overlay = overlayConfirm
		return m, nil

	case commands.Models:
		m.overlay = overlayModels
		if len(m.models) == 0 {
			return m, m.loadModels(false)
		}
		return m, nil

	case commands.SelectModel:
		return m.selectModel(c.ID)

	case commands.RefreshModels:
		return m, m.loadModels(true)

	case commands.Personas:
		m.mode = modePersonas
		m.personaView = personaList
		return m, m.loadPersonas()

	case commands.SelectPersona:
		return m.selectPersona(c.Target)

	case commands.Chats:
		return m, m.loadChats()

	case commands.Prompts:
		m.mode = modePrompts
		m.promptMode = "story"
		return m, m.loadPrompt("story")

	case commands.Insight:
		if m.book == nil {
			m.notice = "no open book"
			return m, nil
		}
		return m, m.loadInsight(m.book.ID)

	case commands.Commit:
		if m.book == nil || m.log.Len() == 0 {
			m.notice = "nothing to commit"
			return m, nil
		}
		if m.phase.Active() {
			m.notice = "wait for the page to finish"
			return m, nil
		}
		return m, m.commitBook(m.book.ID)

	case commands.Edit:
		switch m.mode {
		case modeReading:
			return m.beginPageEdit()
		case modeChatting:
			return m.beginChatEdit()
		}
		m.notice = "nothing to edit here"
		return m, nil

	case commands.Export:
		if m.book == nil {
			m.notice = "no open book to export"
			return m, nil
		}
		return m, m.exportBook(m.book.ID, c.Format)

	case commands.Copy:
		entry, ok := m.currentEntry()
		if !ok {
			m.notice = "nothing to copy"
			return m, nil
		}
		return m, copyText(entry.Text)

	case commands.Stop:
		if !m.phase.Active() {
			m.notice = "nothing to stop"
			return m, nil
		}
		m.stopActiveStream()
		m.refreshPageView()
		m.refreshChatView()
		return m, nil

	case commands.Quit:
		return m, tea.Quit

	case commands.ParseError:
		m.notice = c.Message
		return m, nil
	}
	return m, nil
}

func (m Model) selectModel(id string) (tea.Model, tea.Cmd) {
	if len(m.models) > 0 {
		found := false
		for _, mo := range m.models {
			if mo.ID == id {
				found = true
				break
			}
		}
		if !found {
			m.notice = fmt.Sprintf("unknown model %q", id)
			return m, nil
		}
	}
	m.modelID = id
	m.notice = "model set to " + id
	return m, nil
}

func (m Model) selectPersona(target string) (tea.Model, tea.Cmd) {
	if n, err := strconv.Atoi(target); err == nil {
		if n < 1 || n > len(m.personas) {
			m.notice = fmt.Sprintf("no persona %d", n)
			return m, nil
		}
		return m.startChat(m.personas[n-1])
	}
	for _, p := range m.personas {
		if strings.EqualFold(p.Name, target) {
			return m.startChat(p)
		}
	}
	m.notice = fmt.Sprintf("no persona named %q", target)
	return m, nil
}

// currentEntry returns the entry under the cursor of whichever
// transcript the current mode shows.
func (m Model) currentEntry() (story.Entry, bool) {
	if m.mode == modeChatting {
		return m.chatLog.Entry(m.chatLog.LastIndex())
	}
	return m.log.Entry(m.view.Cursor())
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.overlay != overlayNone {
		return m.renderOverlay()
	}

	var body string
	switch m.mode {
	case modeWelcome:
		body = m.renderWelcome()
	case modeLibrary:
		body = m.renderLibrary()
	case modeReading:
		body = m.renderReading()
	case modeChatting:
		body = m.renderChat()
	case modePersonas:
		body = m.renderPersonas()
	case modePrompts:
		body = m.renderPrompts()
	case modeEditing:
		body = m.renderEditor()
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusBar())
}
