// Package commands handles slash command parsing for the fable TUI.
package commands

import (
	"strings"
)

// Command interface for all command types
type Command interface {
	Type() string
}

// Help returns help text
type Help struct{}

func (Help) Type() string { return "help" }

// Library opens the book library
type Library struct{}

func (Library) Type() string { return "books" }

// Open opens a book by list number or id
type Open struct {
	Target string
}

func (Open) Type() string { return "open" }

// NewBook creates a new book
type NewBook struct {
	Title string
}

func (NewBook) Type() string { return "new" }

// Rename renames the current book
type Rename struct {
	Title string
}

func (Rename) Type() string { return "rename" }

// Delete deletes the current book
type Delete struct{}

func (Delete) Type() string { return "delete" }

// Models shows the model picker
type Models struct{}

func (Models) Type() string { return "models" }

// SelectModel selects a model by id
type SelectModel struct {
	ID string
}

func (SelectModel) Type() string { return "model" }

// RefreshModels reloads the model catalog from disk
type RefreshModels struct{}

func (RefreshModels) Type() string { return "refresh_models" }

// Personas opens the persona list
type Personas struct{}

func (Personas) Type() string { return "personas" }

// SelectPersona starts a chat with a persona by list number or name
type SelectPersona struct {
	Target string
}

func (SelectPersona) Type() string { return "persona" }

// Chats lists saved conversations
type Chats struct{}

func (Chats) Type() string { return "chats" }

// Prompts opens the system prompt viewer
type Prompts struct{}

func (Prompts) Type() string { return "prompts" }

// Insight shows the story state: summary, characters, timeline
type Insight struct{}

func (Insight) Type() string { return "insight" }

// Commit folds the latest page into the rolling summary
type Commit struct{}

func (Commit) Type() string { return "commit" }

// Edit opens the current page or newest reply in the editor
type Edit struct{}

func (Edit) Type() string { return "edit" }

// Export writes the current book to a file
type Export struct {
	Format string
}

func (Export) Type() string { return "export" }

// Copy copies the current page to the clipboard
type Copy struct{}

func (Copy) Type() string { return "copy" }

// Stop aborts the active generation
type Stop struct{}

func (Stop) Type() string { return "stop" }

// Quit exits the program
type Quit struct{}

func (Quit) Type() string { return "quit" }

// ParseError represents a command parsing error
type ParseError struct {
	Message string
}

func (ParseError) Type() string { return "error" }

// Parse parses user input and returns the appropriate Command.
// Returns nil if the input is not a slash command.
func Parse(input string) Command {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	// Split into command and arguments
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help":
		return Help{}

	case "/books":
		return Library{}

	case "/open":
		if len(args) == 0 {
			return ParseError{Message: "/open requires a book number or id"}
		}
		return Open{Target: strings.Join(args, " ")}

	case "/new":
		title := strings.Join(args, " ")
		return NewBook{Title: title}

	case "/rename":
		title := strings.Join(args, " ")
		if title == "" {
			return ParseError{Message: "/rename requires a title"}
		}
		return Rename{Title: title}

	case "/delete":
		return Delete{}

	case "/models":
		return Models{}

	case "/model":
		if len(args) == 0 {
			return ParseError{Message: "/model requires a model id"}
		}
		return SelectModel{ID: args[0]}

	case "/refresh-models":
		return RefreshModels{}

	case "/personas":
		return Personas{}

	case "/persona":
		if len(args) == 0 {
			return ParseError{Message: "/persona requires a persona number or name"}
		}
		return SelectPersona{Target: strings.Join(args, " ")}

	case "/chats":
		return Chats{}

	case "/prompts":
		return Prompts{}

	case "/insight":
		return Insight{}

	case "/commit":
		return Commit{}

	case "/edit":
		return Edit{}

	case "/export":
		format := "markdown"
		if len(args) > 0 {
			format = strings.ToLower(args[0])
		}
		if format != "markdown" && format != "md" && format != "html" {
			return ParseError{Message: "unknown export format: " + format}
		}
		return Export{Format: format}

	case "/copy":
		return Copy{}

	case "/stop":
		return Stop{}

	case "/quit", "/exit":
		return Quit{}

	default:
		return ParseError{Message: "unknown command: " + cmd}
	}
}

// HelpText returns the help text for all available commands.
func HelpText() string {
	return `Available commands:
  /help              - Show this help
  /books             - Open the book library
  /open <n|id>       - Open a book by number or id
  /new [title]       - Create a new book
  /rename <title>    - Rename the current book
  /delete            - Delete the current book
  /models            - Show the model picker
  /model <id>        - Select a model by id
  /refresh-models    - Reload the model catalog
  /personas          - List chat personas
  /persona <n|name>  - Start a chat with a persona
  /chats             - List saved conversations
  /prompts           - View the system prompts
  /insight           - Show summary, characters and timeline
  /commit            - Fold the latest page into the summary
  /edit              - Edit the current page or newest reply
  /export [format]   - Export the book (markdown or html)
  /copy              - Copy the current page to the clipboard
  /stop              - Stop the active generation
  /quit              - Exit`
}
