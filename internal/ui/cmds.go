// internal/ui/cmds.go
package ui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"fable/internal/api"
	"fable/internal/export"
	"fable/internal/stream"
)

const apiTimeout = 30 * time.Second

func apiCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), apiTimeout)
}

// Library and book commands.

func (m Model) loadBooks() tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		books, err := client.ListBooks(ctx)
		if err != nil {
			return errMsg{err}
		}
		return booksMsg{books: books}
	}
}

// openBook fetches the full record plus the current choice set. resume
// is the page to land on, -1 for the newest.
func (m Model) openBook(id string, resume int) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		book, err := client.GetBook(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		choices, err := client.Choices(ctx, id)
		if err != nil {
			// A book with no pages has no choices; anything else is real.
			if !api.NotFound(err) {
				return errMsg{err}
			}
			choices = nil
		}
		return bookOpenedMsg{book: book, choices: choices, resume: resume}
	}
}

func (m Model) createBook(title string) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		book, err := client.CreateBook(ctx, title)
		if err != nil {
			return errMsg{err}
		}
		return bookCreatedMsg{book: book}
	}
}

func (m Model) renameBook(id, title string) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		if err := client.SetTitle(ctx, id, title); err != nil {
			return errMsg{err}
		}
		return bookRenamedMsg{id: id, title: title}
	}
}

func (m Model) deleteBook(id string) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		if err := client.DeleteBook(ctx, id); err != nil {
			return errMsg{err}
		}
		return bookDeletedMsg{id: id}
	}
}

func (m Model) refreshBook(id string) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		book, err := client.GetBook(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return bookRefreshedMsg{book: book}
	}
}

func (m Model) saveTags(id string, tags []string) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		book, err := client.UpdateBook(ctx, id, api.BookUpdate{Tags: tags})
		if err != nil {
			return errMsg{err}
		}
		return tagsSavedMsg{book: book}
	}
}

func (m Model) savePage(id string, n int, text string) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		if err := client.UpdatePageText(ctx, id, n, text); err != nil {
			return errMsg{err}
		}
		return pageSavedMsg{index: n, text: text}
	}
}

func (m Model) commitBook(id string) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		if err := client.Commit(ctx, id); err != nil {
			return errMsg{err}
		}
		return committedMsg{}
	}
}

func (m Model) loadInsight(id string) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		meta, err := client.Meta(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		prompts, err := client.Prompts(ctx, id)
		if err != nil {
			prompts = nil // insight still renders without per-page prompts
		}
		return insightMsg{meta: meta, prompts: prompts}
	}
}

// exportBook re-fetches the book so the export reflects server truth,
// not the client's in-flight view.
func (m Model) exportBook(id, format string) tea.Cmd {
	client := m.deps.API
	dir := m.deps.Config.ExportDir()
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		book, err := client.GetBook(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		pages, err := client.Pages(ctx, id)
		if err != nil {
			return errMsg{err}
		}

		exp := &export.BookExport{
			ID:        book.ID,
			Title:     book.Title,
			Summary:   book.Summary,
			Tags:      book.Tags,
			CreatedAt: book.CreatedAt,
		}
		for _, p := range pages {
			exp.Pages = append(exp.Pages, export.PageExport{
				Text:       p.Text,
				ChoiceUsed: p.ChoiceUsed,
			})
		}

		var path string
		if format == "html" {
			path, err = export.WriteHTML(exp, dir)
		} else {
			path, err = export.WriteMarkdown(exp, dir)
		}
		if err != nil {
			return errMsg{err}
		}
		return exportedMsg{path: path}
	}
}

func copyText(text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return errMsg{err}
		}
		return copiedMsg{}
	}
}

// Model catalog commands.

func (m Model) loadModels(refresh bool) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		var (
			models []api.Model
			err    error
		)
		if refresh {
			models, err = client.RefreshModels(ctx)
		} else {
			models, err = client.ListModels(ctx)
		}
		if err != nil {
			return errMsg{err}
		}
		return modelsMsg{models: models, refreshed: refresh}
	}
}

// Persona and chat commands.

func (m Model) loadPersonas() tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		personas, err := client.ListPersonas(ctx)
		if err != nil {
			return errMsg{err}
		}
		return personasMsg{personas: personas}
	}
}

// savePersona creates when id is empty, updates otherwise.
func (m Model) savePersona(id string, p api.Persona) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		var (
			saved *api.Persona
			err   error
		)
		if id == "" {
			saved, err = client.CreatePersona(ctx, p)
		} else {
			saved, err = client.UpdatePersona(ctx, id, p)
		}
		if err != nil {
			return errMsg{err}
		}
		return personaSavedMsg{persona: saved, created: id == ""}
	}
}

func (m Model) deletePersona(id string) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		if err := client.DeletePersona(ctx, id); err != nil {
			return errMsg{err}
		}
		return personaDeletedMsg{id: id}
	}
}

func (m Model) enhancePersona(draft api.Persona) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		enhanced, err := client.EnhancePersona(ctx, draft)
		if err != nil {
			return errMsg{err}
		}
		return personaEnhancedMsg{draft: *enhanced}
	}
}

func (m Model) loadChats() tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		chats, err := client.ListChats(ctx)
		if err != nil {
			return errMsg{err}
		}
		return chatsMsg{chats: chats}
	}
}

func (m Model) openChat(id string) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		conv, err := client.GetChat(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return chatOpenedMsg{conv: conv}
	}
}

func (m Model) saveChatMessage(id string, n int, text string) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		if err := client.UpdateChatMessage(ctx, id, n, text); err != nil {
			return errMsg{err}
		}
		return chatMessageSavedMsg{index: n, text: text}
	}
}

// Prompt commands.

func (m Model) loadPrompt(mode string) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		content, err := client.GetPrompt(ctx, mode)
		if err != nil {
			return errMsg{err}
		}
		return promptMsg{mode: mode, content: content}
	}
}

func (m Model) savePrompt(mode, content string) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		ctx, cancel := apiCtx()
		defer cancel()
		if err := client.SetPrompt(ctx, mode, content); err != nil {
			return errMsg{err}
		}
		return promptSavedMsg{mode: mode}
	}
}

// Recents commands. Store failures never block the UI; they are logged
// and swallowed.

func (m Model) loadRecents() tea.Cmd {
	store := m.deps.Store
	log := m.deps.Log
	return func() tea.Msg {
		if store == nil {
			return recentsMsg{}
		}
		recents, err := store.ListRecents(10)
		if err != nil {
			log.Warn("list recents", zap.Error(err))
			return recentsMsg{}
		}
		return recentsMsg{recents: recents}
	}
}

func (m Model) touchRecent(id, title, mode string) tea.Cmd {
	store := m.deps.Store
	log := m.deps.Log
	return func() tea.Msg {
		if store == nil {
			return nil
		}
		if err := store.Touch(id, title, mode); err != nil {
			log.Warn("touch recent", zap.Error(err))
		}
		return nil
	}
}

func (m Model) savePosition(id string, page int) tea.Cmd {
	store := m.deps.Store
	log := m.deps.Log
	return func() tea.Msg {
		if store == nil {
			return nil
		}
		if err := store.SetPosition(id, page); err != nil {
			log.Warn("save position", zap.Error(err))
		}
		return nil
	}
}

func (m Model) renameRecent(id, title string) tea.Cmd {
	store := m.deps.Store
	log := m.deps.Log
	return func() tea.Msg {
		if store == nil {
			return nil
		}
		if err := store.Rename(id, title); err != nil {
			log.Warn("rename recent", zap.Error(err))
		}
		return nil
	}
}

func (m Model) forgetRecent(id string) tea.Cmd {
	store := m.deps.Store
	log := m.deps.Log
	return func() tea.Msg {
		if store == nil {
			return nil
		}
		if err := store.Remove(id); err != nil {
			log.Warn("forget recent", zap.Error(err))
		}
		return nil
	}
}

// Streaming commands.

func (m Model) openStoryStream(choice string, regen bool) tea.Cmd {
	client := m.deps.Stream
	url := m.deps.API.StoryStreamURL(m.book.ID, choice, m.modelID, regen)
	return func() tea.Msg {
		session, err := client.Open(context.Background(), url, regen)
		if err != nil {
			return errMsg{err}
		}
		return streamOpenedMsg{session: session, regen: regen, choice: choice}
	}
}

func (m Model) openChatStream(message string) tea.Cmd {
	client := m.deps.Stream
	convID := ""
	if m.conv != nil {
		convID = m.conv.ID
	}
	url := m.deps.API.ChatStreamURL(m.persona.ID, message, convID, m.modelID)
	return func() tea.Msg {
		session, err := client.Open(context.Background(), url, false)
		if err != nil {
			return errMsg{err}
		}
		return streamOpenedMsg{session: session, chat: true}
	}
}

// waitForStreamEvent blocks until the session delivers one event, then
// re-arms itself from Update. One event per command keeps the reducer
// ordering identical to the wire ordering.
func waitForStreamEvent(s *stream.Session) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-s.Events()
		return streamEventMsg{sessionID: s.ID, ev: ev, ok: ok}
	}
}
