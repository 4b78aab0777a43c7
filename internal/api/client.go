// internal/api/client.go
// REST client for the storybuilder service. Streams are opened
// separately; this client covers every plain HTTP endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Client talks to the storybuilder backend.
type Client struct {
	baseURL string
	http    *retryingClient
	log     *zap.Logger
}

// NewClient creates a client for the backend at baseURL. A zero retry
// config falls back to DefaultRetryConfig.
func NewClient(baseURL string, retry RetryConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryConfig()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newRetryingClient(retry, log),
		log:     log,
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do executes one JSON round trip. A nil in sends no body; a nil out
// discards the response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError turns a non-2xx response into *Error, pulling the
// backend's {"detail": ...} message when present.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(body))

	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Detail != "" {
		detail = payload.Detail
	}
	return &Error{Status: resp.StatusCode, Detail: detail}
}

// ---- Books ----

// ListBooks returns every book in the library.
func (c *Client) ListBooks(ctx context.Context) ([]Book, error) {
	var books []Book
	if err := c.do(ctx, http.MethodGet, "/api/books", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// CreateBook creates a new book. An empty title lets the backend pick
// its placeholder.
func (c *Client) CreateBook(ctx context.Context, title string) (*Book, error) {
	in := struct {
		Title string `json:"title,omitempty"`
	}{Title: title}
	var book Book
	if err := c.do(ctx, http.MethodPost, "/api/books", in, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBook fetches one book's full record.
func (c *Client) GetBook(ctx context.Context, id string) (*Book, error) {
	var book Book
	if err := c.do(ctx, http.MethodGet, "/api/books/"+url.PathEscape(id), nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBook applies the given field updates and returns the record.
func (c *Client) UpdateBook(ctx context.Context, id string, update BookUpdate) (*Book, error) {
	var book Book
	if err := c.do(ctx, http.MethodPut, "/api/books/"+url.PathEscape(id), update, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a book from the backend.
func (c *Client) DeleteBook(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/books/"+url.PathEscape(id), nil, nil)
}

// SetTitle renames a book.
func (c *Client) SetTitle(ctx context.Context, id, title string) error {
	in := struct {
		Title string `json:"title"`
	}{Title: title}
	return c.do(ctx, http.MethodPut, "/api/books/"+url.PathEscape(id)+"/title", in, nil)
}

// Pages returns the book's pages in narrative order.
func (c *Client) Pages(ctx context.Context, id string) ([]Page, error) {
	var out struct {
		Pages []Page `json:"pages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/books/"+url.PathEscape(id)+"/pages", nil, &out); err != nil {
		return nil, err
	}
	return out.Pages, nil
}

// Choices returns the open choices for the book's last page.
func (c *Client) Choices(ctx context.Context, id string) ([]string, error) {
	var out struct {
		Choices []string `json:"choices"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/books/"+url.PathEscape(id)+"/choices", nil, &out); err != nil {
		return nil, err
	}
	return out.Choices, nil
}

// Prompts returns the per-page generation prompts.
func (c *Client) Prompts(ctx context.Context, id string) ([]string, error) {
	var out struct {
		Prompts []string `json:"prompts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/books/"+url.PathEscape(id)+"/prompts", nil, &out); err != nil {
		return nil, err
	}
	return out.Prompts, nil
}

// UpdatePageText replaces the text of page n.
func (c *Client) UpdatePageText(ctx context.Context, id string, n int, text string) error {
	in := struct {
		Text string `json:"text"`
	}{Text: text}
	path := fmt.Sprintf("/api/books/%s/pages/%d", url.PathEscape(id), n)
	return c.do(ctx, http.MethodPatch, path, in, nil)
}

// Commit folds the current page into the book's running summary.
func (c *Client) Commit(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/books/"+url.PathEscape(id)+"/commit", nil, nil)
}

// Meta fetches the narrative insight payload.
func (c *Client) Meta(ctx context.Context, id string) (*Meta, error) {
	var meta Meta
	if err := c.do(ctx, http.MethodGet, "/api/books/"+url.PathEscape(id)+"/meta", nil, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ---- Models ----

// ListModels returns the models the backend offers.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var models []Model
	if err := c.do(ctx, http.MethodGet, "/api/models", nil, &models); err != nil {
		return nil, err
	}
	return models, nil
}

// RefreshModels asks the backend to reload its model configuration and
// returns the refreshed list.
func (c *Client) RefreshModels(ctx context.Context) ([]Model, error) {
	var models []Model
	if err := c.do(ctx, http.MethodPost, "/api/models/refresh", nil, &models); err != nil {
		return nil, err
	}
	return models, nil
}

// ---- Personas ----

// ListPersonas returns all chat personas.
func (c *Client) ListPersonas(ctx context.Context) ([]Persona, error) {
	var personas []Persona
	if err := c.do(ctx, http.MethodGet, "/api/personas", nil, &personas); err != nil {
		return nil, err
	}
	return personas, nil
}

// CreatePersona creates a persona and returns it with its server id.
func (c *Client) CreatePersona(ctx context.Context, p Persona) (*Persona, error) {
	p.ID = ""
	var created Persona
	if err := c.do(ctx, http.MethodPost, "/api/personas", p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdatePersona overwrites a persona's fields.
func (c *Client) UpdatePersona(ctx context.Context, id string, p Persona) (*Persona, error) {
	var updated Persona
	if err := c.do(ctx, http.MethodPut, "/api/personas/"+url.PathEscape(id), p, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePersona removes a persona.
func (c *Client) DeletePersona(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/personas/"+url.PathEscape(id), nil, nil)
}

// EnhancePersona sends a persona draft through the backend's enrichment
// model and returns the elaborated fields.
func (c *Client) EnhancePersona(ctx context.Context, draft Persona) (*Persona, error) {
	draft.ID = ""
	var enhanced Persona
	if err := c.do(ctx, http.MethodPost, "/api/personas/enhance", draft, &enhanced); err != nil {
		return nil, err
	}
	return &enhanced, nil
}

// ---- Chats ----

// ListChats returns stored conversations, most recent first.
func (c *Client) ListChats(ctx context.Context) ([]Conversation, error) {
	var chats []Conversation
	if err := c.do(ctx, http.MethodGet, "/api/chats", nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// GetChat fetches one conversation with its full message history.
func (c *Client) GetChat(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	if err := c.do(ctx, http.MethodGet, "/api/chat/"+url.PathEscape(id), nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// UpdateChatMessage replaces the text of message n in a conversation.
func (c *Client) UpdateChatMessage(ctx context.Context, id string, n int, text string) error {
	in := struct {
		Text string `json:"text"`
	}{Text: text}
	path := fmt.Sprintf("/api/chat/%s/messages/%d", url.PathEscape(id), n)
	return c.do(ctx, http.MethodPatch, path, in, nil)
}

// ---- System prompts ----

// GetPrompt returns the system prompt for mode ("story" or "chat").
func (c *Client) GetPrompt(ctx context.Context, mode string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/prompts/"+url.PathEscape(mode), nil, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

// SetPrompt overwrites the system prompt for mode.
func (c *Client) SetPrompt(ctx context.Context, mode, content string) error {
	in := struct {
		Content string `json:"content"`
	}{Content: content}
	return c.do(ctx, http.MethodPut, "/api/prompts/"+url.PathEscape(mode), in, nil)
}

// ---- Stream URLs ----

// StoryStreamURL builds the SSE URL for a story generation.
func (c *Client) StoryStreamURL(bookID, choice, modelID string, regenerate bool) string {
	q := url.Values{}
	q.Set("book_id", bookID)
	if choice != "" {
		q.Set("choice", choice)
	}
	if modelID != "" {
		q.Set("model_id", modelID)
	}
	if regenerate {
		q.Set("regenerate", "true")
	}
	return c.baseURL + "/api/story/stream?" + q.Encode()
}

// ChatStreamURL builds the SSE URL for a persona chat turn. An empty
// conversationID starts a new conversation server-side.
func (c *Client) ChatStreamURL(personaID, message, conversationID, modelID string) string {
	q := url.Values{}
	q.Set("persona_id", personaID)
	q.Set("message", message)
	if conversationID != "" {
		q.Set("conversation_id", conversationID)
	}
	if modelID != "" {
		q.Set("model_id", modelID)
	}
	return c.baseURL + "/api/chat/stream?" + q.Encode()
}
