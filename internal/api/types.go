// internal/api/types.go
package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Book is the backend's full book record. Timestamps stay strings
// because the backend emits bare ISO-8601 without a zone offset.
type Book struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Summary     string          `json:"summary"`
	Characters  []Character     `json:"characters"`
	KeyEvents   []KeyEvent      `json:"key_events"`
	Timeline    []TimelineEntry `json:"timeline"`
	Pages       []Page          `json:"pages"`
	NumPages    int             `json:"num_pages"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
	CoverURL    string          `json:"cover_url,omitempty"`
	Tags        []string        `json:"tags"`
	Settings    map[string]any  `json:"settings,omitempty"`
}

// Page is one generated page with its bookkeeping.
type Page struct {
	Text       string   `json:"text"`
	Choices    []string `json:"choices"`
	Prompt     string   `json:"prompt"`
	ChoiceUsed string   `json:"choice_used"`
}

// Character is a tracked story character.
type Character struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Role            string `json:"role,omitempty"`
	FirstAppearance int    `json:"first_appearance,omitempty"`
	AddedAt         string `json:"added_at,omitempty"`
}

// KeyEvent is a tracked plot event.
type KeyEvent struct {
	Event      string `json:"event"`
	PageNumber int    `json:"page_number,omitempty"`
	Category   string `json:"category,omitempty"`
	AddedAt    string `json:"added_at,omitempty"`
}

// TimelineEntry is one entry of the narrative timeline.
type TimelineEntry struct {
	Entry         string `json:"entry"`
	PageNumber    int    `json:"page_number,omitempty"`
	TimeReference string `json:"time_reference,omitempty"`
	AddedAt       string `json:"added_at,omitempty"`
}

// Meta is the narrative insight payload for a book.
type Meta struct {
	Summary    string      `json:"summary"`
	Characters []Character `json:"characters"`
	KeyEvents  []KeyEvent  `json:"key_events"`
}

// BookUpdate carries the mutable book fields for UpdateBook.
// Zero-valued fields are left out of the request.
type BookUpdate struct {
	Description string         `json:"description,omitempty"`
	CoverURL    string         `json:"cover_url,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
}

// Model describes one generation model offered by the backend.
type Model struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Provider             string   `json:"provider"`
	ModelName            string   `json:"model_name"`
	Description          string   `json:"description"`
	ContentLevel         string   `json:"content_level"`
	Temperature          float64  `json:"temperature"`
	Tags                 []string `json:"tags,omitempty"`
	SystemPromptModifier string   `json:"system_prompt_modifier,omitempty"`
}

// Persona is a chat persona.
type Persona struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Traits      []string `json:"traits,omitempty"`
}

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Conversation is a persisted chat with one persona.
type Conversation struct {
	ID        string        `json:"id"`
	PersonaID string        `json:"persona_id"`
	Messages  []ChatMessage `json:"messages"`
	UpdatedAt string        `json:"updated_at,omitempty"`
}

// Error is a non-2xx backend response with its decoded detail.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("storybuilder: HTTP %d", e.Status)
	}
	return fmt.Sprintf("storybuilder: HTTP %d: %s", e.Status, e.Detail)
}

// NotFound reports whether err is a backend 404.
func NotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
