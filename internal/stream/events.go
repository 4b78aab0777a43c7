// internal/stream/events.go
package stream

// Event is one normalized occurrence on a generation stream. Concrete
// variants mirror the wire events: token fragments, thinking markers,
// the terminal payloads, and failures.
type Event interface {
	Kind() string
}

// Token carries one fragment of generated text. Raw is true when the
// payload was not a JSON-encoded string and the raw bytes were used
// instead (older senders emit plain text).
type Token struct {
	Text string
	Raw  bool
}

func (Token) Kind() string { return "token" }

// Thinking toggles the reasoning phase. On=true also means the text
// accumulated so far must be discarded before further tokens apply.
type Thinking struct {
	On bool
}

func (Thinking) Kind() string { return "thinking" }

// Choices is the story-mode terminal event carrying the reader options
// for the next page.
type Choices struct {
	Options []string
}

func (Choices) Kind() string { return "choices" }

// Done is the chat-mode terminal event. ConversationID is set when the
// server created a conversation for a first turn.
type Done struct {
	ConversationID string
}

func (Done) Kind() string { return "done" }

// Failure ends the stream on a server error event, a transport error,
// or the stall watchdog.
type Failure struct {
	Err     error
	Stalled bool
}

func (Failure) Kind() string { return "error" }
