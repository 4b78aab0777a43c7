// internal/story/pagelog.go
package story

// Entry is one generated unit of narrative, a book page or a chat turn.
type Entry struct {
	Text     string
	ImageURL string
	Pending  bool
}

// PageLog is the ordered sequence of entries for an open book or
// conversation. Insertion order is narrative order: the log only grows
// by append, regeneration rewrites an entry in place, and nothing is
// ever reordered or removed.
type PageLog struct {
	entries []Entry
}

func NewPageLog() *PageLog {
	return &PageLog{}
}

// Load replaces the log with already-finalized entries, used when
// opening a book or conversation fetched from the server.
func (l *PageLog) Load(texts []string) {
	l.entries = make([]Entry, len(texts))
	for i, t := range texts {
		l.entries[i] = Entry{Text: t}
	}
}

// Append pushes an already-complete entry and returns its index. Used
// for entries that are not streamed, such as the user's own turns in a
// conversation.
func (l *PageLog) Append(text string) int {
	l.entries = append(l.entries, Entry{Text: text})
	return len(l.entries) - 1
}

// AppendPending pushes an empty pending entry and returns its index.
// Called exactly once per fresh generation, before the first token.
func (l *PageLog) AppendPending() int {
	l.entries = append(l.entries, Entry{Pending: true})
	return len(l.entries) - 1
}

// ReplacePending re-opens the entry at i for regeneration. The text is
// left untouched until a thinking reset or a token arrives. No-op when
// i is out of range.
func (l *PageLog) ReplacePending(i int) {
	if i < 0 || i >= len(l.entries) {
		return
	}
	l.entries[i].Pending = true
}

// ApplyToken appends token text to the entry at i. No-op when i is out
// of range: the stream outlived its entry, e.g. the book was switched.
func (l *PageLog) ApplyToken(i int, token string) {
	if i < 0 || i >= len(l.entries) {
		return
	}
	l.entries[i].Text += token
}

// ClearText wipes the text of the entry at i. Issued when the server
// signals a thinking restart and the display buffer must reset.
func (l *PageLog) ClearText(i int) {
	if i < 0 || i >= len(l.entries) {
		return
	}
	l.entries[i].Text = ""
}

// Finalize marks the entry at i as no longer pending. Idempotent.
func (l *PageLog) Finalize(i int) {
	if i < 0 || i >= len(l.entries) {
		return
	}
	l.entries[i].Pending = false
}

// SetImage records the illustration URL for the entry at i. The URL is
// set at most once and never while the entry is still streaming.
func (l *PageLog) SetImage(i int, url string) {
	if i < 0 || i >= len(l.entries) {
		return
	}
	if l.entries[i].Pending || l.entries[i].ImageURL != "" {
		return
	}
	l.entries[i].ImageURL = url
}

// Len returns the number of entries.
func (l *PageLog) Len() int {
	return len(l.entries)
}

// Entry returns a copy of the entry at i.
func (l *PageLog) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(l.entries) {
		return Entry{}, false
	}
	return l.entries[i], true
}

// LastIndex returns the index of the newest entry, or -1 when empty.
func (l *PageLog) LastIndex() int {
	return len(l.entries) - 1
}

// Texts returns the text of every entry in order.
func (l *PageLog) Texts() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Text
	}
	return out
}
