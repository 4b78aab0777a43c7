// internal/story/history.go
package story

// History records the choice used to generate each entry, in entry
// order. It stays in lockstep with the PageLog: one recorded choice per
// generated entry. The opening page of a book is generated without a
// choice and is recorded as the empty string.
type History struct {
	used []string
}

func NewHistory() *History {
	return &History{}
}

// Load replaces the history with the choices recorded by the server,
// used when opening an existing book.
func (h *History) Load(used []string) {
	h.used = append([]string(nil), used...)
}

// Record appends the choice used for a newly generated entry.
func (h *History) Record(choice string) {
	h.used = append(h.used, choice)
}

// ReplaceLast overwrites the newest recorded choice. A regeneration
// with a custom prompt records the prompt in place of the original
// choice, so a later plain regeneration reuses it.
func (h *History) ReplaceLast(choice string) {
	if len(h.used) == 0 {
		return
	}
	h.used[len(h.used)-1] = choice
}

// Last returns the choice used for the newest entry. ok is false when
// nothing was generated yet or the newest entry is an opening page,
// which has no choice to reuse.
func (h *History) Last() (string, bool) {
	if len(h.used) == 0 {
		return "", false
	}
	last := h.used[len(h.used)-1]
	return last, last != ""
}

// At returns the choice recorded for entry i, or "" when out of range.
func (h *History) At(i int) string {
	if i < 0 || i >= len(h.used) {
		return ""
	}
	return h.used[i]
}

// Len returns the number of recorded choices.
func (h *History) Len() int {
	return len(h.used)
}
