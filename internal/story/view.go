// internal/story/view.go
package story

// ViewState is the read cursor over a PageLog, decoupled from
// generation: the user can browse backward while the newest entry is
// still streaming. The cursor stays in [0, length-1] once an entry
// exists; -1 is the sentinel for an empty log.
type ViewState struct {
	cursor int
}

func NewViewState() ViewState {
	return ViewState{cursor: -1}
}

// Cursor returns the current position, -1 when nothing exists.
func (v *ViewState) Cursor() int {
	return v.cursor
}

// Prev moves the cursor back one entry, flooring at 0.
func (v *ViewState) Prev() {
	if v.cursor > 0 {
		v.cursor--
	}
}

// Next moves the cursor forward one entry, ceiling at length-1.
func (v *ViewState) Next(length int) {
	if v.cursor < length-1 {
		v.cursor++
	}
}

// Select jumps directly to i. Ignored unless an entry exists there.
func (v *ViewState) Select(i, length int) {
	if i >= 0 && i < length {
		v.cursor = i
	}
}

// Clamp repairs the cursor after the log changed size: an empty log
// resets to the sentinel, a cursor past the end snaps to the last
// entry, and a sentinel cursor adopts the first entry.
func (v *ViewState) Clamp(length int) {
	switch {
	case length == 0:
		v.cursor = -1
	case v.cursor < 0:
		v.cursor = 0
	case v.cursor >= length:
		v.cursor = length - 1
	}
}

// AtLast reports whether the cursor sits on the newest entry.
func (v *ViewState) AtLast(length int) bool {
	return length > 0 && v.cursor == length-1
}
