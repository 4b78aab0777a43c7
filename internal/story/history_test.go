package story

import "testing"

func TestHistory_EmptyHasNoLast(t *testing.T) {
	h := NewHistory()
	if _, ok := h.Last(); ok {
		t.Error("empty history should have no last choice")
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestHistory_OpeningPageHasNoReusableChoice(t *testing.T) {
	h := NewHistory()
	h.Record("")
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
	if _, ok := h.Last(); ok {
		t.Error("opening page should not offer a reusable choice")
	}
}

func TestHistory_RecordAndLast(t *testing.T) {
	h := NewHistory()
	h.Record("")
	h.Record("Enter the cave")

	last, ok := h.Last()
	if !ok {
		t.Fatal("expected a reusable last choice")
	}
	if last != "Enter the cave" {
		t.Errorf("Last() = %q, want %q", last, "Enter the cave")
	}
	if got := h.At(0); got != "" {
		t.Errorf("At(0) = %q, want empty", got)
	}
	if got := h.At(1); got != "Enter the cave" {
		t.Errorf("At(1) = %q", got)
	}
}

func TestHistory_ReplaceLast(t *testing.T) {
	h := NewHistory()
	h.ReplaceLast("ignored") // no entries yet

	h.Record("")
	h.Record("Run away")
	h.ReplaceLast("Stand and fight, but quietly")

	last, ok := h.Last()
	if !ok || last != "Stand and fight, but quietly" {
		t.Errorf("Last() = %q, %v", last, ok)
	}
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
}

func TestHistory_Load(t *testing.T) {
	h := NewHistory()
	h.Record("stale")
	h.Load([]string{"", "Open the door", "Take the lantern"})

	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}
	last, ok := h.Last()
	if !ok || last != "Take the lantern" {
		t.Errorf("Last() = %q, %v", last, ok)
	}
}

func TestHistory_AtOutOfRange(t *testing.T) {
	h := NewHistory()
	h.Record("x")
	if got := h.At(-1); got != "" {
		t.Errorf("At(-1) = %q, want empty", got)
	}
	if got := h.At(1); got != "" {
		t.Errorf("At(1) = %q, want empty", got)
	}
}
