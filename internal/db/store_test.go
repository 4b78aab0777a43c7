// internal/db/store_test.go
package db

import (
	"os"
	"testing"
)

func TestStore(t *testing.T) {
	// Use temp dir for test
	os.Setenv("XDG_DATA_HOME", t.TempDir())

	store, err := Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Test touch creates a row
	err = store.Touch("book-1", "The Last Door", "story")
	if err != nil {
		t.Fatalf("Touch() failed: %v", err)
	}

	recents, err := store.ListRecents(10)
	if err != nil {
		t.Fatalf("ListRecents() failed: %v", err)
	}
	if len(recents) != 1 {
		t.Fatalf("Expected 1 recent, got %d", len(recents))
	}
	if recents[0].Title != "The Last Door" {
		t.Errorf("Expected title 'The Last Door', got %s", recents[0].Title)
	}
	if recents[0].Mode != "story" {
		t.Errorf("Expected mode 'story', got %s", recents[0].Mode)
	}
	if recents[0].LastPage != 0 {
		t.Errorf("Expected last page 0, got %d", recents[0].LastPage)
	}

	// Test touch again updates instead of duplicating
	err = store.Touch("book-1", "The Last Door, Revised", "story")
	if err != nil {
		t.Fatalf("Touch() upsert failed: %v", err)
	}
	recents, err = store.ListRecents(10)
	if err != nil {
		t.Fatalf("ListRecents() after upsert failed: %v", err)
	}
	if len(recents) != 1 {
		t.Errorf("Expected 1 recent after upsert, got %d", len(recents))
	}
	if recents[0].Title != "The Last Door, Revised" {
		t.Errorf("Expected updated title, got %s", recents[0].Title)
	}

	// Test reading position
	err = store.SetPosition("book-1", 4)
	if err != nil {
		t.Fatalf("SetPosition() failed: %v", err)
	}
	recents, err = store.ListRecents(10)
	if err != nil {
		t.Fatalf("ListRecents() after SetPosition failed: %v", err)
	}
	if recents[0].LastPage != 4 {
		t.Errorf("Expected last page 4, got %d", recents[0].LastPage)
	}

	// SetPosition for an unknown id is a no-op, not an error
	err = store.SetPosition("ghost", 9)
	if err != nil {
		t.Fatalf("SetPosition() on unknown id failed: %v", err)
	}
	recents, _ = store.ListRecents(10)
	if len(recents) != 1 {
		t.Errorf("Expected 1 recent after ghost position, got %d", len(recents))
	}

	// A chat conversation lives alongside books
	err = store.Touch("conv-1", "Captain Vale", "chat")
	if err != nil {
		t.Fatalf("Touch() chat failed: %v", err)
	}
	recents, err = store.ListRecents(10)
	if err != nil {
		t.Fatalf("ListRecents() with chat failed: %v", err)
	}
	if len(recents) != 2 {
		t.Fatalf("Expected 2 recents, got %d", len(recents))
	}

	// Test limit
	recents, err = store.ListRecents(1)
	if err != nil {
		t.Fatalf("ListRecents(1) failed: %v", err)
	}
	if len(recents) != 1 {
		t.Errorf("Expected 1 recent with limit 1, got %d", len(recents))
	}

	// Test rename
	err = store.Rename("book-1", "The Final Door")
	if err != nil {
		t.Fatalf("Rename() failed: %v", err)
	}
	recents, _ = store.ListRecents(10)
	var found bool
	for _, r := range recents {
		if r.ID == "book-1" {
			found = true
			if r.Title != "The Final Door" {
				t.Errorf("Expected renamed title, got %s", r.Title)
			}
		}
	}
	if !found {
		t.Error("book-1 missing after rename")
	}

	// Test remove
	err = store.Remove("book-1")
	if err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	recents, err = store.ListRecents(10)
	if err != nil {
		t.Fatalf("ListRecents() after remove failed: %v", err)
	}
	if len(recents) != 1 {
		t.Errorf("Expected 1 recent after removal, got %d", len(recents))
	}
	if recents[0].ID != "conv-1" {
		t.Errorf("Expected conv-1 to survive, got %s", recents[0].ID)
	}
}
