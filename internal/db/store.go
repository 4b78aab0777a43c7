// internal/db/store.go
package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
}

// Recent is a locally remembered book or conversation: what it was,
// where the reader left off, and when it was last opened. The server
// owns the content; this table only restores the reader's place.
type Recent struct {
	ID         string
	Title      string
	Mode       string // story, chat
	LastPage   int
	LastOpened time.Time
}

func Open() (*Store, error) {
	dataDir, err := dataDir()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, "fable.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func dataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "fable"), nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT 'story',
		last_page INTEGER NOT NULL DEFAULT 0,
		last_opened_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_recents_opened ON recents(last_opened_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Touch records that a book or conversation was just opened, creating
// the row on first sight and refreshing title, mode and timestamp on
// every later visit.
func (s *Store) Touch(id, title, mode string) error {
	_, err := s.db.Exec(
		`INSERT INTO recents (id, title, mode) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   mode = excluded.mode,
		   last_opened_at = CURRENT_TIMESTAMP`,
		id, title, mode,
	)
	return err
}

// SetPosition remembers the page the reader is on. No-op for unknown
// ids: a position without a Touch is meaningless.
func (s *Store) SetPosition(id string, page int) error {
	_, err := s.db.Exec(
		`UPDATE recents SET last_page = ? WHERE id = ?`,
		page, id,
	)
	return err
}

// Rename keeps the remembered title in sync after a server-side rename.
func (s *Store) Rename(id, title string) error {
	_, err := s.db.Exec(
		`UPDATE recents SET title = ? WHERE id = ?`,
		title, id,
	)
	return err
}

// ListRecents returns the most recently opened entries, newest first.
func (s *Store) ListRecents(limit int) ([]Recent, error) {
	rows, err := s.db.Query(
		`SELECT id, title, mode, last_page, last_opened_at
		 FROM recents ORDER BY last_opened_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recents []Recent
	for rows.Next() {
		var r Recent
		if err := rows.Scan(&r.ID, &r.Title, &r.Mode, &r.LastPage, &r.LastOpened); err != nil {
			return nil, err
		}
		recents = append(recents, r)
	}
	return recents, rows.Err()
}

// Remove forgets a deleted book or conversation.
func (s *Store) Remove(id string) error {
	_, err := s.db.Exec(`DELETE FROM recents WHERE id = ?`, id)
	return err
}
