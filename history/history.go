// Package history persists completed dictations in a local SQLite database.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// maxItems caps the table size. Append prunes the oldest rows past it.
const maxItems = 200

// Item is one completed dictation.
type Item struct {
	ID           string
	Text         string
	OriginalText string // raw transcription, set only when formatting changed it
	CreatedAt    time.Time
	DurationSecs float64
	Language     string
	ModeName     string
}

// Store provides append/read access to the dictation history database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	originalText TEXT,
	createdAt REAL NOT NULL,
	durationSecs REAL,
	language TEXT,
	modeName TEXT
);
CREATE INDEX IF NOT EXISTS items_createdAt ON items(createdAt);
`

// DefaultPath returns the history database path under the user config dir.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "dikt", "history.sqlite")
}

// Open opens the database at path, creating the file and schema if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// In-memory databases exist per connection; a second pooled
	// connection would see an empty schema.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append inserts one item, filling in the id and timestamp when unset, and
// prunes the table back down to the retention cap.
func (s *Store) Append(item Item) error {
	id := item.ID
	if id == "" {
		id = uuid.NewString()
	}
	created := item.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO items (id, text, originalText, createdAt, durationSecs, language, modeName)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, item.Text, nullStr(item.OriginalText), unixFloat(created),
		nullFloat(item.DurationSecs), nullStr(item.Language), nullStr(item.ModeName))
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}

	_, err = s.db.Exec(`
		DELETE FROM items
		WHERE id NOT IN (SELECT id FROM items ORDER BY createdAt DESC, rowid DESC LIMIT ?)
	`, maxItems)
	if err != nil {
		return fmt.Errorf("prune items: %w", err)
	}
	return nil
}

// Recent returns up to n items, newest first.
func (s *Store) Recent(n int) ([]Item, error) {
	rows, err := s.db.Query(`
		SELECT id, text, originalText, createdAt, durationSecs, language, modeName
		FROM items
		ORDER BY createdAt DESC, rowid DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var createdAt float64
		var orig, lang, mode sql.NullString
		var dur sql.NullFloat64
		if err := rows.Scan(&it.ID, &it.Text, &orig, &createdAt, &dur, &lang, &mode); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.CreatedAt = timeFromUnix(createdAt)
		if orig.Valid {
			it.OriginalText = orig.String
		}
		if dur.Valid {
			it.DurationSecs = dur.Float64
		}
		if lang.Valid {
			it.Language = lang.String
		}
		if mode.Valid {
			it.ModeName = mode.String
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Delete removes the item with the given id. Unknown ids are a no-op.
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// Clear removes all items.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM items`); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	return nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

func unixFloat(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
