package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/orvn/orvi/backend/internal/model/chat"
	"github.com/orvn/orvi/backend/internal/model/newsletter"
)

// SQLite backs the message log and subscriber list with a single database
// file. WAL keeps concurrent appends across sessions cheap; synchronous=FULL
// keeps the append-is-durable-before-return contract honest.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path, ensuring the parent
// directory exists, and initializes the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=FULL")
	if err != nil {
		return nil, fmt.Errorf("failed to open db at %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db at %s: %w", path, err)
	}

	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at INTEGER NOT NULL DEFAULT (unixepoch())
		);
		CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages(session_id, id);

		CREATE TABLE IF NOT EXISTS subscribers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			created_at INTEGER NOT NULL DEFAULT (unixepoch())
		);
	`)
	return err
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Append writes one turn to the session log. The row is durable when this
// returns; there is no in-memory buffering.
func (s *SQLite) Append(ctx context.Context, sessionID, role, text string) (chat.Message, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, text, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, role, text, now.Unix(),
	)
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: append: %v", ErrStoreUnavailable, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: append id: %v", ErrStoreUnavailable, err)
	}

	return chat.Message{
		ID:        id,
		SessionID: sessionID,
		Role:      role,
		Text:      text,
		CreatedAt: now.Truncate(time.Second),
	}, nil
}

// ReadRecent returns the most recent limit messages for a session in
// chronological order. Insertion order (rowid) breaks created_at ties, which
// matters because both turns of an exchange usually land in the same second.
func (s *SQLite) ReadRecent(ctx context.Context, sessionID string, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		return []chat.Message{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, text, created_at FROM messages
		 WHERE session_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	messages := make([]chat.Message, 0, limit)
	for rows.Next() {
		var m chat.Message
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrStoreUnavailable, err)
		}
		m.CreatedAt = time.Unix(createdAt, 0).UTC()
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrStoreUnavailable, err)
	}

	// The query walks newest-first to apply the limit; callers want
	// oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// AddSubscriber inserts a newsletter signup, reporting ErrAlreadySubscribed
// on a duplicate email.
func (s *SQLite) AddSubscriber(ctx context.Context, email string) (newsletter.Subscriber, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers (email, created_at) VALUES (?, ?)`,
		email, now.Unix(),
	)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return newsletter.Subscriber{}, ErrAlreadySubscribed
		}
		return newsletter.Subscriber{}, fmt.Errorf("%w: subscribe: %v", ErrStoreUnavailable, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return newsletter.Subscriber{}, fmt.Errorf("%w: subscribe id: %v", ErrStoreUnavailable, err)
	}

	return newsletter.Subscriber{ID: id, Email: email, CreatedAt: now.Truncate(time.Second)}, nil
}
