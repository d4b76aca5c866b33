package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	project    TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	messages   TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteStore persists sessions in a single SQLite database. The message log
// is stored as a JSON column; the store only promises round-trip fidelity of
// the message sequence.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and initializes) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open session database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize session database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(project string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, messages, created_at, updated_at FROM sessions WHERE project = ?`, project)

	var (
		id, messages, created, updated string
	)
	err := row.Scan(&id, &messages, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not load session for %s: %w", project, err)
	}

	sess := &Session{ID: id, Project: project}
	if err := json.Unmarshal([]byte(messages), &sess.Messages); err != nil {
		return nil, fmt.Errorf("could not parse stored messages for %s: %w", project, err)
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	sess.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return sess, nil
}

func (s *SQLiteStore) Save(sess *Session) error {
	messages, err := json.Marshal(sess.Messages)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (project, id, messages, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(project) DO UPDATE SET
		   id = excluded.id,
		   messages = excluded.messages,
		   updated_at = excluded.updated_at`,
		sess.Project, sess.ID, string(messages),
		sess.CreatedAt.Format(time.RFC3339Nano), sess.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("could not save session for %s: %w", sess.Project, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
