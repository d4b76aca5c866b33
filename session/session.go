package session

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Session holds the transcript for one project. The message log is
// append-only during a run; ordering is the single source of truth for what
// the model has seen.
type Session struct {
	ID        string    `json:"id"`
	Project   string    `json:"project"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	store Store
}

// New creates an empty session for the given project identity.
func New(project string, store Store) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Project:   project,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
		store:     store,
	}
}

// Resume loads the stored session for a project, or starts a fresh one when
// none exists.
func Resume(project string, store Store) (*Session, error) {
	s, err := store.Load(project)
	if err == ErrNotFound {
		return New(project, store), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not resume session for %s: %w", project, err)
	}
	s.store = store
	return s, nil
}

// AddMessage appends a message to the transcript.
func (s *Session) AddMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now().UTC()
}

// Save writes the current state through the configured store.
func (s *Session) Save() error {
	if s.store == nil {
		return nil
	}
	return s.store.Save(s)
}

// ProjectID derives a stable session key from a working directory. The
// basename keeps the key readable, the hash keeps same-named directories
// apart.
func ProjectID(workdir string) string {
	abs, err := filepath.Abs(workdir)
	if err != nil {
		abs = workdir
	}
	sum := sha256.Sum256([]byte(abs))
	return fmt.Sprintf("%s-%x", filepath.Base(abs), sum[:4])
}
