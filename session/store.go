package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by a Store when no session exists for a project.
var ErrNotFound = errors.New("session not found")

// Store persists and restores transcripts keyed by project identity.
type Store interface {
	Load(project string) (*Session, error)
	Save(s *Session) error
}

// FileStore keeps one pretty-printed JSON file per project.
type FileStore struct {
	dir string
}

// NewFileStore creates the session directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create session directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(project string) string {
	return filepath.Join(f.dir, project+".json")
}

func (f *FileStore) Load(project string) (*Session, error) {
	data, err := os.ReadFile(f.path(project))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("could not parse session file %s: %w", f.path(project), err)
	}
	return &s, nil
}

func (f *FileStore) Save(s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	return os.WriteFile(f.path(s.Project), data, 0644)
}
