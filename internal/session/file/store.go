// Package file persists the session record as a JSON document on local disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/IbrahimJenberu/smart-banking-system/internal/session"
)

// document is the on-disk layout: exactly the two session keys.
type document struct {
	Token string `json:"token,omitempty"`
	User  string `json:"user,omitempty"`
}

// Store keeps the record in a single file. Writes go to a temporary file in the
// same directory and are renamed over the target, so a reader sees either the old
// pair or the new pair.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store at path, creating the parent directory if needed.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("file store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Path returns the file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the record. A missing file is an empty record.
func (s *Store) Load(_ context.Context) (session.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return session.Record{}, nil
	}
	if err != nil {
		return session.Record{}, fmt.Errorf("read session file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return session.Record{}, fmt.Errorf("decode session file: %w", err)
	}
	return session.Record{Token: doc.Token, User: doc.User}, nil
}

// Save atomically replaces both keys.
func (s *Store) Save(_ context.Context, rec session.Record) error {
	data, err := json.Marshal(document{Token: rec.Token, User: rec.User})
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(data)
}

// Clear removes the file. Clearing an absent file succeeds.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *Store) replace(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}
