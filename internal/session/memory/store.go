// Package memory provides an in-process session store.
package memory

import (
	"context"
	"sync"

	"github.com/IbrahimJenberu/smart-banking-system/internal/session"
)

// Store keeps the session record in memory. It does not survive a restart.
type Store struct {
	mu  sync.RWMutex
	rec session.Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// NewStoreWith creates a store pre-populated with rec.
func NewStoreWith(rec session.Record) *Store {
	return &Store{rec: rec}
}

// Load returns the stored record.
func (s *Store) Load(_ context.Context) (session.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec, nil
}

// Save replaces both keys.
func (s *Store) Save(_ context.Context, rec session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec
	return nil
}

// Clear removes both keys.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = session.Record{}
	return nil
}
