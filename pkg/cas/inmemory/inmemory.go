// Package inmemory provides a map-backed cas.Store for tests and ephemeral runs.
package inmemory

import (
	"context"
	"sync"

	"github.com/papercomputeco/chatvault/pkg/cas"
)

const scheme = "mem://"

// Store implements cas.Store using an in-memory map.
type Store struct {
	// mu guards contents
	mu sync.RWMutex

	// contents maps content key -> turns
	contents map[string][]cas.Turn
}

// NewStore creates an empty in-memory content store.
func NewStore() *Store {
	return &Store{
		contents: make(map[string][]cas.Turn),
	}
}

// Put stores a copy of turns under key. Re-putting an existing key is a no-op.
func (s *Store) Put(_ context.Context, key string, turns []cas.Turn) error {
	if err := cas.CheckKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contents[key]; ok {
		return nil
	}

	s.contents[key] = cas.CloneTurns(turns)
	return nil
}

// Get retrieves the turns stored under key.
func (s *Store) Get(_ context.Context, key string) ([]cas.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.contents[key]
	if !ok {
		return nil, cas.NotFoundError{Key: key}
	}

	return cas.CloneTurns(turns), nil
}

// Has checks whether content exists under key.
func (s *Store) Has(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.contents[key]
	return ok, nil
}

// Locate returns a mem:// locator for key.
func (s *Store) Locate(key string) string {
	return scheme + key
}

// Remove deletes content out-of-band. Used to simulate external removal.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contents, key)
}

// Count returns the number of distinct content keys held.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contents)
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

var _ cas.Store = (*Store)(nil)
