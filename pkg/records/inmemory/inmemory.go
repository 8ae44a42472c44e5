// Package inmemory provides a map-backed records.Store.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/papercomputeco/chatvault/pkg/records"
)

// Store implements records.Store in memory.
type Store struct {
	// mu guards all fields below
	mu sync.RWMutex

	// byArchiveID maps archive id -> record
	byArchiveID map[string]*records.Record

	// order holds archive ids in save order
	order []string
}

// NewStore creates an empty in-memory record store.
func NewStore() *Store {
	return &Store{
		byArchiveID: make(map[string]*records.Record),
	}
}

// Save appends a copy of record.
func (s *Store) Save(_ context.Context, record *records.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byArchiveID[record.ArchiveID]; ok {
		return fmt.Errorf("%w: %s", records.ErrDuplicate, record.ArchiveID)
	}

	s.byArchiveID[record.ArchiveID] = record.Clone()
	s.order = append(s.order, record.ArchiveID)
	return nil
}

// Get returns the record with the given ArchiveID.
func (s *Store) Get(_ context.Context, archiveID string) (*records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byArchiveID[archiveID]
	if !ok {
		return nil, records.NotFoundError{ID: archiveID}
	}
	return r.Clone(), nil
}

// History returns every record for a conversation id in save order.
func (s *Store) History(_ context.Context, id string) ([]*records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*records.Record{}
	for _, aid := range s.order {
		if r := s.byArchiveID[aid]; r.ID == id {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// Latest returns the most recently saved record for a conversation id.
func (s *Store) Latest(_ context.Context, id string) (*records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		if r := s.byArchiveID[s.order[i]]; r.ID == id {
			return r.Clone(), nil
		}
	}
	return nil, records.NotFoundError{ID: id}
}

// List returns records newest first.
func (s *Store) List(_ context.Context, opts records.ListOptions) ([]*records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*records.Record{}
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.byArchiveID[s.order[i]]
		if opts.Source != "" && r.Source != opts.Source {
			continue
		}
		out = append(out, r.Clone())
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

var _ records.Store = (*Store)(nil)
