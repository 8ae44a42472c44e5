package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/chatvault/pkg/vector"
)

// ErrMockVector is returned by MockVectorDriver when a Fail flag is set.
var ErrMockVector = errors.New("mock vector failure")

// MockVectorDriver is a test vector driver that records calls and returns
// configurable results.
type MockVectorDriver struct {
	// Stored accumulates all entries passed to Store.
	Stored []vector.Entry

	// Results is returned by Search, truncated to the requested TopK.
	Results []vector.Result

	// Searches records every SearchParams passed to Search.
	Searches []vector.SearchParams

	// Deleted accumulates all ids passed to Delete.
	Deleted []string

	// Updates records the metadata passed to UpdateMetadata by id.
	Updates map[string]map[string]string

	FailStore  bool
	FailSearch bool
	FailDelete bool
	FailUpdate bool

	mu sync.Mutex
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Stored:  make([]vector.Entry, 0),
		Results: make([]vector.Result, 0),
		Updates: make(map[string]map[string]string),
	}
}

func (m *MockVectorDriver) Store(_ context.Context, entries []vector.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailStore {
		return ErrMockVector
	}
	m.Stored = append(m.Stored, entries...)
	return nil
}

func (m *MockVectorDriver) Search(_ context.Context, params vector.SearchParams) ([]vector.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Searches = append(m.Searches, params)
	if m.FailSearch {
		return nil, ErrMockVector
	}

	if limit := params.Limit(); len(m.Results) > limit {
		return m.Results[:limit], nil
	}
	return m.Results, nil
}

func (m *MockVectorDriver) Get(_ context.Context, ids []string) ([]vector.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []vector.Entry
	for _, id := range ids {
		for _, e := range m.Stored {
			if e.ID == id {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDelete {
		return ErrMockVector
	}
	m.Deleted = append(m.Deleted, ids...)
	return nil
}

func (m *MockVectorDriver) UpdateMetadata(_ context.Context, id string, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUpdate {
		return ErrMockVector
	}

	found := false
	for _, e := range m.Stored {
		if e.ID == id {
			found = true
			break
		}
	}
	if !found {
		return vector.ErrNotFound
	}

	m.Updates[id] = metadata
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

var _ vector.Driver = (*MockVectorDriver)(nil)
