package testutils

import (
	"context"
	"errors"

	"github.com/papercomputeco/chatvault/pkg/cas"
	"github.com/papercomputeco/chatvault/pkg/cas/inmemory"
)

// ErrMockContent is returned by MockContentStore when FailPut is set.
var ErrMockContent = errors.New("mock content store unavailable")

// MockContentStore wraps the in-memory content store with failure injection.
type MockContentStore struct {
	*inmemory.Store

	// FailPut causes Put to return ErrMockContent without storing anything.
	FailPut bool
}

func NewMockContentStore() *MockContentStore {
	return &MockContentStore{Store: inmemory.NewStore()}
}

func (m *MockContentStore) Put(ctx context.Context, key string, turns []cas.Turn) error {
	if m.FailPut {
		return ErrMockContent
	}
	return m.Store.Put(ctx, key, turns)
}

var _ cas.Store = (*MockContentStore)(nil)
