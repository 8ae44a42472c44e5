package archive_test

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/cas"
	"github.com/papercomputeco/chatvault/pkg/eventstream"
	"github.com/papercomputeco/chatvault/pkg/records"
	recordsinmemory "github.com/papercomputeco/chatvault/pkg/records/inmemory"
	testutils "github.com/papercomputeco/chatvault/pkg/utils/test"
)

var (
	errSaveFailed = errors.New("save failed")
	errReadFailed = errors.New("connection refused")
)

// failingRecords is an in-memory record store whose Save and reads can be
// made to fail.
type failingRecords struct {
	*recordsinmemory.Store
	failSave bool
	failRead bool
}

func (f *failingRecords) History(ctx context.Context, id string) ([]*records.Record, error) {
	if f.failRead {
		return nil, errReadFailed
	}
	return f.Store.History(ctx, id)
}

func (f *failingRecords) List(ctx context.Context, opts records.ListOptions) ([]*records.Record, error) {
	if f.failRead {
		return nil, errReadFailed
	}
	return f.Store.List(ctx, opts)
}

func (f *failingRecords) Save(ctx context.Context, rec *records.Record) error {
	if f.failSave {
		return errSaveFailed
	}
	return f.Store.Save(ctx, rec)
}

// capturingPublisher records every published event.
type capturingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.ConversationArchivedEvent
	err    error
}

func (p *capturingPublisher) PublishArchived(_ context.Context, event *eventstream.ConversationArchivedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func (p *capturingPublisher) Events() []*eventstream.ConversationArchivedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*eventstream.ConversationArchivedEvent{}, p.events...)
}

// c1 is the vector store conversation used across specs.
func c1() archive.Conversation {
	return archive.Conversation{
		ID:    "c1",
		Title: "T",
		Turns: []cas.Turn{
			testutils.NewTestTurn("user", "How do I implement a vector store?"),
			testutils.NewTestTurn("assistant", "1. Choose an embedding model\n2. Set up a database"),
		},
		Source:    "claude",
		ScrapedAt: "2025-02-08T12:00:00Z",
	}
}
