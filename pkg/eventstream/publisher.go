package eventstream

import "context"

// Publisher publishes archive events to an event stream backend.
type Publisher interface {
	PublishArchived(ctx context.Context, event *ConversationArchivedEvent) error
	Close() error
}
