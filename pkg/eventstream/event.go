package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeConversationArchived is emitted after a conversation is archived.
	EventTypeConversationArchived = "chatvault.conversation.archived"
)

// ConversationArchivedEvent is a transport-neutral event payload for an
// archived conversation. It carries the record's descriptors but not the
// embedding or the turns; consumers resolve content through ReferencePath.
type ConversationArchivedEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Source        EventSource  `json:"source"`
	Record        EventRecord  `json:"record"`
	Content       EventContent `json:"content"`
}

// EventSource identifies where the conversation originated.
type EventSource struct {
	Platform  string `json:"platform"`
	ScrapedAt string `json:"scraped_at,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// EventRecord captures the metadata record created by the archive.
type EventRecord struct {
	ArchiveID    string    `json:"archive_id"`
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Topics       []string  `json:"topics"`
	KeyPoints    []string  `json:"key_points"`
	MessageCount int       `json:"message_count"`
	TokenCount   int       `json:"token_count"`
	ArchivedAt   time.Time `json:"archived_at"`
}

// EventContent locates the archived turns.
type EventContent struct {
	Key           string `json:"key"`
	ReferencePath string `json:"reference_path"`
	Dimensions    int    `json:"dimensions"`
}

// NewConversationArchivedEvent stamps a v1 event with a fresh id and time.
func NewConversationArchivedEvent(source EventSource, record EventRecord, content EventContent) *ConversationArchivedEvent {
	return &ConversationArchivedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeConversationArchived,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Record:        record,
		Content:       content,
	}
}
