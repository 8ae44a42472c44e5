// Package records persists archived conversation metadata. The store is
// append-only: archiving a conversation id again appends a new record.
package records

import (
	"context"
	"slices"
	"time"
)

// Record is the durable summary of one archived conversation.
type Record struct {
	// ArchiveID uniquely identifies this archival of the conversation.
	ArchiveID string `json:"archive_id"`

	// ID is the platform-scoped conversation id.
	ID string `json:"id"`

	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Topics    []string `json:"topics"`
	KeyPoints []string `json:"key_points"`
	Source    string   `json:"source"`

	// Timestamp is when the conversation was scraped, as reported by the source.
	Timestamp string `json:"timestamp"`

	MessageCount int       `json:"message_count"`
	TokenCount   int       `json:"token_count"`
	Embedding    []float32 `json:"embedding"`

	// ReferencePath locates the archived turns in the content store.
	ReferencePath string `json:"reference_path"`

	// ContentKey is the content hash the reference path was derived from.
	ContentKey string `json:"content_key"`

	// ArchivedAt is when the record was created.
	ArchivedAt time.Time `json:"archived_at"`
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Topics = slices.Clone(r.Topics)
	c.KeyPoints = slices.Clone(r.KeyPoints)
	c.Embedding = slices.Clone(r.Embedding)
	return &c
}

// ListOptions narrows List results.
type ListOptions struct {
	// Source keeps only records from this platform when set.
	Source string

	// Limit bounds the number of records returned. Zero means no limit.
	Limit int
}

// Store persists metadata records.
type Store interface {
	// Save appends a record. Saving an ArchiveID twice is an error.
	Save(ctx context.Context, record *Record) error

	// Get returns the record with the given ArchiveID.
	Get(ctx context.Context, archiveID string) (*Record, error)

	// History returns every record for a conversation id, oldest first.
	// Returns an empty slice when the id was never archived.
	History(ctx context.Context, id string) ([]*Record, error)

	// Latest returns the newest record for a conversation id.
	Latest(ctx context.Context, id string) (*Record, error)

	// List returns records newest first.
	List(ctx context.Context, opts ListOptions) ([]*Record, error)

	// Close releases any resources held by the store.
	Close() error
}
