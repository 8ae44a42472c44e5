// Package vector defines the vector index contract and its drivers.
package vector

import "context"

// DefaultTopK is used when a search does not ask for a positive TopK.
const DefaultTopK = 10

// Entry is one vector registered in the index.
//
// IDs are unique across the whole index; Namespace is an attribute used to
// scope searches, not part of the identity.
type Entry struct {
	// ID identifies the entry (the conversation id).
	ID string

	// Values is the embedding.
	Values []float32

	// Metadata is flat string side data returned with search results.
	Metadata map[string]string

	// Namespace scopes searches. It does not scope the ID: storing an ID that
	// already exists in another namespace replaces that entry.
	Namespace string
}

// Result is a search hit with its similarity score.
type Result struct {
	Entry

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// SearchParams describes a nearest neighbor query.
type SearchParams struct {
	// Vector is the query embedding.
	Vector []float32

	// TopK bounds the number of results. Non-positive selects DefaultTopK.
	TopK int

	// Filter keeps only entries whose metadata has every key with exactly the
	// given value.
	Filter map[string]string

	// Namespace, when set, keeps only entries in that namespace.
	Namespace string
}

// Driver handles storage and similarity search of vector entries.
// Implementations must be safe for concurrent use.
type Driver interface {
	// Store upserts entries by ID.
	Store(ctx context.Context, entries []Entry) error

	// Search returns at most TopK entries ordered best-first by the metric the
	// index was configured with.
	Search(ctx context.Context, params SearchParams) ([]Result, error)

	// Get retrieves entries by their IDs. Missing IDs are skipped.
	Get(ctx context.Context, ids []string) ([]Entry, error)

	// Delete removes entries by their IDs. Missing IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// UpdateMetadata merges metadata into the entry's existing metadata.
	// Returns ErrNotFound when the entry does not exist.
	UpdateMetadata(ctx context.Context, id string, metadata map[string]string) error

	// Close releases any resources held by the driver.
	Close() error
}

// Limit returns the effective result bound for p.
func (p SearchParams) Limit() int {
	if p.TopK <= 0 {
		return DefaultTopK
	}
	return p.TopK
}

// Matches reports whether an entry with the given namespace and metadata
// passes the namespace and filter of p.
func (p SearchParams) Matches(namespace string, metadata map[string]string) bool {
	if p.Namespace != "" && p.Namespace != namespace {
		return false
	}
	for k, v := range p.Filter {
		if got, ok := metadata[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// Narrowed reports whether p restricts results beyond plain similarity.
func (p SearchParams) Narrowed() bool {
	return p.Namespace != "" || len(p.Filter) > 0
}

// MergeMetadata returns a copy of base with update applied on top.
func MergeMetadata(base, update map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(update))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}
