// Package inmemory provides a brute-force cosine similarity vector.Driver held
// entirely in memory.
package inmemory

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/papercomputeco/chatvault/pkg/vector"
)

// Driver implements vector.Driver with a map of entries.
type Driver struct {
	// mu guards entries and order
	mu sync.RWMutex

	entries map[string]vector.Entry

	// order keeps insertion order so equal scores rank deterministically.
	order []string
}

// NewDriver creates an empty in-memory vector driver.
func NewDriver() *Driver {
	return &Driver{
		entries: make(map[string]vector.Entry),
	}
}

func cloneEntry(e vector.Entry) vector.Entry {
	return vector.Entry{
		ID:        e.ID,
		Values:    slices.Clone(e.Values),
		Metadata:  vector.MergeMetadata(e.Metadata, nil),
		Namespace: e.Namespace,
	}
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or their lengths differ.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// Store upserts entries.
func (d *Driver) Store(_ context.Context, entries []vector.Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range entries {
		if _, ok := d.entries[e.ID]; !ok {
			d.order = append(d.order, e.ID)
		}
		d.entries[e.ID] = cloneEntry(e)
	}
	return nil
}

// Search scores every matching entry and returns the best TopK.
func (d *Driver) Search(_ context.Context, params vector.SearchParams) ([]vector.Result, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	results := []vector.Result{}
	for _, id := range d.order {
		e := d.entries[id]
		if !params.Matches(e.Namespace, e.Metadata) {
			continue
		}
		results = append(results, vector.Result{
			Entry: cloneEntry(e),
			Score: Cosine(params.Vector, e.Values),
		})
	}

	slices.SortStableFunc(results, func(a, b vector.Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if limit := params.Limit(); len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Get retrieves entries by their IDs.
func (d *Driver) Get(_ context.Context, ids []string) ([]vector.Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []vector.Entry
	for _, id := range ids {
		if e, ok := d.entries[id]; ok {
			out = append(out, cloneEntry(e))
		}
	}
	return out, nil
}

// Delete removes entries by their IDs.
func (d *Driver) Delete(_ context.Context, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		if _, ok := d.entries[id]; !ok {
			continue
		}
		delete(d.entries, id)
		d.order = slices.DeleteFunc(d.order, func(o string) bool { return o == id })
	}
	return nil
}

// UpdateMetadata merges metadata into an existing entry.
func (d *Driver) UpdateMetadata(_ context.Context, id string, metadata map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", vector.ErrNotFound, id)
	}
	e.Metadata = vector.MergeMetadata(e.Metadata, metadata)
	d.entries[id] = e
	return nil
}

// Len returns the number of stored entries.
func (d *Driver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

var _ vector.Driver = (*Driver)(nil)
