// Package hashing implements an offline, deterministic Embedder using the
// hashing trick: every lower-cased word is hashed into one of N buckets with a
// signed weight and the resulting vector is L2 normalized. Texts that share
// vocabulary land close together under cosine similarity, which is enough for
// local use and tests without a model server.
package hashing

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/papercomputeco/chatvault/pkg/embeddings"
)

// DefaultDimensions matches the vector size of common hosted models.
const DefaultDimensions = 1536

var word = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Embedder is a feature hashing embedder.
type Embedder struct {
	dimensions int
}

// NewEmbedder creates a hashing embedder producing vectors of the given size.
// A non-positive size selects DefaultDimensions.
func NewEmbedder(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Embed converts text into a normalized hashed bag-of-words vector.
// Text without any words yields the zero vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(embeddings.ErrEmbedding, err)
	}

	vec := make([]float32, e.dimensions)
	for _, w := range word.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New64a()
		h.Write([]byte(w))
		sum := h.Sum64()

		idx := sum % uint64(e.dimensions)
		sign := float32(1)
		if sum>>63 == 1 {
			sign = -1
		}
		vec[idx] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}

	return vec, nil
}

// Close is a no-op.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
