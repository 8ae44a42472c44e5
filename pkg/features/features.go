// Package features derives cheap, deterministic descriptors from a turn
// sequence: an extractive summary, frequent topics, list-style key points and
// an approximate token count. None of the derivations call external models.
package features

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/chatvault/pkg/cas"
)

const (
	// SummarySentences is the number of top-scoring units kept in a summary.
	SummarySentences = 3

	// MaxTopics bounds the topic list.
	MaxTopics = 5

	// MaxKeyPoints bounds the key point list.
	MaxKeyPoints = 10
)

// Set holds every feature derived from one turn sequence.
type Set struct {
	Summary    string   `json:"summary"`
	Topics     []string `json:"topics"`
	KeyPoints  []string `json:"key_points"`
	TokenCount int      `json:"token_count"`
}

// Extract runs the four derivations concurrently and joins on their results.
// The derivations are pure, so the only error Extract can return is the
// context's.
func Extract(ctx context.Context, turns []cas.Turn) (Set, error) {
	var set Set

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		set.Summary = Summary(turns)
		return gctx.Err()
	})
	g.Go(func() error {
		set.Topics = Topics(turns)
		return gctx.Err()
	})
	g.Go(func() error {
		set.KeyPoints = KeyPoints(turns)
		return gctx.Err()
	})
	g.Go(func() error {
		set.TokenCount = TokenCount(turns)
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return Set{}, err
	}

	return set, nil
}

// joinContents concatenates every turn's content with a single space.
func joinContents(turns []cas.Turn) string {
	parts := make([]string, len(turns))
	for i, t := range turns {
		parts[i] = t.Content
	}
	return strings.Join(parts, " ")
}
