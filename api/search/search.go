// Package search provides shared search types and logic for semantic search
// over archived conversations. It is used by both the REST API endpoint and
// the MCP server tool.
package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/papercomputeco/chatvault/pkg/archive"
)

// ErrEmptyQuery is returned when the query text is blank.
var ErrEmptyQuery = errors.New("query is required")

// Index is the part of the archive that answers similarity queries.
type Index interface {
	Search(ctx context.Context, q archive.SearchQuery) ([]archive.SearchHit, error)
}

// Input represents the input arguments for a search request.
type Input struct {
	Query  string `json:"query" jsonschema:"the search query text to find relevant conversations"`
	TopK   int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 5)"`
	Source string `json:"source,omitempty" jsonschema:"only return conversations from this platform, e.g. claude or chatgpt"`
}

// Output represents the output of a search operation.
// Embedding vectors are left out of the results.
type Output struct {
	Query   string              `json:"query"`
	Results []archive.SearchHit `json:"results"`
	Count   int                 `json:"count"`
}

// Searcher runs searches against an Index.
type Searcher struct {
	index  Index
	logger *slog.Logger
}

// NewSearcher creates a Searcher.
func NewSearcher(index Index, logger *slog.Logger) *Searcher {
	return &Searcher{
		index:  index,
		logger: logger,
	}
}

// Search embeds the query text and returns the closest archived conversations.
func (s *Searcher) Search(ctx context.Context, in Input) (*Output, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	topK := in.TopK
	if topK <= 0 {
		topK = archive.DefaultSearchLimit
	}

	s.logger.Debug("search request",
		"query", query,
		"top_k", topK,
		"source", in.Source,
	)

	hits, err := s.index.Search(ctx, archive.SearchQuery{
		Text:   query,
		Limit:  topK,
		Source: in.Source,
	})
	if err != nil {
		return nil, err
	}

	results := make([]archive.SearchHit, 0, len(hits))
	for _, hit := range hits {
		hit.Embedding = nil
		results = append(results, hit)
	}

	return &Output{
		Query:   query,
		Results: results,
		Count:   len(results),
	}, nil
}
