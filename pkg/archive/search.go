package archive

import (
	"context"
	"time"

	"github.com/papercomputeco/chatvault/pkg/metrics"
	"github.com/papercomputeco/chatvault/pkg/vector"
)

// SearchSimilar embeds text and returns at most limit hits in the order the
// vector index ranked them. A non-positive limit selects DefaultSearchLimit.
func (a *Archiver) SearchSimilar(ctx context.Context, text string, limit int) ([]SearchHit, error) {
	return a.Search(ctx, SearchQuery{Text: text, Limit: limit})
}

// Search is SearchSimilar with optional narrowing.
func (a *Archiver) Search(ctx context.Context, q SearchQuery) ([]SearchHit, error) {
	start := time.Now()

	hits, err := a.search(ctx, q)
	if err != nil {
		a.metrics.RecordFailure(KindName(err))
		a.metrics.RecordSearch(metrics.StatusError, 0, time.Since(start))
		return nil, err
	}

	a.metrics.RecordSearch(metrics.StatusSuccess, len(hits), time.Since(start))
	a.logger.Debug("search completed",
		"limit", q.Limit,
		"source", q.Source,
		"hits", len(hits),
	)
	return hits, nil
}

func (a *Archiver) search(ctx context.Context, q SearchQuery) ([]SearchHit, error) {
	const op = "search"

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	embedding, err := a.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, newError(op, ErrEmbedding, err)
	}

	params := vector.SearchParams{
		Vector:    embedding,
		TopK:      limit,
		Namespace: a.namespace,
	}
	if q.Source != "" {
		params.Filter = map[string]string{MetaSource: q.Source}
	}

	results, err := a.index.Search(ctx, params)
	if err != nil {
		return nil, newError(op, ErrVectorIndex, err)
	}

	if len(results) > limit {
		results = results[:limit]
	}

	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, hitFromResult(r))
	}
	return hits, nil
}

func hitFromResult(r vector.Result) SearchHit {
	return SearchHit{
		ID:            r.ID,
		Title:         r.Metadata[MetaTitle],
		Summary:       r.Metadata[MetaSummary],
		Source:        r.Metadata[MetaSource],
		ReferencePath: r.Metadata[MetaReferencePath],
		ContentKey:    r.Metadata[MetaContentKey],
		Score:         r.Score,
		Embedding:     r.Values,
	}
}
