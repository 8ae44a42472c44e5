// Package archive is the archival orchestrator. It turns a raw conversation
// into a content-addressed transcript, a metadata record and a vector entry,
// and answers similarity searches over what it archived.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/chatvault/pkg/cas"
	"github.com/papercomputeco/chatvault/pkg/embeddings"
	"github.com/papercomputeco/chatvault/pkg/eventstream"
	"github.com/papercomputeco/chatvault/pkg/features"
	"github.com/papercomputeco/chatvault/pkg/logger"
	"github.com/papercomputeco/chatvault/pkg/metrics"
	"github.com/papercomputeco/chatvault/pkg/records"
	"github.com/papercomputeco/chatvault/pkg/vector"
)

// Config wires an Archiver to its collaborators.
type Config struct {
	// Store holds archived turns. Required.
	Store cas.Store

	// Embedder embeds summaries and search queries. Required.
	Embedder embeddings.Embedder

	// VectorDriver indexes summary embeddings. Required.
	VectorDriver vector.Driver

	// Records persists metadata records. Optional.
	Records records.Store

	// Publisher receives an event after each successful archive. Optional.
	Publisher eventstream.Publisher

	// Metrics is optional.
	Metrics *metrics.Metrics

	// Namespace scopes vector entries and searches. Optional.
	Namespace string

	// Logger defaults to a no-op logger.
	Logger *slog.Logger
}

// Archiver coordinates archival and retrieval. It holds no mutable state and
// is safe for concurrent use as long as its collaborators are.
type Archiver struct {
	store     cas.Store
	embedder  embeddings.Embedder
	index     vector.Driver
	records   records.Store
	publisher eventstream.Publisher
	metrics   *metrics.Metrics
	namespace string
	logger    *slog.Logger
}

// NewArchiver validates c and builds an Archiver.
func NewArchiver(c Config) (*Archiver, error) {
	if c.Store == nil {
		return nil, errors.New("content store is required")
	}
	if c.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if c.VectorDriver == nil {
		return nil, errors.New("vector driver is required")
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Archiver{
		store:     c.Store,
		embedder:  c.Embedder,
		index:     c.VectorDriver,
		records:   c.Records,
		publisher: c.Publisher,
		metrics:   c.Metrics,
		namespace: c.Namespace,
		logger:    log,
	}, nil
}

// Archive runs the archival pipeline for one conversation and returns the
// resulting record. Either every write the record depends on succeeded, or
// Archive fails and returns no record.
func (a *Archiver) Archive(ctx context.Context, conv Conversation) (*MetadataRecord, error) {
	start := time.Now()

	rec, dedup, err := a.archive(ctx, conv)
	if err != nil {
		a.metrics.RecordFailure(KindName(err))
		a.metrics.RecordArchive(conv.Source, metrics.StatusError, time.Since(start), 0, false)
		a.logger.Error("archive failed",
			"id", conv.ID,
			"source", conv.Source,
			"kind", KindName(err),
			"error", err,
		)
		return nil, err
	}

	a.metrics.RecordArchive(conv.Source, metrics.StatusSuccess, time.Since(start), rec.TokenCount, dedup)
	a.logger.Info("conversation archived",
		"id", rec.ID,
		"archive_id", rec.ArchiveID,
		"content_key", rec.ContentKey,
		"messages", rec.MessageCount,
		"dedup", dedup,
	)

	a.publish(ctx, conv, rec)
	return rec, nil
}

func (a *Archiver) archive(ctx context.Context, conv Conversation) (*MetadataRecord, bool, error) {
	const op = "archive"

	if conv.ID == "" {
		return nil, false, newError(op, ErrInvalidInput, errors.New("conversation id is empty"))
	}
	if conv.Source == "" {
		return nil, false, newError(op, ErrInvalidInput, errors.New("conversation source is empty"))
	}

	if err := cas.ValidateTurns(conv.Turns); err != nil {
		return nil, false, newError(op, ErrInvalidInput, err)
	}

	turns := cas.CloneTurns(conv.Turns)
	key := cas.ComputeKey(turns)

	var (
		set       features.Set
		embedding []float32
		dedup     bool
	)

	// Feature extraction feeds the embedding; the content write runs beside
	// both. The index write below waits on all of them.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		set, err = features.Extract(gctx, turns)
		if err != nil {
			return newError(op, ErrEmbedding, fmt.Errorf("extracting features: %w", err))
		}

		embedding, err = a.embedder.Embed(gctx, set.Summary)
		if err != nil {
			return newError(op, ErrEmbedding, err)
		}
		if len(embedding) == 0 {
			return newError(op, ErrEmbedding, errors.New("embedder returned an empty vector"))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		dedup, err = a.writeContent(gctx, key, turns)
		if err != nil {
			return newError(op, ErrContentWrite, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	rec := &MetadataRecord{
		ArchiveID:     uuid.NewString(),
		ID:            conv.ID,
		Title:         conv.Title,
		Summary:       set.Summary,
		Topics:        set.Topics,
		KeyPoints:     set.KeyPoints,
		Source:        conv.Source,
		Timestamp:     conv.ScrapedAt,
		MessageCount:  len(turns),
		TokenCount:    set.TokenCount,
		Embedding:     embedding,
		ReferencePath: a.store.Locate(key),
		ContentKey:    key,
		ArchivedAt:    time.Now().UTC(),
	}

	entry := vector.Entry{
		ID:     rec.ID,
		Values: rec.Embedding,
		Metadata: map[string]string{
			MetaTitle:         rec.Title,
			MetaSummary:       rec.Summary,
			MetaSource:        rec.Source,
			MetaReferencePath: rec.ReferencePath,
			MetaContentKey:    rec.ContentKey,
		},
		Namespace: a.namespace,
	}
	previous := a.previousEntry(ctx, rec.ID)
	if err := a.index.Store(ctx, []vector.Entry{entry}); err != nil {
		// Content stays: it is content-addressed and reusable.
		return nil, false, newError(op, ErrVectorIndex, err)
	}

	if a.records != nil {
		if err := a.records.Save(ctx, rec); err != nil {
			a.compensate(ctx, rec.ID, previous)
			return nil, false, newError(op, ErrRecordWrite, err)
		}
	}

	return rec, dedup, nil
}

// writeContent stores turns under key and reports whether they were already
// present.
func (a *Archiver) writeContent(ctx context.Context, key string, turns []cas.Turn) (bool, error) {
	exists, err := a.store.Has(ctx, key)
	if err != nil {
		a.logger.Warn("content existence check failed",
			"content_key", key,
			"error", err,
		)
		exists = false
	}

	if err := a.store.Put(ctx, key, turns); err != nil {
		return false, err
	}

	a.logger.Debug("content stored",
		"content_key", key,
		"turns", len(turns),
		"existed", exists,
	)
	return exists, nil
}

// previousEntry returns the vector entry currently indexed under id, or nil.
// Only consulted when a record store is configured.
func (a *Archiver) previousEntry(ctx context.Context, id string) *vector.Entry {
	if a.records == nil {
		return nil
	}

	entries, err := a.index.Get(ctx, []string{id})
	if err != nil {
		a.logger.Warn("failed to read existing vector entry", "id", id, "error", err)
		return nil
	}
	for i := range entries {
		if entries[i].ID == id && len(entries[i].Values) > 0 {
			return &entries[i]
		}
	}
	return nil
}

// compensate undoes the vector write of an archive whose record could not be
// saved. A re-archived conversation gets its previous entry back, a new one
// is removed, so no searchable entry points at a record that does not exist.
func (a *Archiver) compensate(ctx context.Context, id string, previous *vector.Entry) {
	ctx = context.WithoutCancel(ctx)

	if previous != nil {
		if err := a.index.Store(ctx, []vector.Entry{*previous}); err != nil {
			a.logger.Error("failed to restore vector entry after record write failure",
				"id", id,
				"error", err,
			)
		}
		return
	}

	if err := a.index.Delete(ctx, []string{id}); err != nil {
		a.logger.Error("failed to remove vector entry after record write failure",
			"id", id,
			"error", err,
		)
	}
}

func (a *Archiver) publish(ctx context.Context, conv Conversation, rec *MetadataRecord) {
	if a.publisher == nil {
		return
	}

	event := eventstream.NewConversationArchivedEvent(
		eventstream.EventSource{
			Platform:  conv.Source,
			ScrapedAt: conv.ScrapedAt,
			Namespace: a.namespace,
		},
		eventstream.EventRecord{
			ArchiveID:    rec.ArchiveID,
			ID:           rec.ID,
			Title:        rec.Title,
			Summary:      rec.Summary,
			Topics:       rec.Topics,
			KeyPoints:    rec.KeyPoints,
			MessageCount: rec.MessageCount,
			TokenCount:   rec.TokenCount,
			ArchivedAt:   rec.ArchivedAt,
		},
		eventstream.EventContent{
			Key:           rec.ContentKey,
			ReferencePath: rec.ReferencePath,
			Dimensions:    len(rec.Embedding),
		},
	)

	if err := a.publisher.PublishArchived(ctx, event); err != nil {
		a.logger.Warn("failed to publish archive event",
			"id", rec.ID,
			"archive_id", rec.ArchiveID,
			"error", err,
		)
	}
}

// Close releases every collaborator the Archiver was built with.
func (a *Archiver) Close() error {
	errs := []error{
		a.store.Close(),
		a.embedder.Close(),
		a.index.Close(),
	}
	if a.records != nil {
		errs = append(errs, a.records.Close())
	}
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	return errors.Join(errs...)
}
