package archive

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/chatvault/pkg/records"
	"github.com/papercomputeco/chatvault/pkg/vector"
)

// Forget removes a conversation from the vector index so it no longer shows
// up in searches. Archived content and records are kept.
func (a *Archiver) Forget(ctx context.Context, id string) error {
	const op = "forget"

	if id == "" {
		return newError(op, ErrInvalidInput, errors.New("conversation id is empty"))
	}
	if err := a.index.Delete(ctx, []string{id}); err != nil {
		return newError(op, ErrVectorIndex, err)
	}

	a.logger.Info("conversation forgotten", "id", id)
	return nil
}

// Retitle changes the title a conversation is searched under. With a record
// store configured, a new record carrying the title is appended to the
// conversation's history.
func (a *Archiver) Retitle(ctx context.Context, id, title string) error {
	const op = "retitle"

	if id == "" {
		return newError(op, ErrInvalidInput, errors.New("conversation id is empty"))
	}

	if err := a.index.UpdateMetadata(ctx, id, map[string]string{MetaTitle: title}); err != nil {
		if errors.Is(err, vector.ErrNotFound) {
			return newError(op, ErrNotFound, err)
		}
		return newError(op, ErrVectorIndex, err)
	}

	if a.records == nil {
		return nil
	}

	latest, err := a.records.Latest(ctx, id)
	if err != nil {
		if records.IsNotFound(err) {
			return nil
		}
		return newError(op, ErrRecordRead, err)
	}

	next := latest.Clone()
	next.ArchiveID = uuid.NewString()
	next.Title = title
	next.ArchivedAt = time.Now().UTC()
	if err := a.records.Save(ctx, next); err != nil {
		return newError(op, ErrRecordWrite, err)
	}

	a.logger.Info("conversation retitled", "id", id, "archive_id", next.ArchiveID)
	return nil
}

// History returns every record archived for a conversation id, oldest first.
func (a *Archiver) History(ctx context.Context, id string) ([]*MetadataRecord, error) {
	const op = "history"

	if id == "" {
		return nil, newError(op, ErrInvalidInput, errors.New("conversation id is empty"))
	}
	if a.records == nil {
		return nil, newError(op, ErrNotFound, ErrRecordsDisabled)
	}

	history, err := a.records.History(ctx, id)
	if err != nil {
		return nil, newError(op, recordReadKind(err), err)
	}
	if len(history) == 0 {
		return nil, newError(op, ErrNotFound, records.NotFoundError{ID: id})
	}
	return history, nil
}

// Recent lists the newest records.
func (a *Archiver) Recent(ctx context.Context, opts records.ListOptions) ([]*MetadataRecord, error) {
	const op = "recent"

	if a.records == nil {
		return nil, newError(op, ErrNotFound, ErrRecordsDisabled)
	}

	list, err := a.records.List(ctx, opts)
	if err != nil {
		return nil, newError(op, recordReadKind(err), err)
	}
	return list, nil
}

// recordReadKind keeps a missing record apart from a failing record store.
func recordReadKind(err error) error {
	if records.IsNotFound(err) {
		return ErrNotFound
	}
	return ErrRecordRead
}
