package archive

import (
	"context"
	"errors"
	"strings"

	"github.com/papercomputeco/chatvault/pkg/cas"
)

// RetrieveContent returns the turns archived for rec.
func (a *Archiver) RetrieveContent(ctx context.Context, rec *MetadataRecord) ([]cas.Turn, error) {
	const op = "retrieve content"

	if rec == nil {
		return nil, newError(op, ErrInvalidInput, errors.New("record is nil"))
	}

	key := rec.ContentKey
	if key == "" {
		key = cas.KeyFromReference(rec.ReferencePath)
	}
	return a.getContent(ctx, op, key)
}

// RetrieveByReference returns the turns behind a reference locator, a content
// key or a SearchHit's reference path.
func (a *Archiver) RetrieveByReference(ctx context.Context, ref string) ([]cas.Turn, error) {
	const op = "retrieve by reference"

	if strings.TrimSpace(ref) == "" {
		return nil, newError(op, ErrInvalidInput, errors.New("reference is empty"))
	}
	return a.getContent(ctx, op, cas.KeyFromReference(ref))
}

func (a *Archiver) getContent(ctx context.Context, op, key string) ([]cas.Turn, error) {
	if err := cas.CheckKey(key); err != nil {
		return nil, newError(op, ErrNotFound, err)
	}

	turns, err := a.store.Get(ctx, key)
	if err != nil {
		if cas.IsNotFound(err) {
			return nil, newError(op, ErrNotFound, err)
		}
		return nil, newError(op, ErrContentRead, err)
	}
	return turns, nil
}
