package archive

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by an Archiver is an *Error whose Kind
// is one of these sentinels, so callers can branch with errors.Is.
var (
	// ErrContentWrite means the content store rejected or could not complete a write.
	ErrContentWrite = errors.New("content write failure")

	// ErrContentRead means the content store failed for a reason other than a
	// missing key.
	ErrContentRead = errors.New("content read failure")

	// ErrEmbedding means the embedding provider failed or timed out.
	ErrEmbedding = errors.New("embedding failure")

	// ErrVectorIndex means a vector index store, search, delete or update failed.
	ErrVectorIndex = errors.New("vector index failure")

	// ErrNotFound means the requested content or conversation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRecordWrite means the metadata record could not be persisted.
	ErrRecordWrite = errors.New("record write failure")

	// ErrRecordRead means the record store failed for a reason other than a
	// missing record.
	ErrRecordRead = errors.New("record read failure")

	// ErrInvalidInput means the caller supplied an unusable value.
	ErrInvalidInput = errors.New("invalid input")
)

// ErrRecordsDisabled is the cause attached when an operation needs a record
// store and none was configured.
var ErrRecordsDisabled = errors.New("record store not configured")

// Error is a typed pipeline failure carrying the operation, the failure kind
// and the originating cause.
type Error struct {
	// Kind is one of the Err* sentinels above.
	Kind error
	// Op names the operation that failed, e.g. "archive".
	Op string
	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// KindName returns the stable name of the failure kind carried by err, or
// "Unknown" when err is not an archive error.
func KindName(err error) string {
	var ae *Error
	if !errors.As(err, &ae) {
		return "Unknown"
	}

	switch ae.Kind {
	case ErrContentWrite:
		return "ContentWriteFailure"
	case ErrContentRead:
		return "ContentReadFailure"
	case ErrEmbedding:
		return "EmbeddingFailure"
	case ErrVectorIndex:
		return "VectorIndexFailure"
	case ErrNotFound:
		return "NotFound"
	case ErrRecordWrite:
		return "RecordWriteFailure"
	case ErrRecordRead:
		return "RecordReadFailure"
	case ErrInvalidInput:
		return "InvalidInput"
	default:
		return "Unknown"
	}
}

func newError(op string, kind, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
