package records

import (
	"errors"
	"fmt"
)

// ErrDuplicate is returned when saving a record whose ArchiveID already exists.
var ErrDuplicate = errors.New("record already exists")

// NotFoundError is returned when no record matches a lookup.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("record not found: %s", e.ID)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
