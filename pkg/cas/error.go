package cas

import "errors"

var (
	// ErrInvalidKey is returned when a key is empty or malformed.
	ErrInvalidKey = errors.New("invalid content key")

	// ErrInvalidUTF8 is returned for turns whose text is not valid UTF-8.
	// Such text cannot be stored or hashed without loss.
	ErrInvalidUTF8 = errors.New("turn is not valid UTF-8")
)

// NotFoundError is returned when no content exists under a key.
type NotFoundError struct {
	Key string
}

func (e NotFoundError) Error() string {
	if e.Key == "" {
		return "content not found"
	}

	return "content not found: " + e.Key
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
