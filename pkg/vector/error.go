package vector

import "errors"

var (
	// ErrNotFound is returned when an entry is not found in the vector store.
	ErrNotFound = errors.New("vector entry not found")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrDimension is returned when a vector does not have the index's dimension.
	ErrDimension = errors.New("vector dimension mismatch")
)
