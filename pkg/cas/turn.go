// Package cas is the content-addressed store for archived conversation turns.
//
// Content is keyed by a digest of its canonical serialization, so identical
// turn sequences always collapse onto the same stored content.
package cas

import (
	"fmt"
	"unicode/utf8"
)

// Turn is a single message within a conversation, attributed to a role.
// Timestamps are kept verbatim in the platform's own format.
type Turn struct {
	// Role is a free-form label such as "user", "assistant" or "unknown".
	Role string `json:"role"`

	// Content is the raw message text.
	Content string `json:"content"`

	// Timestamp is the platform-local timestamp string, possibly empty.
	Timestamp string `json:"timestamp"`
}

// CloneTurns returns a copy of turns so stores never share backing arrays
// with their callers.
func CloneTurns(turns []Turn) []Turn {
	if turns == nil {
		return []Turn{}
	}

	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// ValidateTurns returns ErrInvalidUTF8 for the first turn holding a role,
// content or timestamp that is not valid UTF-8.
func ValidateTurns(turns []Turn) error {
	for i, t := range turns {
		switch {
		case !utf8.ValidString(t.Role):
			return fmt.Errorf("%w: turn %d role", ErrInvalidUTF8, i)
		case !utf8.ValidString(t.Content):
			return fmt.Errorf("%w: turn %d content", ErrInvalidUTF8, i)
		case !utf8.ValidString(t.Timestamp):
			return fmt.Errorf("%w: turn %d timestamp", ErrInvalidUTF8, i)
		}
	}
	return nil
}
