package testutils

import "github.com/papercomputeco/chatvault/pkg/cas"

// NewTestTurn creates a turn with a fixed timestamp for testing
func NewTestTurn(role, text string) cas.Turn {
	return cas.Turn{
		Role:      role,
		Content:   text,
		Timestamp: "2025-02-08T12:00:00Z",
	}
}
