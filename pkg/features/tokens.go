package features

import (
	"strings"

	"github.com/papercomputeco/chatvault/pkg/cas"
)

// TokenCount approximates the token count as the number of whitespace
// separated fields across all turn contents. It is not a model tokenizer.
func TokenCount(turns []cas.Turn) int {
	return len(strings.Fields(joinContents(turns)))
}
