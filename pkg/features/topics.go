package features

import (
	"regexp"
	"slices"
	"strings"

	"github.com/papercomputeco/chatvault/pkg/cas"
)

var nonWord = regexp.MustCompile(`[^a-z0-9_]+`)

// Topics returns up to MaxTopics of the most frequent lower-cased words
// across all turns. Words are runs of [a-z0-9_]. Equal counts are ordered by
// first occurrence.
func Topics(turns []cas.Turn) []string {
	text := strings.ToLower(joinContents(turns))

	counts := make(map[string]int)
	var order []string
	for _, w := range nonWord.Split(text, -1) {
		if w == "" {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})

	if len(order) > MaxTopics {
		order = order[:MaxTopics]
	}

	return append([]string{}, order...)
}
