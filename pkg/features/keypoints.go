package features

import (
	"regexp"
	"strings"

	"github.com/papercomputeco/chatvault/pkg/cas"
)

// listMarker matches a bullet (-, *, •) or a numbered list marker ("12.")
// at the start of a line.
var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+\.)`)

// KeyPoints collects list items from every turn in turn order, with the
// marker stripped and surrounding whitespace trimmed. At most MaxKeyPoints
// are returned.
func KeyPoints(turns []cas.Turn) []string {
	points := []string{}

	for _, t := range turns {
		for _, line := range strings.Split(t.Content, "\n") {
			loc := listMarker.FindStringIndex(line)
			if loc == nil {
				continue
			}

			points = append(points, strings.TrimSpace(line[loc[1]:]))
			if len(points) == MaxKeyPoints {
				return points
			}
		}
	}

	return points
}
