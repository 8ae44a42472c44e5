package features

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/papercomputeco/chatvault/pkg/cas"
)

const sentenceDelimiter = ". "

var (
	codePattern     = regexp.MustCompile(`code|function|class`)
	digitPattern    = regexp.MustCompile(`\d`)
	emphasisPattern = regexp.MustCompile(`important|key|main|critical`)
)

type scoredUnit struct {
	text  string
	score int
}

// Summary builds an extractive summary. Every turn's content is split into
// sentence-like units on ". ", each unit is scored with ScoreSentence and the
// SummarySentences best units are joined with ". ". Ties keep their original
// order.
func Summary(turns []cas.Turn) string {
	var units []scoredUnit
	for _, t := range turns {
		for _, s := range strings.Split(t.Content, sentenceDelimiter) {
			if s == "" {
				continue
			}
			units = append(units, scoredUnit{text: s, score: ScoreSentence(s)})
		}
	}

	if len(units) == 0 {
		return ""
	}

	slices.SortStableFunc(units, func(a, b scoredUnit) int {
		return b.score - a.score
	})

	top := make([]string, 0, SummarySentences)
	for _, u := range units[:min(SummarySentences, len(units))] {
		top = append(top, u.text)
	}

	return strings.Join(top, sentenceDelimiter)
}

// ScoreSentence scores a unit:
//
//	+1 longer than 50 characters
//	+2 mentions code, function or class
//	+1 contains a digit
//	+1 mentions important, key, main or critical
//
// Keyword matches are case-insensitive.
func ScoreSentence(s string) int {
	lower := strings.ToLower(s)

	score := 0
	if utf8.RuneCountInString(s) > 50 {
		score++
	}
	if codePattern.MatchString(lower) {
		score += 2
	}
	if digitPattern.MatchString(s) {
		score++
	}
	if emphasisPattern.MatchString(lower) {
		score++
	}
	return score
}
