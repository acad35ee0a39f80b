// Package catsuggest adds a "did you mean" fuzzy suggestion layer over
// category names, grounded on the teacher's internal/semantic fuzzy
// matcher. It is purely additive: search_categories' storage-order
// prefix-seek semantics (spec §4.11, B4, §9 Q4) are never routed through
// this package.
package catsuggest

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"
)

// Suggester scores candidate category names against a misspelled or
// partial query using Jaro-Winkler similarity over a stemmed form of
// each name, so "Anim_right" still surfaces "Animal_rights".
type Suggester struct {
	threshold float64
}

// New creates a Suggester. threshold is the minimum Jaro-Winkler
// similarity (0..1) a candidate must reach to be returned; 0 or negative
// falls back to a sensible default.
func New(threshold float64) *Suggester {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.75
	}
	return &Suggester{threshold: threshold}
}

type scored struct {
	name  string
	score float64
}

// Suggest scores every candidate against query and returns up to limit
// names at or above the configured threshold, best match first. Ties
// break on shorter name first, then lexicographically, to keep output
// deterministic.
func (s *Suggester) Suggest(query string, candidates []string, limit int) []string {
	if query == "" || limit <= 0 {
		return nil
	}
	stemmedQuery := stem(query)

	var matches []scored
	for _, name := range candidates {
		sim, err := edlib.StringsSimilarity(stemmedQuery, stem(name), edlib.JaroWinkler)
		if err != nil {
			continue
		}
		score := float64(sim)
		if score >= s.threshold {
			matches = append(matches, scored{name: name, score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		if len(matches[i].name) != len(matches[j].name) {
			return len(matches[i].name) < len(matches[j].name)
		}
		return matches[i].name < matches[j].name
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

// stem normalizes a category name for fuzzy comparison: lowercase, then
// porter2-stem each underscore/space-separated word.
func stem(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '_' || r == ' '
	})
	for i, w := range words {
		words[i] = porter2.Stem(w)
	}
	return strings.Join(words, " ")
}
