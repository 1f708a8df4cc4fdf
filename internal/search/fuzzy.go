package search

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// substringBase lifts every contiguous match above any subsequence match
	substringBase = 2.0

	// adjacencyBonus rewards consecutive characters within a subsequence match
	adjacencyBonus = 0.5
)

// Ranked pairs a candidate with its match score
type Ranked[T any] struct {
	Item  T
	Score float64
}

// Score rates how well text matches query. Zero means no match.
//
// An empty query scores 1 for everything. A case-insensitive contiguous
// substring scores 2 + len(query)/len(text). Otherwise the query must be a
// subsequence of text: each matched character adds 1, a match directly
// after the previous one adds 0.5, and the total is divided by len(text).
func Score(query, text string) float64 {
	if query == "" {
		return 1
	}

	q := strings.ToLower(query)
	t := strings.ToLower(text)
	textLen := utf8.RuneCountInString(t)
	if textLen == 0 {
		return 0
	}

	if strings.Contains(t, q) {
		return substringBase + float64(utf8.RuneCountInString(q))/float64(textLen)
	}

	queryRunes := []rune(q)
	queryPos := 0
	lastMatch := -1
	score := 0.0

	i := 0
	for _, r := range t {
		if queryPos == len(queryRunes) {
			break
		}
		if r == queryRunes[queryPos] {
			score++
			if lastMatch == i-1 {
				score += adjacencyBonus
			}
			lastMatch = i
			queryPos++
		}
		i++
	}

	if queryPos < len(queryRunes) {
		return 0
	}
	return score / float64(textLen)
}

// Filter scores every candidate, drops non-matches and sorts by descending
// score. Equal scores keep their input order.
func Filter[T any](candidates []T, query string, textOf func(T) string) []Ranked[T] {
	ranked := make([]Ranked[T], 0, len(candidates))
	for _, c := range candidates {
		if s := Score(query, textOf(c)); s > 0 {
			ranked = append(ranked, Ranked[T]{Item: c, Score: s})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Items strips the scores from a ranked list
func Items[T any](ranked []Ranked[T]) []T {
	out := make([]T, len(ranked))
	for i, r := range ranked {
		out[i] = r.Item
	}
	return out
}
