// Package fuzzy computes bounded edit-distance matches between query terms
// and candidate display fields.
//
// The distance is plain Levenshtein (no transposition); the variant is kept
// behind the Match contract so it can be swapped without touching callers.
package fuzzy

import (
	"sort"
	"strings"
)

// Tolerance is the maximum edit distance that still counts as a match.
const Tolerance = 2

// suggestionTolerance bounds how far a candidate may be from the query term
// and still appear in did-you-mean suggestions.
const suggestionTolerance = 3

// Match is the outcome of a fuzzy comparison.
type Match struct {
	Matched  bool
	Score    float64
	Distance int
}

// IsMatch compares term against target, lower-casing both. When target is
// longer than term, every substring window of len(term) runes is tried and
// the best one wins, so "jon" still matches inside "John Doe".
// Score is 1 - distance/len(target), clamped to [0,1], and 0 when not
// matched. Distances count runes, not bytes, so accented names do not
// inflate the edit count. Pure: no I/O, deterministic.
func IsMatch(term, target string) Match {
	tr := []rune(strings.ToLower(strings.TrimSpace(term)))
	gr := []rune(strings.ToLower(strings.TrimSpace(target)))

	if len(tr) == 0 || len(gr) == 0 {
		// One side empty: the distance is the length of the other.
		d := len(tr) + len(gr)
		if d > Tolerance {
			return Match{Distance: d}
		}
		return Match{Matched: true, Score: boolScore(d == 0), Distance: d}
	}

	d := bestDistance(tr, gr)
	if d > Tolerance {
		return Match{Distance: d}
	}

	score := 1 - float64(d)/float64(len(gr))
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return Match{Matched: true, Score: score, Distance: d}
}

// Suggestions ranks pool candidates by ascending edit distance to term and
// returns up to max distinct entries within the suggestion tolerance. Used
// only when a search produced zero results.
func Suggestions(term string, pool []string, max int) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || max <= 0 {
		return nil
	}

	type candidate struct {
		term string
		dist int
	}

	seen := make(map[string]struct{}, len(pool))
	ranked := make([]candidate, 0, len(pool))
	for _, p := range pool {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if lower == term {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		d := levenshtein([]rune(term), []rune(lower))
		if d > suggestionTolerance {
			continue
		}
		ranked = append(ranked, candidate{term: trimmed, dist: d})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].dist < ranked[j].dist })

	if len(ranked) > max {
		ranked = ranked[:max]
	}
	out := make([]string, len(ranked))
	for i, c := range ranked {
		out[i] = c.term
	}
	return out
}

// bestDistance returns the minimum Levenshtein distance between term and any
// substring window of target with the same rune length as term. Windows
// slide by rune; operands are already lower-cased and non-empty.
func bestDistance(term, target []rune) int {
	if len(term) >= len(target) {
		return levenshtein(term, target)
	}
	best := len(term) + len(target)
	for i := 0; i+len(term) <= len(target); i++ {
		if d := levenshtein(term, target[i:i+len(term)]); d < best {
			best = d
			if best == 0 {
				break
			}
		}
	}
	return best
}

// levenshtein computes the edit distance between a and b using a rolling
// single-row table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur := prev[0]
		prev[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			next := min3(prev[j]+1, prev[j-1]+1, cur+cost)
			cur = prev[j]
			prev[j] = next
		}
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func boolScore(matched bool) float64 {
	if matched {
		return 1
	}
	return 0
}
