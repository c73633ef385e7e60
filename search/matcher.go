package search

import "strings"

// Normalize prepares a term or extracted content for matching: identity when
// the run is case-sensitive, lower-cased otherwise. Term and content must go
// through the same normalization so matching is invariant under case
// permutation.
func Normalize(s string, caseSensitive bool) string {
	if caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

// CountOccurrences counts non-overlapping occurrences of term in content.
// Both arguments are expected to be normalized already. "aaa" searched for
// "aa" yields 1, not 2.
func CountOccurrences(content, term string) int {
	if term == "" {
		return 0
	}
	return strings.Count(content, term)
}
