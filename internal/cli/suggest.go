// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// suggest.go - "Did you mean" suggestions for commands and names.
package cli

import (
	"strings"
)

// SuggestCommand returns a suggested command if the input is close to a
// valid REPL command. Returns empty string if no good match is found.
// Uses Levenshtein distance with a threshold based on input length.
func SuggestCommand(input string) string {
	input = strings.ToLower(input)

	// Don't suggest for very short inputs (likely intentional)
	if len(input) < 2 {
		return ""
	}

	// Short inputs allow 1 edit, medium 2, long 3. Two edits at four
	// characters catches transpositions like "hepl" -> "help".
	maxDistance := 1
	if len(input) >= 4 {
		maxDistance = 2
	}
	if len(input) > 8 {
		maxDistance = 3
	}

	return closestMatch(input, replCommands, maxDistance)
}

// closestMatch returns the candidate within maxDistance edits of input,
// preferring the smallest distance. Exact matches return empty (the
// caller already failed to resolve the name, so an exact hit means the
// candidate list is stale).
func closestMatch(input string, candidates []string, maxDistance int) string {
	bestMatch := ""
	bestDistance := -1

	for _, candidate := range candidates {
		distance := levenshteinDistance(input, candidate)
		if distance == 0 {
			return ""
		}
		if distance <= maxDistance && (bestDistance == -1 || distance < bestDistance) {
			bestDistance = distance
			bestMatch = candidate
		}
	}

	return bestMatch
}

// levenshteinDistance calculates the edit distance between two strings:
// the minimum number of single-character insertions, deletions, or
// substitutions required to change one into the other.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	cols := len(s2) + 1

	// Two rows instead of the full matrix.
	prev := make([]int, cols)
	curr := make([]int, cols)

	for j := 0; j < cols; j++ {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i

		for j := 1; j < cols; j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}

			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}

		prev, curr = curr, prev
	}

	return prev[cols-1]
}

func min3(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
