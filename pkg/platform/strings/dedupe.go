// Package strings cleans caller-supplied string lists. Tags and role lists
// arrive from request bodies and token claims carrying stray whitespace and
// duplicates; every consumer normalizes them the same way.
package strings

import (
	"slices"
	"strings"
)

// DedupeAndTrim trims each element, drops the ones that trim to nothing, and
// removes duplicates while preserving first-seen order.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// Union concatenates the lists and cleans the result with DedupeAndTrim, so
// elements keep the order of their first appearance across lists.
func Union(lists ...[]string) []string {
	return DedupeAndTrim(slices.Concat(lists...))
}
