package chunk

import "strings"

const (
	// minInformativeLength is the minimum trimmed length for a chunk to be embedded.
	minInformativeLength = 10
	// minDistinctTokens is the minimum number of distinct multi-character
	// lowercase tokens a chunk must contain.
	minDistinctTokens = 3
)

// IsInformative reports whether a chunk is worth embedding. Chunks that are
// empty after trimming, shorter than 10 characters, or containing fewer
// than 3 distinct lowercase word tokens of length > 1 are rejected.
// Rejected chunks are dropped silently before embedding, never retried.
func IsInformative(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minInformativeLength {
		return false
	}

	distinct := make(map[string]struct{})
	for _, word := range strings.Fields(trimmed) {
		token := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}#*`_"))
		if len(token) > 1 {
			distinct[token] = struct{}{}
		}
		if len(distinct) >= minDistinctTokens {
			return true
		}
	}

	return false
}
