package search

import (
	"strings"
	"unicode"
)

// Words too common to carry any signal for verbatim matching.
var stopWords = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(
		"a an and are as at be but by do for from have in is it not of on that the this to was with you") {
		set[w] = struct{}{}
	}
	return set
}()

// terms lowercases text and splits it on anything that is not a letter or a
// digit, dropping stop words. Chunk content and queries go through the same
// split so punctuation never breaks a match.
func terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, skip := stopWords[f]; skip {
			continue
		}
		out = append(out, f)
	}
	return out
}

// containsAllQueryWords reports whether every significant query term occurs
// in the chunk content. A query made up entirely of stop words never counts
// as a verbatim hit.
func containsAllQueryWords(content, query string) bool {
	want := terms(query)
	if len(want) == 0 {
		return false
	}

	have := make(map[string]struct{})
	for _, term := range terms(content) {
		have[term] = struct{}{}
	}
	for _, term := range want {
		if _, ok := have[term]; !ok {
			return false
		}
	}
	return true
}
