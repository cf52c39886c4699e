package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases and drops stop words", "The Raft protocol IS simple", []string{"raft", "protocol", "simple"}},
		{"splits on punctuation", "consensus: leader-election, log replication.", []string{"consensus", "leader", "election", "log", "replication"}},
		{"keeps digits", "section 42 covers timeouts", []string{"section", "42", "covers", "timeouts"}},
		{"only stop words", "the a an of", []string{}},
		{"empty", "   ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, terms(tt.text))
		})
	}
}

func TestContainsAllQueryWords(t *testing.T) {
	content := "Leader election in Raft uses randomized timeouts to avoid split votes."

	assert.True(t, containsAllQueryWords(content, "raft leader election"))
	assert.True(t, containsAllQueryWords(content, "the randomized timeouts"), "stop words in the query are ignored")
	assert.True(t, containsAllQueryWords(content, "split-votes"), "punctuation must not break a match")
	assert.False(t, containsAllQueryWords(content, "raft snapshot"), "one missing term fails the match")
	assert.False(t, containsAllQueryWords(content, "the of a"), "stop-word-only queries never hit")
	assert.False(t, containsAllQueryWords(content, ""))
}
