package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankTermsTiesKeepFirstSeenOrder(t *testing.T) {
	terms := []string{"calm", "mood", "group", "mood", "calm", "sleep"}
	got := RankTerms(terms, -1)
	require.Len(t, got, 4)
	assert.Equal(t, []TermCount{
		{Term: "calm", Count: 2},
		{Term: "mood", Count: 2},
		{Term: "group", Count: 1},
		{Term: "sleep", Count: 1},
	}, got)
}

func TestRankTermsTruncates(t *testing.T) {
	var terms []string
	for _, w := range []string{"a1", "b1", "c1", "d1", "e1", "f1", "g1", "h1", "i1", "j1", "k1", "l1"} {
		terms = append(terms, w)
	}
	assert.Len(t, RankTerms(terms, 10), 10)
	assert.Empty(t, RankTerms(nil, 10))
	assert.Equal(t, []string{"b1", "a1"}, topTerms([]string{"a1", "b1", "b1"}, 2))
}
