package nlp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casenote-nlp/internal/domain"
)

func TestDefaultLexicon(t *testing.T) {
	lex := DefaultLexicon()
	assert.Same(t, lex, DefaultLexicon())
	assert.Contains(t, lex.Sentiment.Negative, "agitated")
	for _, d := range domain.Domains {
		assert.NotEmpty(t, lex.Domains[d].Positive, d)
		assert.NotEmpty(t, lex.Domains[d].Negative, d)
	}
	assert.True(t, lex.isNegation("no"))
	assert.True(t, lex.isNegation("not"))
	assert.Contains(t, lex.BasicStopWords(), "the")
}

const minimalLexicon = `
sentiment:
  positive: [Calm]
  negative: [Sad]
domains:
  emotional: {positive: [calm], negative: [sad]}
  cognitive: {positive: [alert], negative: [confused]}
  social: {positive: [friendly], negative: [withdrawn]}
stop_words: [The]
`

func TestParseLexicon(t *testing.T) {
	lex, err := ParseLexicon([]byte(minimalLexicon))
	require.NoError(t, err)
	assert.Equal(t, []string{"calm"}, lex.Sentiment.Positive)
	assert.Contains(t, lex.BasicStopWords(), "the")
	assert.Empty(t, lex.Polarity.Words)
}

func TestParseLexiconValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "sentiment: ["},
		{"missing sentiment", "domains: {}"},
		{"missing domain", `
sentiment: {positive: [a], negative: [b]}
domains:
  emotional: {positive: [calm]}
  cognitive: {positive: [alert]}
`},
		{"unknown domain", `
sentiment: {positive: [a], negative: [b]}
domains:
  emotional: {positive: [calm]}
  cognitive: {positive: [alert]}
  social: {positive: [friendly]}
  physical: {positive: [strong]}
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLexicon([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadLexicon(t *testing.T) {
	lex, err := LoadLexicon("")
	require.NoError(t, err)
	assert.Same(t, DefaultLexicon(), lex)

	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalLexicon), 0o600))
	custom, err := LoadLexicon(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"sad"}, custom.Sentiment.Negative)

	_, err = LoadLexicon(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
