package nlp

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/analysis"
	bleveunicode "github.com/blevesearch/bleve/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/registry"
	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"casenote-nlp/internal/domain"
)

type stopWordsFunc func(ctx context.Context) map[string]struct{}

// linguisticTier etiqueta POS y conserva sustantivos, adjetivos y verbos en forma base.
type linguisticTier struct {
	probe  *Probe
	stops  stopWordsFunc
	lemmas *lemmatizer
}

func newLinguisticTier(enabled bool, stops stopWordsFunc, logger *zap.Logger) *linguisticTier {
	return &linguisticTier{
		stops:  stops,
		lemmas: newLemmatizer(logger),
		probe: capabilityProbe(logger, StageKeywords, TierLinguistic, 0, func(context.Context) error {
			if !enabled {
				return unavailable("disabled by configuration")
			}
			if _, err := prose.NewDocument("probe sentence", prose.WithExtraction(false), prose.WithSegmentation(false)); err != nil {
				return fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
			}
			return nil
		}),
	}
}

func (t *linguisticTier) Name() string { return TierLinguistic }

func (t *linguisticTier) Available(ctx context.Context) error {
	return t.probe.Check(ctx)
}

func (t *linguisticTier) Invoke(ctx context.Context, text string) ([]string, error) {
	doc, err := prose.NewDocument(text, prose.WithExtraction(false), prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("pos tagging: %w", err)
	}
	stop := t.stops(ctx)

	var terms []string
	for _, tok := range doc.Tokens() {
		word := strings.ToLower(tok.Text)
		if !keepPOS(tok.Tag) || !hasLetter(word) || utf8.RuneCountInString(word) <= 2 {
			continue
		}
		if _, ok := stop[word]; ok {
			continue
		}
		terms = append(terms, t.lemmas.lemma(ctx, word, tok.Tag))
	}
	return topTerms(terms, domain.MaxKeywords), nil
}

// keepPOS acepta sustantivos comunes, adjetivos y verbos (tags Penn Treebank).
func keepPOS(tag string) bool {
	switch tag {
	case "NN", "NNS", "JJ", "JJR", "JJS", "VB", "VBD", "VBG", "VBN", "VBP", "VBZ":
		return true
	}
	return false
}

// tokenizerTier tokeniza con el tokenizer Unicode de bleve y filtra stop-words.
type tokenizerTier struct {
	probe     *Probe
	stops     stopWordsFunc
	tokenizer analysis.Tokenizer
}

func newTokenizerTier(stops stopWordsFunc, logger *zap.Logger) *tokenizerTier {
	t := &tokenizerTier{stops: stops}
	t.probe = capabilityProbe(logger, StageKeywords, TierTokenizer, 0, func(context.Context) error {
		tok, err := registry.NewCache().TokenizerNamed(bleveunicode.Name)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
		}
		t.tokenizer = tok
		return nil
	})
	return t
}

func (t *tokenizerTier) Name() string { return TierTokenizer }

func (t *tokenizerTier) Available(ctx context.Context) error {
	return t.probe.Check(ctx)
}

func (t *tokenizerTier) Invoke(ctx context.Context, text string) ([]string, error) {
	stop := t.stops(ctx)
	var terms []string
	for _, tok := range t.tokenizer.Tokenize([]byte(text)) {
		word := strings.ToLower(string(tok.Term))
		if utf8.RuneCountInString(word) <= 2 || !hasLetter(word) {
			continue
		}
		if _, ok := stop[word]; ok {
			continue
		}
		terms = append(terms, word)
	}
	return topTerms(terms, domain.MaxKeywords), nil
}
