package nlp

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/analysis/lang/en"
	"github.com/blevesearch/bleve/registry"
	"go.uber.org/zap"

	"casenote-nlp/internal/domain"
)

const (
	StageKeywords = "keywords"

	TierLinguistic = "linguistic"
	TierTokenizer  = "tokenizer"
	TierRegex      = "regex"
)

// wordRun emula los límites de palabra: sólo cuentan corridas compuestas por letras.
var wordRun = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// KeywordExtractor devuelve hasta 10 términos salientes: parse lingüístico ->
// tokenizer + stop-words -> regex.
type KeywordExtractor struct {
	basicStop map[string]struct{}
	richStop  map[string]struct{}
	stopProbe *Probe
	chain     *chain[[]string]
}

func NewKeywordExtractor(lex *Lexicon, opts Options, logger *zap.Logger) *KeywordExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lex == nil {
		lex = DefaultLexicon()
	}
	e := &KeywordExtractor{basicStop: lex.BasicStopWords()}
	// Si la lista de stop-words en inglés de bleve carga, reemplaza a la lista fija.
	e.stopProbe = capabilityProbe(logger, StageKeywords, "stop_words", 0, func(context.Context) error {
		tm, err := registry.NewCache().TokenMapNamed(en.StopName)
		if err != nil {
			return unavailable(err.Error())
		}
		rich := make(map[string]struct{}, len(tm))
		for w := range tm {
			rich[strings.ToLower(w)] = struct{}{}
		}
		e.richStop = rich
		return nil
	})

	linguistic := newLinguisticTier(opts.EnableLinguisticKeywords, e.stopWords, logger)
	tokenizer := newTokenizerTier(e.stopWords, logger)

	e.chain = &chain[[]string]{
		stage:     StageKeywords,
		tiers:     []Tier[[]string]{linguistic, tokenizer},
		floorName: TierRegex,
		floor: func(text string) []string {
			return RegexKeywords(text, e.stopWords(context.Background()))
		},
		timeout:  opts.TierTimeout,
		observer: opts.observer(),
		logger:   logger,
	}
	return e
}

// Extract nunca falla y devuelve la lista junto al tier que la produjo.
func (e *KeywordExtractor) Extract(ctx context.Context, text string) ([]string, string) {
	out, tier := e.chain.run(ctx, text)
	if out == nil {
		out = []string{}
	}
	return out, tier
}

func (e *KeywordExtractor) Status(ctx context.Context) []TierStatus {
	return e.chain.status(ctx)
}

func (e *KeywordExtractor) stopWords(ctx context.Context) map[string]struct{} {
	if err := e.stopProbe.Check(ctx); err == nil {
		return e.richStop
	}
	return e.basicStop
}

// RegexKeywords es el tier C: corridas de 3+ letras, sin stop-words, por frecuencia.
func RegexKeywords(text string, stop map[string]struct{}) []string {
	var terms []string
	for _, w := range wordRun.FindAllString(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(w) < 3 || !isAlpha(w) {
			continue
		}
		if _, ok := stop[w]; ok {
			continue
		}
		terms = append(terms, w)
	}
	return topTerms(terms, domain.MaxKeywords)
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
