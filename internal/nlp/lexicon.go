package nlp

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"casenote-nlp/internal/domain"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

// WordLists agrupa términos por categoría afectiva.
type WordLists struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
	Neutral  []string `yaml:"neutral"`
}

type PolarityEntry struct {
	Polarity     float64 `yaml:"polarity"`
	Subjectivity float64 `yaml:"subjectivity"`
}

// PolarityLexicon alimenta el scorer léxico (tier B de sentimiento).
type PolarityLexicon struct {
	Words        map[string]PolarityEntry `yaml:"words"`
	Intensifiers map[string]float64       `yaml:"intensifiers"`
	Negations    []string                 `yaml:"negations"`
}

// Lexicon es configuración inmutable: se carga una vez y se comparte por referencia.
type Lexicon struct {
	Sentiment WordLists                   `yaml:"sentiment"`
	Domains   map[domain.Domain]WordLists `yaml:"domains"`
	StopWords []string                    `yaml:"stop_words"`
	Polarity  PolarityLexicon             `yaml:"polarity"`

	negations map[string]struct{}
}

var defaultLexicon = sync.OnceValues(func() (*Lexicon, error) {
	return ParseLexicon(defaultLexiconYAML)
})

// DefaultLexicon devuelve el léxico embebido. Entra en pánico sólo si el YAML embebido es inválido.
func DefaultLexicon() *Lexicon {
	lex, err := defaultLexicon()
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	return lex
}

// LoadLexicon lee un léxico alternativo; con path vacío devuelve el embebido.
func LoadLexicon(path string) (*Lexicon, error) {
	if strings.TrimSpace(path) == "" {
		return defaultLexicon()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	return ParseLexicon(data)
}

// ParseLexicon decodifica y valida un léxico en YAML.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if err := lex.validate(); err != nil {
		return nil, err
	}
	lex.lowercase()
	lex.negations = toSet(lex.Polarity.Negations)
	return &lex, nil
}

func (l *Lexicon) validate() error {
	if len(l.Sentiment.Positive) == 0 || len(l.Sentiment.Negative) == 0 {
		return fmt.Errorf("lexicon: sentiment positive/negative lists are required")
	}
	for _, d := range domain.Domains {
		if _, ok := l.Domains[d]; !ok {
			return fmt.Errorf("lexicon: missing domain %q", d)
		}
	}
	for d := range l.Domains {
		if !isKnownDomain(d) {
			return fmt.Errorf("lexicon: unknown domain %q", d)
		}
	}
	return nil
}

func (l *Lexicon) lowercase() {
	lowerAll(l.Sentiment.Positive)
	lowerAll(l.Sentiment.Negative)
	lowerAll(l.Sentiment.Neutral)
	for d, lists := range l.Domains {
		lowerAll(lists.Positive)
		lowerAll(lists.Negative)
		lowerAll(lists.Neutral)
		l.Domains[d] = lists
	}
	lowerAll(l.StopWords)
}

// BasicStopWords devuelve el set fijo de stop-words del léxico.
func (l *Lexicon) BasicStopWords() map[string]struct{} {
	return toSet(l.StopWords)
}

func (l *Lexicon) isNegation(word string) bool {
	_, ok := l.negations[word]
	return ok
}

func isKnownDomain(d domain.Domain) bool {
	for _, known := range domain.Domains {
		if d == known {
			return true
		}
	}
	return false
}

func lowerAll(words []string) {
	for i, w := range words {
		words[i] = strings.ToLower(strings.TrimSpace(w))
	}
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// countSubstrings cuenta cuántas palabras de la lista aparecen como substring del texto.
// Cada palabra cuenta como máximo una vez.
func countSubstrings(text string, words []string) int {
	n := 0
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			n++
		}
	}
	return n
}
