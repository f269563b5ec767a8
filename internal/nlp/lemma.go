package nlp

import (
	"context"
	"strings"

	"github.com/aaaton/golem/v4"
	golemen "github.com/aaaton/golem/v4/dicts/en"
	"go.uber.org/zap"
)

// lemmatizer lleva sustantivos plurales y verbos flexionados a su lema con el
// diccionario inglés de golem. Si el diccionario no carga usa baseForm.
type lemmatizer struct {
	probe *Probe
	dict  *golem.Lemmatizer
}

func newLemmatizer(logger *zap.Logger) *lemmatizer {
	l := &lemmatizer{}
	l.probe = capabilityProbe(logger, StageKeywords, "lemmatizer", 0, func(context.Context) error {
		dict, err := golem.New(golemen.New())
		if err != nil {
			return unavailable(err.Error())
		}
		l.dict = dict
		return nil
	})
	return l
}

func (l *lemmatizer) lemma(ctx context.Context, word, tag string) string {
	if !inflected(tag) {
		return word
	}
	if l.probe.Check(ctx) != nil {
		return baseForm(word, tag)
	}
	if out := strings.ToLower(l.dict.Lemma(word)); out != "" {
		return out
	}
	return word
}

func inflected(tag string) bool {
	switch tag {
	case "NNS", "VBD", "VBG", "VBZ":
		return true
	}
	return false
}

// baseForm reduce sustantivos plurales y verbos flexionados a una forma base
// aproximada (reglas tipo Porter 1b). Participios y adjetivos quedan igual.
func baseForm(word, tag string) string {
	switch tag {
	case "NNS":
		return singularize(word)
	case "VBD", "VBG":
		return verbBase(word)
	case "VBZ":
		return singularize(word)
	}
	return word
}

func singularize(w string) string {
	n := len(w)
	switch {
	case strings.HasSuffix(w, "ies") && n > 4:
		return w[:n-3] + "y"
	case strings.HasSuffix(w, "sses"):
		return w[:n-2]
	case hasAnySuffix(w, "ches", "shes", "xes", "zes"):
		return w[:n-2]
	case hasAnySuffix(w, "ss", "us", "is"):
		return w
	case strings.HasSuffix(w, "s") && n > 3:
		return w[:n-1]
	}
	return w
}

func verbBase(w string) string {
	n := len(w)
	var stem string
	switch {
	case strings.HasSuffix(w, "eed"):
		return w[:n-1]
	case strings.HasSuffix(w, "ied") && n > 4:
		return w[:n-3] + "y"
	case strings.HasSuffix(w, "ed"):
		stem = w[:n-2]
	case strings.HasSuffix(w, "ing"):
		stem = w[:n-3]
	default:
		return w
	}

	r := []rune(stem)
	if len(r) < 2 || !hasVowel(r) {
		return w
	}
	last := r[len(r)-1]
	switch {
	case hasAnySuffix(stem, "at", "bl", "iz"):
		return stem + "e"
	case doubleConsonant(r) && !strings.ContainsRune("lsz", last):
		return string(r[:len(r)-1])
	case silentE(r):
		return stem + "e"
	case measure(r) == 1 && endsCVC(r):
		return stem + "e"
	}
	return stem
}

// silentE detecta stems que perdieron una "e" final: argu(e), mov(e), refus(e),
// sens(e), danc(e), judg(e).
func silentE(w []rune) bool {
	n := len(w)
	last, prev := w[n-1], w[n-2]
	switch last {
	case 'u':
		return !isVowelAt(w, n-2)
	case 'v':
		return true
	case 's':
		return isVowelAt(w, n-2) || prev == 'r' || prev == 'n'
	case 'c':
		return prev == 'n'
	case 'g':
		return prev == 'd'
	}
	return false
}

func hasAnySuffix(w string, suffixes ...string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(w, s) {
			return true
		}
	}
	return false
}

func isVowelAt(w []rune, i int) bool {
	switch w[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	case 'y':
		return i > 0 && !isVowelAt(w, i-1)
	}
	return false
}

func hasVowel(w []rune) bool {
	for i := range w {
		if isVowelAt(w, i) {
			return true
		}
	}
	return false
}

// measure cuenta las secuencias vocal-consonante del stem.
func measure(w []rune) int {
	m := 0
	prevVowel := false
	for i := range w {
		v := isVowelAt(w, i)
		if prevVowel && !v {
			m++
		}
		prevVowel = v
	}
	return m
}

func doubleConsonant(w []rune) bool {
	n := len(w)
	return n >= 2 && w[n-1] == w[n-2] && !isVowelAt(w, n-1)
}

// endsCVC: consonante-vocal-consonante final, donde la última no es w, x ni y.
func endsCVC(w []rune) bool {
	n := len(w)
	if n < 3 {
		return false
	}
	if strings.ContainsRune("wxy", w[n-1]) {
		return false
	}
	return !isVowelAt(w, n-1) && isVowelAt(w, n-2) && !isVowelAt(w, n-3)
}
