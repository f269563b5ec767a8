package nlp

import (
	"strings"
	"unicode"
)

// negationFactor invierte y atenúa la polaridad de una palabra negada ("not happy").
const negationFactor = -0.5

// ScorePolarity promedia polaridad y subjetividad de las palabras presentes en el
// léxico, aplicando intensificadores (palabra previa) y negaciones (hasta dos palabras antes).
// Sin palabras conocidas devuelve (0, 0).
func ScorePolarity(lex *Lexicon, text string) (polarity, subjectivity float64) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	var sumPol, sumSubj float64
	matched := 0
	for i, w := range words {
		entry, ok := lex.Polarity.Words[w]
		if !ok {
			continue
		}
		pol := entry.Polarity
		subj := entry.Subjectivity

		if i > 0 {
			if k, ok := lex.Polarity.Intensifiers[words[i-1]]; ok {
				pol *= k
				subj *= k
			}
		}
		if negatedAt(lex, words, i) {
			pol *= negationFactor
		}

		sumPol += clamp(pol, -1, 1)
		sumSubj += clamp(subj, 0, 1)
		matched++
	}
	if matched == 0 {
		return 0, 0
	}
	return clamp(sumPol/float64(matched), -1, 1), clamp(sumSubj/float64(matched), 0, 1)
}

func negatedAt(lex *Lexicon, words []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-2; j-- {
		if lex.isNegation(words[j]) {
			return true
		}
	}
	return false
}
