package nlp

import "sort"

// TermCount es un término con su frecuencia.
type TermCount struct {
	Term  string
	Count int
}

// RankTerms cuenta ocurrencias y devuelve los n términos más frecuentes.
// Los empates se resuelven por orden de primera aparición (sort estable).
func RankTerms(terms []string, n int) []TermCount {
	index := make(map[string]int, len(terms))
	counts := make([]TermCount, 0, len(terms))
	for _, t := range terms {
		if i, ok := index[t]; ok {
			counts[i].Count++
			continue
		}
		index[t] = len(counts)
		counts = append(counts, TermCount{Term: t, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if n >= 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func topTerms(terms []string, n int) []string {
	ranked := RankTerms(terms, n)
	out := make([]string, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, c.Term)
	}
	return out
}
