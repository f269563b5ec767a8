package nlp

import (
	"regexp"
	"strings"
)

// Caracteres de palabra (Unicode) más espacio y puntuación básica.
var disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}_ .,!?;:-]`)

// Normalize deja el texto en forma canónica: espacios colapsados (incluye NBSP y
// demás espacios Unicode), sin caracteres fuera de la lista permitida y en minúsculas.
// Nunca falla.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.ToValidUTF8(raw, "")
	s = collapseSpaces(s)
	s = disallowedChars.ReplaceAllString(s, "")
	// Quitar caracteres puede dejar espacios dobles ("a @ b").
	s = collapseSpaces(s)
	return strings.ToLower(s)
}

// collapseSpaces separa por unicode.IsSpace y une con un espacio simple.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
