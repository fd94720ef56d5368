package gallery

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds a person name for comparison: diacritics stripped
// (e.g. "Jiří" -> "jiri"), lowercased, dashes treated as spaces.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, _ := transform.String(t, name)
	folded = strings.ToLower(folded)
	folded = strings.ReplaceAll(folded, "-", " ")
	return strings.TrimSpace(folded)
}
