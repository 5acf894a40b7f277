package shorthand

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Format renders a record as a single printable line: title-cased name,
// uppercase dosage, bracketed uppercase comment when present and capitalized
// posology.
//
//	Format(Record{Name: "DIPIRONA", Dosage: "500MG", Posology: "SE DOR"}) == "Dipirona 500MG Se dor"
func Format(r Record) string {
	parts := []string{titleCase(r.Name), upper(r.Dosage)}
	if r.Comment != nil && *r.Comment != "" {
		parts = append(parts, "["+upper(*r.Comment)+"]")
	}
	parts = append(parts, capitalize(r.Posology))
	return strings.Join(parts, " ")
}

// titleCase upper-cases a cased rune that follows an uncased one and
// lower-cases every other cased rune, so "B12 COMPLEXO" becomes "B12 Complexo"
// and "SORO-FISIOLOGICO" becomes "Soro-Fisiologico".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevCased := false
	for _, r := range s {
		if isCased(r) {
			if prevCased {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevCased = true
			continue
		}
		b.WriteRune(r)
		prevCased = false
	}
	return b.String()
}

// capitalize title-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToTitle(r)) + lower(s[size:])
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}
