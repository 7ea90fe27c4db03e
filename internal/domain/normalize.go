package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail returns the identity key for an email address:
// surrounding whitespace trimmed and lowercased. An empty result means
// the address is unusable as an identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeLabel prepares a free-text label (track, format, category) for
// comparison:
//   - case-folds
//   - strips diacritics ("Sécurité" → "securite")
//   - collapses every run of non-alphanumeric characters into one space
//   - trims
func NormalizeLabel(label string) string {
	folded := stripDiacritics(strings.ToLower(label))

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// LabelKey is the identity key of a label: NormalizeLabel with the word
// separators removed, so "Dev Ops", "devops" and "  DEVOPS " share one key.
func LabelKey(label string) string {
	return strings.ReplaceAll(NormalizeLabel(label), " ", "")
}

// LabelsMatch reports whether two labels match by normalized containment:
// equal, or one contains the other. Empty labels never match.
//
// The containment rule is heuristic and can pair short labels with longer
// unrelated ones ("Go" inside "Go to Market"); existing mappings depend on
// this behavior, so it is kept as is.
func LabelsMatch(a, b string) bool {
	na, nb := NormalizeLabel(a), NormalizeLabel(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
