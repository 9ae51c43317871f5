package library

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify lowercases title, strips diacritics and collapses every run of
// characters outside [a-z0-9] into a single dash. A title with nothing left
// becomes "item".
func Slugify(title string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(stripMarks, strings.ToLower(title))
	if err != nil {
		folded = strings.ToLower(title)
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	if b.Len() == 0 {
		return "item"
	}
	return b.String()
}
