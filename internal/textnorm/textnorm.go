// Package textnorm provides opt-in cleanup for name properties (bank and
// entity names) coming from messy exports. It only rewrites the value text;
// identifiers are never touched.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldChain decomposes, strips nonspacing marks (accents), and recomposes.
var foldChain = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold trims edge whitespace and removes diacritics ("Crédit" -> "Credit").
// Case and punctuation are preserved; this is a value cleanup, not an
// identifier normalization.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	folded, _, err := transform.String(foldChain, s)
	if err != nil {
		return s
	}
	return folded
}
