package ledger

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripAccents removes diacritics: "Crédito" -> "Credito". Invalid input is
// returned unchanged.
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lower-cases s and strips diacritics, so "Crédito", "CREDITO" and
// "crédito" compare equal.
func Fold(s string) string {
	return strings.ToLower(StripAccents(s))
}

// hasDigit reports whether s contains at least one decimal digit.
func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
