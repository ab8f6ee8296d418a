package directory

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent strips combining marks after canonical decomposition, so
// "Jérôme" becomes "Jerome".
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// TriFromLogin normalizes a directory login into the short user code
// stored on presence records: diacritics stripped, lowercased, and
// trimmed around whitespace. Logins are used as-is beyond that; the
// directory already keeps them short.
func TriFromLogin(login string) string {
	out, _, err := transform.String(deaccent, login)
	if err != nil {
		out = login
	}
	return strings.ToLower(strings.TrimSpace(out))
}
