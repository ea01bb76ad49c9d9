package normalizer

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks without touching base letters.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// ASCIIFold transliterates anything left outside ASCII after diacritic
// stripping. Transcripts occasionally carry curly quotes and the odd
// non-Latin character from the speech vendor.
func ASCIIFold(s string) string {
	return unidecode.Unidecode(StripDiacritics(s))
}

// Fold lowercases and ASCII-folds in one step.
func Fold(s string) string {
	return strings.ToLower(ASCIIFold(s))
}
