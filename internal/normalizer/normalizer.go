// Package normalizer turns raw speech transcripts into comparable text:
// folding, street keys, significant words and pattern extraction.
package normalizer

import (
	"regexp"
	"strings"
)

var (
	punctRe    = regexp.MustCompile(`[^\w\s,']`)
	spaceRe    = regexp.MustCompile(`\s+`)
	fullPostRe = regexp.MustCompile(`(?i)\b([A-Z]{1,2}[0-9][0-9A-Z]?)\s*([0-9][A-Z]{2})\b`)
)

// Stopwords excluded from word-overlap scoring. Ordinals are listed
// because "the second street on the left" says nothing about the street.
var stopwords = map[string]bool{
	"the": true, "and": true, "road": true, "street": true, "avenue": true,
	"lane": true, "drive": true, "close": true, "way": true, "from": true,
	"near": true, "next": true, "please": true, "first": true, "second": true,
	"third": true, "fourth": true, "fifth": true, "one": true, "two": true,
	"three": true, "four": true, "five": true, "six": true, "seven": true,
	"eight": true, "nine": true, "ten": true,
}

// Normalize lowercases, folds accents, drops punctuation (commas kept,
// they delimit street keys) and collapses whitespace.
func Normalize(s string) string {
	s = Fold(s)
	s = punctRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// StripPostcodes removes any full UK postcode from the text.
func StripPostcodes(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(fullPostRe.ReplaceAllString(s, " "), " "))
}

// HasPostcode reports whether the text carries a full UK postcode.
func HasPostcode(s string) bool {
	return fullPostRe.MatchString(s)
}

// StreetKey is the first comma-delimited segment after normalization,
// with any leading house number and postcodes removed. It is the unit
// two street mentions are compared on.
func StreetKey(s string) string {
	s = StripPostcodes(Normalize(s))
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}
	s = houseNoLeadRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

var houseNoLeadRe = regexp.MustCompile(`^\s*\d{1,4}[a-z]?\s+`)

// SignificantWords returns the words that carry identity: longer than
// two characters and not in the stopword table.
func SignificantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(Normalize(s)) {
		if len(w) > 2 && !stopwords[w] {
			out = append(out, w)
		}
	}
	return out
}

// StreetSuffixes mark a name as a street rather than a point of interest.
var streetSuffixes = []string{
	"road", "street", "avenue", "lane", "drive", "close", "way", "court",
	"crescent", "grove", "place", "terrace", "gardens", "walk", "row", "hill",
}

// HasStreetSuffix reports whether the name ends in a street-type word.
func HasStreetSuffix(name string) bool {
	n := Normalize(name)
	for _, suf := range streetSuffixes {
		if strings.HasSuffix(n, " "+suf) || n == suf {
			return true
		}
	}
	return false
}
