package normalizer

import (
	"regexp"
	"strings"
)

// Hints are the explicit signals a caller spoke that outrank anything
// the oracle later guesses: a house number, a postcode, a named area.
type Hints struct {
	HouseNumber string   `json:"house_number,omitempty"`
	Postcode    string   `json:"postcode,omitempty"`
	Areas       []string `json:"areas,omitempty"`
}

// PatternExtractor owns the precompiled extraction rules. Pure; absence
// of a signal is a valid empty result.
type PatternExtractor struct {
	houseNo  *regexp.Regexp
	postcode *regexp.Regexp
	cities   map[string]string // folded city name -> ISO country
}

// NewPatternExtractor builds the extractor with the known-city table.
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{
		houseNo:  regexp.MustCompile(`(?:^|\bnumber\s+|\bno\.?\s+)(\d{1,4}[a-z]?)\b`),
		postcode: fullPostRe,
		cities:   knownCities,
	}
}

// Extract pulls every hint out of one side's raw text.
func (pe *PatternExtractor) Extract(raw string) Hints {
	text := Normalize(raw)
	h := Hints{}

	if m := pe.houseNo.FindStringSubmatch(text); m != nil {
		h.HouseNumber = m[1]
	}
	if m := pe.postcode.FindStringSubmatch(strings.ToUpper(raw)); m != nil {
		h.Postcode = m[1] + " " + m[2]
	}
	for city := range pe.cities {
		if ContainsWord(text, city) {
			h.Areas = append(h.Areas, city)
		}
	}
	return h
}

// CityCountry maps a folded city name to its ISO country code, or "".
func (pe *PatternExtractor) CityCountry(city string) string {
	return pe.cities[Normalize(city)]
}

// ContainsWord reports whether text contains phrase on word boundaries,
// treating commas as spaces.
func ContainsWord(text, phrase string) bool {
	padded := " " + strings.ReplaceAll(text, ",", " ") + " "
	return strings.Contains(padded, " "+phrase+" ")
}

// knownCities is the operating footprint. Folded names only.
var knownCities = map[string]string{
	"london":        "GB",
	"birmingham":    "GB",
	"coventry":      "GB",
	"manchester":    "GB",
	"leeds":         "GB",
	"liverpool":     "GB",
	"leicester":     "GB",
	"nottingham":    "GB",
	"sheffield":     "GB",
	"bristol":       "GB",
	"glasgow":       "GB",
	"edinburgh":     "GB",
	"cardiff":       "GB",
	"belfast":       "GB",
	"wolverhampton": "GB",
	"solihull":      "GB",
	"dublin":        "IE",
	"cork":          "IE",
	"galway":        "IE",
	"limerick":      "IE",
}
