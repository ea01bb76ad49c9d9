// Package phone derives region bias from the caller's number. A landline
// pins the caller to a city before a single word of the transcript is
// trusted; a mobile says only which country they are in.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
)

// Area-code table for the operating footprint, keyed by the national
// significant number prefix. Longest prefix wins.
var landlineCities = map[string]map[string]string{
	"GB": {
		"24":   "Coventry",
		"121":  "Birmingham",
		"20":   "London",
		"161":  "Manchester",
		"113":  "Leeds",
		"151":  "Liverpool",
		"116":  "Leicester",
		"115":  "Nottingham",
		"114":  "Sheffield",
		"117":  "Bristol",
		"141":  "Glasgow",
		"131":  "Edinburgh",
		"29":   "Cardiff",
		"28":   "Belfast",
		"1902": "Wolverhampton",
	},
	"IE": {
		"1":  "Dublin",
		"21": "Cork",
		"91": "Galway",
		"61": "Limerick",
	},
}

// Analyzer parses caller numbers with a default-region fallback for
// numbers spoken without a country code.
type Analyzer struct {
	defaultRegion string
}

func NewAnalyzer(defaultRegion string) *Analyzer {
	if defaultRegion == "" {
		defaultRegion = "GB"
	}
	return &Analyzer{defaultRegion: defaultRegion}
}

// Analyze never fails: an unparseable number yields Valid=false and the
// pipeline carries on with the remaining signals.
func (a *Analyzer) Analyze(raw string) models.PhoneInfo {
	if strings.TrimSpace(raw) == "" {
		return models.PhoneInfo{}
	}
	num, err := phonenumbers.Parse(raw, a.defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return models.PhoneInfo{}
	}

	info := models.PhoneInfo{
		Valid:   true,
		Country: phonenumbers.GetRegionCodeForNumber(num),
	}
	switch phonenumbers.GetNumberType(num) {
	case phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE:
		info.Mobile = true
	default:
		info.LandlineCity = lookupCity(info.Country, phonenumbers.GetNationalSignificantNumber(num))
	}
	return info
}

func lookupCity(country, national string) string {
	table, ok := landlineCities[country]
	if !ok {
		return ""
	}
	best := ""
	city := ""
	for prefix, name := range table {
		if strings.HasPrefix(national, prefix) && len(prefix) > len(best) {
			best, city = prefix, name
		}
	}
	return city
}
