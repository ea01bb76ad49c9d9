package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercases and trims", input: "  Russell STREET  ", expected: "russell street"},
		{name: "keeps commas", input: "12 Albany Road, Earlsdon", expected: "12 albany road, earlsdon"},
		{name: "drops punctuation", input: "King's Head! (the pub)", expected: "king's head the pub"},
		{name: "folds accents", input: "Café Royale", expected: "cafe royale"},
		{name: "collapses whitespace", input: "high\t street\n coventry", expected: "high street coventry"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.input))
		})
	}
}

func TestStreetKey(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "first segment only", input: "12 Russell Street, Coventry CV1 3AB", expected: "russell street"},
		{name: "no house number", input: "Albany Road, Earlsdon", expected: "albany road"},
		{name: "house number with letter", input: "221b Baker Street, London", expected: "baker street"},
		{name: "postcode stripped", input: "CV1 3AB Russell Street", expected: "russell street"},
		{name: "empty input", input: "   ", expected: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StreetKey(tc.input))
		})
	}
}

func TestHasPostcode(t *testing.T) {
	assert.True(t, HasPostcode("12 Russell Street, CV1 3AB"))
	assert.True(t, HasPostcode("sw1a 1aa"))
	assert.False(t, HasPostcode("Russell Street, Coventry"))
	assert.False(t, HasPostcode("flat 4B"))
}

func TestSignificantWords(t *testing.T) {
	words := SignificantWords("the second house on Albany Road near the park")
	assert.Equal(t, []string{"house", "albany", "park"}, words)
}

func TestHasStreetSuffix(t *testing.T) {
	assert.True(t, HasStreetSuffix("Albany Road"))
	assert.True(t, HasStreetSuffix("broad lane"))
	assert.False(t, HasStreetSuffix("The Red Lion"))
	assert.False(t, HasStreetSuffix("Heathrow Terminal 5"))
}

func TestPatternExtractor_Extract(t *testing.T) {
	pe := NewPatternExtractor()

	testCases := []struct {
		name        string
		input       string
		houseNumber string
		postcode    string
		areas       []string
	}{
		{
			name:        "house number and city",
			input:       "number 42 Albany Road, Coventry",
			houseNumber: "42",
			areas:       []string{"coventry"},
		},
		{
			name:     "full postcode",
			input:    "Russell Street CV1 3AB",
			postcode: "CV1 3AB",
		},
		{
			name:        "leading house number",
			input:       "17a Spon End",
			houseNumber: "17a",
		},
		{
			name:  "nothing to extract",
			input: "the big white building",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := pe.Extract(tc.input)
			assert.Equal(t, tc.houseNumber, h.HouseNumber)
			assert.Equal(t, tc.postcode, h.Postcode)
			assert.Equal(t, tc.areas, h.Areas)
		})
	}
}

func TestPatternExtractor_CityCountry(t *testing.T) {
	pe := NewPatternExtractor()
	assert.Equal(t, "GB", pe.CityCountry("Coventry"))
	assert.Equal(t, "IE", pe.CityCountry("dublin"))
	assert.Equal(t, "", pe.CityCountry("atlantis"))
}
