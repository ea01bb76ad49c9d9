// Package fare computes the deterministic fare, timing and zone answer
// from a pair of final coordinates. Pure functions only: identical
// coordinates always produce an identical estimate.
package fare

import (
	"fmt"
	"math"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/config"
	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/geo"
)

// Calculator holds the per-currency fare tables.
type Calculator struct {
	tables map[string]config.FareTable
}

func NewCalculator(tables map[string]config.FareTable) *Calculator {
	return &Calculator{tables: tables}
}

var currencyByCountry = map[string]string{
	"GB": "GBP",
	"IE": "EUR",
}

// CurrencyFor maps a detected country to its currency, defaulting GBP.
func CurrencyFor(country string) string {
	if c, ok := currencyByCountry[country]; ok {
		return c
	}
	return "GBP"
}

// Estimate computes the full fare answer for a trip.
func (c *Calculator) Estimate(pickLat, pickLng, dropLat, dropLng float64, currency string) *models.FareEstimate {
	table, ok := c.tables[currency]
	if !ok {
		table = c.tables["GBP"]
	}

	miles := geo.Miles(pickLat, pickLng, dropLat, dropLng)
	fare := table.BaseFare + miles*table.PerMileRate
	if fare < table.MinimumFare {
		fare = table.MinimumFare
	}
	fare = roundHalf(fare)

	trip := 0
	if table.AvgSpeedMPH > 0 {
		trip = int(math.Ceil(miles/table.AvgSpeedMPH*60)) + table.BufferMins
	}
	eta := driverETA(miles)

	return &models.FareEstimate{
		Currency:         currency,
		BaseFare:         table.BaseFare,
		PerMileRate:      table.PerMileRate,
		Fare:             fare,
		FareSpoken:       Spoken(fare, currency),
		DistanceMiles:    round2(miles),
		TripMinutes:      trip,
		DriverETAMinutes: eta,
		BusyMessage:      busyMessage(eta),
	}
}

// roundHalf rounds to the nearest 0.50 currency unit.
func roundHalf(v float64) float64 {
	return math.Round(v*2) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// driverETA is a banded heuristic, deliberately independent of the
// exact trip distance: dispatch radius matters, the drop-off does not.
func driverETA(miles float64) int {
	switch {
	case miles < 2:
		return 5
	case miles < 10:
		return 8
	case miles < 30:
		return 12
	default:
		return 20
	}
}

func busyMessage(etaMins int) string {
	switch {
	case etaMins <= 5:
		return "It's quiet at the moment, a driver will be with you shortly."
	case etaMins <= 8:
		return "We're fairly busy but a driver shouldn't be long."
	case etaMins <= 12:
		return "We're quite busy right now, thanks for bearing with us."
	default:
		return "We're very busy at the moment, it may be a little while."
	}
}

var currencyWords = map[string]struct{ major, minor string }{
	"GBP": {"pounds", "pence"},
	"EUR": {"euros", "cents"},
}

// Spoken renders a fare for text-to-speech: 7.50 GBP -> "seven pounds
// fifty".
func Spoken(amount float64, currency string) string {
	words, ok := currencyWords[currency]
	if !ok {
		words = currencyWords["GBP"]
	}
	major := int(amount)
	minor := int(math.Round((amount - float64(major)) * 100))

	switch {
	case major == 0 && minor == 0:
		return "free"
	case minor == 0:
		return fmt.Sprintf("%s %s", numberWords(major), words.major)
	case major == 0:
		return fmt.Sprintf("%s %s", numberWords(minor), words.minor)
	default:
		return fmt.Sprintf("%s %s %s", numberWords(major), words.major, numberWords(minor))
	}
}

var ones = []string{"zero", "one", "two", "three", "four", "five", "six",
	"seven", "eight", "nine", "ten", "eleven", "twelve", "thirteen",
	"fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen"}

var tens = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty",
	"seventy", "eighty", "ninety"}

func numberWords(n int) string {
	switch {
	case n < 0:
		return fmt.Sprintf("%d", n)
	case n < 20:
		return ones[n]
	case n < 100:
		if n%10 == 0 {
			return tens[n/10]
		}
		return tens[n/10] + " " + ones[n%10]
	case n < 1000:
		s := ones[n/100] + " hundred"
		if n%100 != 0 {
			s += " and " + numberWords(n%100)
		}
		return s
	default:
		return fmt.Sprintf("%d", n)
	}
}
