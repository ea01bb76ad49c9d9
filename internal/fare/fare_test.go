package fare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/config"
)

func testTables() map[string]config.FareTable {
	return map[string]config.FareTable{
		"GBP": {BaseFare: 3.50, PerMileRate: 1.00, MinimumFare: 4.00, AvgSpeedMPH: 22.0, BufferMins: 5},
		"EUR": {BaseFare: 4.00, PerMileRate: 1.20, MinimumFare: 5.00, AvgSpeedMPH: 22.0, BufferMins: 5},
	}
}

func TestEstimate_FourMileTrip(t *testing.T) {
	c := NewCalculator(testTables())

	// Two points on one meridian, 0.0579 degrees of latitude apart:
	// almost exactly four miles.
	est := c.Estimate(52.0, -1.5, 52.0579, -1.5, "GBP")
	require.NotNil(t, est)

	assert.Equal(t, "GBP", est.Currency)
	assert.InDelta(t, 4.0, est.DistanceMiles, 0.01)
	assert.Equal(t, 7.50, est.Fare)
	assert.Equal(t, "seven pounds fifty", est.FareSpoken)
	assert.Equal(t, 8, est.DriverETAMinutes)
	assert.Equal(t, 16, est.TripMinutes)
	assert.NotEmpty(t, est.BusyMessage)
}

func TestEstimate_MinimumFare(t *testing.T) {
	c := NewCalculator(testTables())

	est := c.Estimate(52.4081, -1.5106, 52.4081, -1.5106, "GBP")
	assert.Equal(t, 4.00, est.Fare)
	assert.Equal(t, 5, est.DriverETAMinutes)
}

func TestEstimate_UnknownCurrencyFallsBackToGBP(t *testing.T) {
	c := NewCalculator(testTables())

	est := c.Estimate(52.4081, -1.5106, 52.4081, -1.5106, "USD")
	assert.Equal(t, 3.50, est.BaseFare)
}

func TestCurrencyFor(t *testing.T) {
	assert.Equal(t, "GBP", CurrencyFor("GB"))
	assert.Equal(t, "EUR", CurrencyFor("IE"))
	assert.Equal(t, "GBP", CurrencyFor(""))
	assert.Equal(t, "GBP", CurrencyFor("FR"))
}

func TestRoundHalf(t *testing.T) {
	testCases := []struct {
		in       float64
		expected float64
	}{
		{7.24, 7.0},
		{7.25, 7.5},
		{7.50, 7.5},
		{7.74, 7.5},
		{7.75, 8.0},
		{4.00, 4.0},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, roundHalf(tc.in))
	}
}

func TestDriverETABands(t *testing.T) {
	assert.Equal(t, 5, driverETA(1.5))
	assert.Equal(t, 8, driverETA(4))
	assert.Equal(t, 12, driverETA(15))
	assert.Equal(t, 20, driverETA(45))
}

func TestSpoken(t *testing.T) {
	testCases := []struct {
		name     string
		amount   float64
		currency string
		expected string
	}{
		{name: "pounds and pence", amount: 7.50, currency: "GBP", expected: "seven pounds fifty"},
		{name: "whole pounds", amount: 12.00, currency: "GBP", expected: "twelve pounds"},
		{name: "euros", amount: 9.50, currency: "EUR", expected: "nine euros fifty"},
		{name: "pence only", amount: 0.50, currency: "GBP", expected: "fifty pence"},
		{name: "zero", amount: 0, currency: "GBP", expected: "free"},
		{name: "twenty one", amount: 21.00, currency: "GBP", expected: "twenty one pounds"},
		{name: "over a hundred", amount: 112.00, currency: "GBP", expected: "one hundred and twelve pounds"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Spoken(tc.amount, tc.currency))
		})
	}
}
