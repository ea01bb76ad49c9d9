//go:build cgo

package external

import (
	"github.com/openvenues/gopostal/expand"
	"github.com/openvenues/gopostal/parser"
)

// Split runs libpostal over a long free-text query and returns the
// labelled components. Only consulted when use_libpostal is set and the
// binary was built with cgo.
func Split(raw string) Components {
	opts := expand.DefaultOptions()
	opts.Languages = []string{"en"}
	exps := expand.ExpandAddress(raw, opts)
	best := raw
	if len(exps) > 0 {
		best = exps[0]
	}

	c := Components{Available: true}
	for _, comp := range parser.ParseAddress(best) {
		switch comp.Label {
		case "house_number":
			c.HouseNumber = comp.Value
		case "road":
			c.Road = comp.Value
		case "suburb", "city_district":
			c.Area = comp.Value
		case "city":
			c.City = comp.Value
		case "postcode":
			c.Postcode = comp.Value
		}
	}
	return c
}
