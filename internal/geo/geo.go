// Package geo holds the spherical and polygon math shared by the
// verifier, the correction guards and the fare calculator.
package geo

import "math"

const (
	earthRadiusMiles = 3958.8
	metersPerMile    = 1609.344
)

// Miles returns the great-circle distance between two points.
func Miles(lat1, lng1, lat2, lng2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	return earthRadiusMiles * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Meters returns the great-circle distance in meters.
func Meters(lat1, lng1, lat2, lng2 float64) float64 {
	return Miles(lat1, lng1, lat2, lng2) * metersPerMile
}

// SamePoint reports whether two coordinate pairs are numerically equal
// to well below street-level resolution.
func SamePoint(lat1, lng1, lat2, lng2 float64) bool {
	const eps = 1e-6
	return math.Abs(lat1-lat2) < eps && math.Abs(lng1-lng2) < eps
}

// box is a lat/lng bounding box, south-west to north-east.
type box struct {
	minLat, minLng, maxLat, maxLng float64
}

func (b box) contains(lat, lng float64) bool {
	return lat >= b.minLat && lat <= b.maxLat && lng >= b.minLng && lng <= b.maxLng
}

// Ireland is checked before Great Britain: the GB box is generous and
// overlaps the Irish Sea.
var countryBoxes = []struct {
	code string
	b    box
}{
	{"IE", box{51.3, -10.7, 55.5, -5.9}},
	{"GB", box{49.8, -8.7, 60.9, 1.8}},
}

// CountryFromCoords classifies a coordinate pair against the known
// operating-country bounding boxes. Empty string when outside all of them.
func CountryFromCoords(lat, lng float64) string {
	if lat == 0 && lng == 0 {
		return ""
	}
	for _, c := range countryBoxes {
		if c.b.contains(lat, lng) {
			return c.code
		}
	}
	return ""
}

// PointInPolygon runs a ray cast over [lat, lng] vertices.
func PointInPolygon(lat, lng float64, poly [][2]float64) bool {
	if len(poly) < 3 {
		return false
	}
	inside := false
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		yi, xi := poly[i][0], poly[i][1]
		yj, xj := poly[j][0], poly[j][1]
		if (yi > lat) != (yj > lat) &&
			lng < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// PolygonCentroid is the arithmetic mean of the vertices; good enough
// for nearest-zone ranking.
func PolygonCentroid(poly [][2]float64) (lat, lng float64) {
	if len(poly) == 0 {
		return 0, 0
	}
	for _, p := range poly {
		lat += p[0]
		lng += p[1]
	}
	n := float64(len(poly))
	return lat / n, lng / n
}
