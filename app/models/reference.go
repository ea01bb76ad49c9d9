package models

// ReferenceStreetEntry is one row of the curated per-zone street/POI
// dataset. Read-only to the pipeline; the ground truth used to detect
// multi-district ambiguity and hallucinated street names.
type ReferenceStreetEntry struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string    `bson:"name" json:"name"`
	Area      string    `bson:"area" json:"area"`
	City      string    `bson:"city,omitempty" json:"city,omitempty"`
	Latitude  float64   `bson:"latitude" json:"latitude"`
	Longitude float64   `bson:"longitude" json:"longitude"`
	Kind      MatchType `bson:"kind" json:"kind"`
	Zones     []string  `bson:"zones,omitempty" json:"zones,omitempty"`
}

// ReferenceMatch is a fuzzy lookup hit with its similarity score.
type ReferenceMatch struct {
	Entry      ReferenceStreetEntry `json:"entry"`
	MatchedOn  string               `json:"matched_on"`
	Similarity float64              `json:"similarity"`
}

// Zone is an operator-defined dispatch region. Polygon vertices are
// [lat, lng] pairs; higher priority wins when zones overlap.
type Zone struct {
	ID       string       `bson:"_id,omitempty" yaml:"id" json:"id"`
	Name     string       `bson:"name" yaml:"name" json:"name"`
	Company  string       `bson:"company" yaml:"company" json:"company"`
	Priority int          `bson:"priority" yaml:"priority" json:"priority"`
	Polygon  [][2]float64 `bson:"polygon" yaml:"polygon" json:"-"`
}

// GeocodeHit is a best-match answer from the reverse-geocoding service.
type GeocodeHit struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}
