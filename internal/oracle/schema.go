package oracle

import (
	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/normalizer"
)

// ResolveRequest is the structured prompt context sent to the external
// natural-language geocoding capability.
type ResolveRequest struct {
	PickupText   string           `json:"pickup_text"`
	DropoffText  string           `json:"dropoff_text"`
	Phone        models.PhoneInfo `json:"phone"`
	PickupHints  normalizer.Hints `json:"pickup_hints"`
	DropoffHints normalizer.Hints `json:"dropoff_hints"`
	History      []string         `json:"history,omitempty"`
}

// SideResult is one side of the oracle's answer. The response is
// untrusted: every field passes schema validation before the pipeline
// sees it.
type SideResult struct {
	Address      string   `json:"address" validate:"required"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	StreetName   string   `json:"street_name"`
	StreetNumber string   `json:"street_number"`
	Postcode     string   `json:"postcode"`
	City         string   `json:"city"`
	Ambiguous    bool     `json:"ambiguous"`
	Alternatives []string `json:"alternatives"`
	Districts    []string `json:"districts"`
}

// HasCoords reports whether the oracle supplied both coordinates.
func (s *SideResult) HasCoords() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// ResolveResponse is the fixed wire schema for a resolution answer.
type ResolveResponse struct {
	Pickup     *SideResult `json:"pickup" validate:"required"`
	Dropoff    *SideResult `json:"dropoff" validate:"required"`
	Area       string      `json:"area"`
	AreaSource string      `json:"area_source"`
}
