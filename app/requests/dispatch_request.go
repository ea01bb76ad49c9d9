package requests

import "github.com/maxparsons123/happy-ride-helper-sub002/app/models"

// ResolveDispatchRequest is one resolution call from the conversation
// layer: the two spoken sides plus the caller's number.
type ResolveDispatchRequest struct {
	PickupText     string         `json:"pickup_text" binding:"required"`
	DropoffText    string         `json:"dropoff_text" binding:"required"`
	CallerPhone    string         `json:"caller_phone,omitempty"`
	PickupTimeText string         `json:"pickup_time_text,omitempty"`
	Options        ResolveOptions `json:"options,omitempty"`
}

// ResolveOptions tune one call without touching server config.
type ResolveOptions struct {
	// UseCache opts into the resolution cache; callers with history are
	// never served from it regardless.
	UseCache bool `json:"use_cache,omitempty"`
}

// Query converts the wire request into the pipeline's input value.
func (r *ResolveDispatchRequest) Query() models.AddressQuery {
	return models.AddressQuery{
		PickupText:     r.PickupText,
		DropoffText:    r.DropoffText,
		CallerPhone:    r.CallerPhone,
		PickupTimeText: r.PickupTimeText,
	}
}

// SeedReferenceRequest loads a curated street/POI dataset revision.
type SeedReferenceRequest struct {
	DatasetVersion string                        `json:"dataset_version" binding:"required"`
	Entries        []models.ReferenceStreetEntry `json:"entries" binding:"required,min=1"`
}
