package models

// Status is the overall outcome of one resolution request.
type Status string

const (
	StatusReady               Status = "ready"
	StatusClarificationNeeded Status = "clarification_needed"
	StatusError               Status = "error"
)

// RegionSource records which signal the detected operating area came from.
type RegionSource string

const (
	RegionFromHistory    RegionSource = "caller_history"
	RegionFromLandline   RegionSource = "landline_area_code"
	RegionFromText       RegionSource = "text_mention"
	RegionFromLandmark   RegionSource = "landmark"
	RegionFromNearestPOI RegionSource = "nearest_poi"
	RegionUnknown        RegionSource = "unknown"
)

// MatchType classifies a resolved location.
type MatchType string

const (
	MatchStreet MatchType = "street"
	MatchPOI    MatchType = "point_of_interest"
)

// Coordinate sources, most trusted first.
const (
	CoordSourceHistory   = "caller_history"
	CoordSourceOracle    = "oracle"
	CoordSourceReference = "reference"
	CoordSourceReverse   = "reverse_geocode"
	CoordSourceNone      = "none"
)

// AddressQuery is one caller's resolution request. Immutable once built.
type AddressQuery struct {
	PickupText     string `json:"pickup_text"`
	DropoffText    string `json:"dropoff_text"`
	CallerPhone    string `json:"caller_phone"`
	PickupTimeText string `json:"pickup_time_text,omitempty"`
}

// CallerProfile is the read-only history looked up by phone number.
// Addresses are kept in append order, newest last.
type CallerProfile struct {
	Phone     string   `bson:"phone" json:"phone"`
	Name      string   `bson:"name,omitempty" json:"name,omitempty"`
	Addresses []string `bson:"addresses" json:"addresses"`
}

// PhoneInfo is the static analysis of the caller's number.
type PhoneInfo struct {
	Valid        bool   `json:"valid"`
	Country      string `json:"country,omitempty"`
	Mobile       bool   `json:"mobile"`
	LandlineCity string `json:"landline_city,omitempty"`
}

// ResolvedAddress is one side's final, verified answer.
type ResolvedAddress struct {
	Address            string    `json:"address"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	StreetName         string    `json:"street_name,omitempty"`
	StreetNumber       string    `json:"street_number,omitempty"`
	Postcode           string    `json:"postcode,omitempty"`
	City               string    `json:"city,omitempty"`
	Area               string    `json:"area,omitempty"`
	IsAmbiguous        bool      `json:"is_ambiguous"`
	Alternatives       []string  `json:"alternatives,omitempty"`
	MatchType          MatchType `json:"match_type,omitempty"`
	MatchedFromHistory bool      `json:"matched_from_history"`
	CoordSource        string    `json:"coord_source"`
	DriftMiles         *float64  `json:"drift_miles,omitempty"`
	AddressModified    bool      `json:"address_modified,omitempty"`
	OriginalInput      string    `json:"original_input,omitempty"`
	ModificationReason string    `json:"modification_reason,omitempty"`
}

// HasCoords reports whether a usable coordinate pair was resolved.
func (ra *ResolvedAddress) HasCoords() bool {
	return ra.CoordSource != CoordSourceNone && ra.CoordSource != ""
}

// FareEstimate is a pure function of the two final coordinates and the
// detected currency. Fare is rounded to the nearest half currency unit.
type FareEstimate struct {
	Currency         string  `json:"currency"`
	BaseFare         float64 `json:"base_fare"`
	PerMileRate      float64 `json:"per_mile_rate"`
	Fare             float64 `json:"fare"`
	FareSpoken       string  `json:"fare_spoken"`
	DistanceMiles    float64 `json:"distance_miles"`
	TripMinutes      int     `json:"trip_minutes"`
	DriverETAMinutes int     `json:"driver_eta_minutes"`
	BusyMessage      string  `json:"busy_message"`
}

// DispatchResult is the single JSON-serializable output contract consumed
// by the conversation layer.
type DispatchResult struct {
	DetectedArea         string          `json:"detected_area,omitempty"`
	RegionSource         RegionSource    `json:"region_source"`
	Phone                PhoneInfo       `json:"phone"`
	Pickup               ResolvedAddress `json:"pickup"`
	Dropoff              ResolvedAddress `json:"dropoff"`
	ScheduledTime        string          `json:"scheduled_time,omitempty"`
	Status               Status          `json:"status"`
	ClarificationMessage string          `json:"clarification_message,omitempty"`
	DistanceWarning      string          `json:"distance_warning,omitempty"`
	Fare                 *FareEstimate   `json:"fare,omitempty"`
	Zone                 *Zone           `json:"zone,omitempty"`
}

// Ambiguous reports whether either side still needs clarification.
func (dr *DispatchResult) Ambiguous() bool {
	return dr.Pickup.IsAmbiguous || dr.Dropoff.IsAmbiguous
}
