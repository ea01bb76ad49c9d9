package external

// Components is the libpostal view of one free-text query.
type Components struct {
	Available   bool
	HouseNumber string
	Road        string
	Area        string
	City        string
	Postcode    string
}
