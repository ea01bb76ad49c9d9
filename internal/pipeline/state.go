package pipeline

import (
	"context"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/normalizer"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/oracle"
)

// Side indexes the two halves of a trip throughout the pipeline.
type Side int

const (
	Pickup  Side = 0
	Dropoff Side = 1
)

func (s Side) String() string {
	if s == Pickup {
		return "pickup"
	}
	return "dropoff"
}

func (s Side) Other() Side {
	return 1 - s
}

var bothSides = [2]Side{Pickup, Dropoff}

// Oracle is the pipeline's view of the external geocoding capability.
type Oracle interface {
	Resolve(ctx context.Context, req *oracle.ResolveRequest) (*oracle.ResolveResponse, error)
}

// ReverseGeocoder is the correction guards' re-geocoding boundary.
type ReverseGeocoder interface {
	Lookup(ctx context.Context, query string) (*models.GeocodeHit, error)
}

// State is the shared resolution state the ordered stages mutate. Built
// fresh per request, discarded after the DispatchResult is returned.
type State struct {
	Query   models.AddressQuery
	Profile *models.CallerProfile
	Result  *models.DispatchResult

	// Raw spoken text per side; replaced by the historical address when
	// the history matcher resolves a side.
	Texts [2]string

	// Explicit signals extracted before any network call.
	Hints [2]normalizer.Hints

	// Districts the street is known to occur in, reference first then
	// oracle. Consumed by the disambiguation enforcer.
	Districts [2][]string

	// Certainty ranks the sides so guards know which one to doubt.
	Certainty [2]float64

	HistoryMatched [2]bool

	// Doubt raised by a correction guard rather than by name
	// resolution. A phonetic match cannot lift it.
	guardDoubt [2]bool

	// Set once so the identical-coordinate guard fires at most once.
	identicalGuardFired bool
}

// NewState seeds the state with the query and an empty result.
func NewState(query models.AddressQuery, profile *models.CallerProfile) *State {
	st := &State{
		Query:   query,
		Profile: profile,
		Result: &models.DispatchResult{
			RegionSource: models.RegionUnknown,
			Status:       models.StatusReady,
		},
	}
	st.Texts[Pickup] = query.PickupText
	st.Texts[Dropoff] = query.DropoffText
	return st
}

// Address returns the mutable resolved address for a side.
func (st *State) Address(s Side) *models.ResolvedAddress {
	if s == Pickup {
		return &st.Result.Pickup
	}
	return &st.Result.Dropoff
}

// LessCertain picks the side the guards should doubt; ties doubt the
// drop-off, which callers state more loosely.
func (st *State) LessCertain() Side {
	if st.Certainty[Pickup] < st.Certainty[Dropoff] {
		return Pickup
	}
	return Dropoff
}

// MarkAmbiguous flags a side and records the clarification question.
// History matches are never degraded: the call is a no-op for them.
func (st *State) MarkAmbiguous(s Side, message string, alternatives []string) {
	if st.HistoryMatched[s] {
		return
	}
	addr := st.Address(s)
	addr.IsAmbiguous = true
	if len(alternatives) > 0 {
		addr.Alternatives = alternatives
	}
	st.Result.Status = models.StatusClarificationNeeded
	if message != "" {
		st.Result.ClarificationMessage = message
	}
}

// ClearAmbiguity lifts the flag for one side and, when the other side
// is clean too, restores the ready status.
func (st *State) ClearAmbiguity(s Side) {
	addr := st.Address(s)
	addr.IsAmbiguous = false
	addr.Alternatives = nil
	if !st.Result.Ambiguous() {
		st.Result.Status = models.StatusReady
		st.Result.ClarificationMessage = ""
	}
}

// ExplicitPostcode reports whether the caller spoke a full postcode for
// the side.
func (st *State) ExplicitPostcode(s Side) bool {
	return st.Hints[s].Postcode != ""
}

// BothAuthoritative reports whether both sides are already anchored by
// the strongest signals, which lets the sanity verifier be skipped.
func (st *State) BothAuthoritative() bool {
	if st.HistoryMatched[Pickup] && st.HistoryMatched[Dropoff] {
		return true
	}
	return st.ExplicitPostcode(Pickup) && st.ExplicitPostcode(Dropoff)
}
