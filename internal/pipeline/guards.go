package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/geo"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/normalizer"
)

// runGuards applies the correction guards in fixed order: spoken house
// number, spoken postcode anchor, identical coordinates, shared
// postcode, trip distance. Guards mutate the less certain side only;
// a history match is never corrected.
func (p *Pipeline) runGuards(ctx context.Context, st *State) error {
	for _, side := range bothSides {
		if st.HistoryMatched[side] {
			continue
		}
		p.guardHouseNumber(st, side)
		p.guardPostcodeAnchor(ctx, st, side)
	}
	p.guardIdenticalCoords(ctx, st)
	p.guardSharedPostcode(st)
	p.guardDistance(st)
	return nil
}

// guardHouseNumber keeps the caller's spoken house number over whatever
// the oracle substituted. The caller knows their own door.
func (p *Pipeline) guardHouseNumber(st *State, side Side) {
	spoken := st.Hints[side].HouseNumber
	addr := st.Address(side)
	if spoken == "" || addr.StreetNumber == spoken {
		return
	}
	// No number resolved at all is not a conflict; the spoken one just
	// fills the gap.
	if addr.StreetNumber == "" {
		addr.StreetNumber = spoken
		return
	}

	p.logger.Info("spoken house number overrides resolved one",
		zap.String("side", side.String()),
		zap.String("spoken", spoken),
		zap.String("resolved", addr.StreetNumber))

	if addr.OriginalInput == "" {
		addr.OriginalInput = addr.Address
	}
	addr.StreetNumber = spoken
	addr.Address = replaceHouseNumber(addr.Address, spoken)
	addr.AddressModified = true
	addr.ModificationReason = "caller house number kept"
}

// guardPostcodeAnchor re-geocodes a side when the caller spoke a full
// postcode the resolver contradicted. The spoken postcode is the
// anchor: the street placement moves, not the postcode.
func (p *Pipeline) guardPostcodeAnchor(ctx context.Context, st *State, side Side) {
	spoken := st.Hints[side].Postcode
	addr := st.Address(side)
	if spoken == "" || samePostcode(spoken, addr.Postcode) {
		return
	}
	addr.Postcode = spoken

	if p.revgeo == nil {
		return
	}
	hit, err := p.revgeo.Lookup(ctx, strings.TrimSpace(addr.StreetName+" "+spoken))
	if err != nil {
		p.logger.Warn("postcode re-geocode failed, keeping coordinates",
			zap.String("side", side.String()), zap.Error(err))
		return
	}
	addr.Latitude = hit.Latitude
	addr.Longitude = hit.Longitude
	addr.CoordSource = models.CoordSourceReverse

	// Keeping the spoken postcode is not a modification; losing the
	// spoken street to the re-geocode is.
	if addr.StreetName != "" &&
		!strings.Contains(normalizer.Normalize(hit.DisplayName), normalizer.Normalize(addr.StreetName)) {
		if addr.OriginalInput == "" {
			addr.OriginalInput = addr.Address
		}
		addr.AddressModified = true
		addr.ModificationReason = "street moved by postcode anchor"
	}
	p.logger.Info("side re-anchored on spoken postcode",
		zap.String("side", side.String()),
		zap.String("postcode", spoken))
}

// guardIdenticalCoords catches both sides landing on the same point (or
// implausibly close) while the caller clearly named two places. The
// less certain side is re-geocoded once; if that fails the side is
// handed back to the caller.
func (p *Pipeline) guardIdenticalCoords(ctx context.Context, st *State) {
	if st.identicalGuardFired {
		return
	}
	pick, drop := st.Address(Pickup), st.Address(Dropoff)
	if !pick.HasCoords() || !drop.HasCoords() {
		return
	}

	same := geo.SamePoint(pick.Latitude, pick.Longitude, drop.Latitude, drop.Longitude)
	tooClose := geo.Meters(pick.Latitude, pick.Longitude, drop.Latitude, drop.Longitude) < p.thresholds.MinSeparationMeters
	differentStreets := normalizer.StreetKey(st.Texts[Pickup]) != normalizer.StreetKey(st.Texts[Dropoff])
	if !same && !(tooClose && differentStreets) {
		return
	}
	st.identicalGuardFired = true

	doubt := st.LessCertain()
	addr := st.Address(doubt)
	p.logger.Warn("pickup and drop-off collapsed onto one point",
		zap.String("doubted_side", doubt.String()))

	if p.revgeo != nil {
		hit, err := p.revgeo.Lookup(ctx, st.Texts[doubt])
		if err == nil {
			other := st.Address(doubt.Other())
			// The reattempt only counts when it clears the minimum
			// separation; a point a few metres over is the same place.
			if geo.Meters(hit.Latitude, hit.Longitude, other.Latitude, other.Longitude) >= p.thresholds.MinSeparationMeters {
				addr.Latitude = hit.Latitude
				addr.Longitude = hit.Longitude
				addr.CoordSource = models.CoordSourceReverse
				p.logger.Info("collapsed side re-geocoded apart",
					zap.String("side", doubt.String()))
				return
			}
		}
	}

	st.guardDoubt[doubt] = true
	st.MarkAmbiguous(doubt, fmt.Sprintf(
		"I have the %s at the same place as the %s. Could you give me the %s again?",
		doubt.String(), doubt.Other().String(), doubt.String()), nil)
}

// guardSharedPostcode drops a postcode that appears on both sides when
// the streets differ; it almost always belongs to only one of them.
func (p *Pipeline) guardSharedPostcode(st *State) {
	pick, drop := st.Address(Pickup), st.Address(Dropoff)
	if pick.Postcode == "" || !samePostcode(pick.Postcode, drop.Postcode) {
		return
	}
	if normalizer.StreetKey(pick.Address) == normalizer.StreetKey(drop.Address) {
		return
	}

	doubt := st.LessCertain()
	// Never strip a postcode the caller actually spoke.
	if st.ExplicitPostcode(doubt) {
		doubt = doubt.Other()
		if st.ExplicitPostcode(doubt) {
			return
		}
	}
	p.logger.Info("shared postcode stripped from less certain side",
		zap.String("side", doubt.String()),
		zap.String("postcode", st.Address(doubt).Postcode))
	st.Address(doubt).Postcode = ""
}

// guardDistance warns on long trips and refuses implausible ones. Past
// the hard limit the less certain side goes back to the caller and no
// fare is quoted.
func (p *Pipeline) guardDistance(st *State) {
	pick, drop := st.Address(Pickup), st.Address(Dropoff)
	if !pick.HasCoords() || !drop.HasCoords() {
		return
	}
	miles := geo.Miles(pick.Latitude, pick.Longitude, drop.Latitude, drop.Longitude)

	crossCountry := false
	pc, dc := geo.CountryFromCoords(pick.Latitude, pick.Longitude), geo.CountryFromCoords(drop.Latitude, drop.Longitude)
	if pc != "" && dc != "" && pc != dc {
		crossCountry = true
	}

	switch {
	case miles > p.thresholds.MaxDistanceMiles || crossCountry:
		doubt := st.LessCertain()
		st.Result.DistanceWarning = fmt.Sprintf(
			"The resolved trip is %.0f miles, which is outside our operating range.", miles)
		st.guardDoubt[doubt] = true
		st.MarkAmbiguous(doubt, fmt.Sprintf(
			"That journey comes out at about %.0f miles, which doesn't look right. Could you confirm the %s address?",
			miles, doubt.String()), nil)
		p.logger.Warn("trip distance over hard limit",
			zap.Float64("miles", miles),
			zap.Bool("cross_country", crossCountry),
			zap.String("doubted_side", doubt.String()))
	case miles > p.thresholds.WarnDistanceMiles:
		st.Result.DistanceWarning = fmt.Sprintf(
			"Long trip: the resolved journey is about %.0f miles.", miles)
		p.logger.Info("long trip", zap.Float64("miles", miles))
	}
}

func samePostcode(a, b string) bool {
	norm := func(s string) string {
		return strings.ToUpper(strings.Join(strings.Fields(s), " "))
	}
	return b != "" && norm(a) == norm(b)
}

// replaceHouseNumber swaps the leading house number of an address for
// the spoken one, or prefixes it when the address has none.
func replaceHouseNumber(address, number string) string {
	fields := strings.Fields(address)
	if len(fields) > 0 && leadingDigit(fields[0]) {
		fields[0] = number
		return strings.Join(fields, " ")
	}
	return number + " " + address
}

func leadingDigit(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}
