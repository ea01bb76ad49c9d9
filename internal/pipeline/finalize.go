package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/fare"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/geo"
)

// runFinalize settles the output contract: a consistent status and
// clarification message, a fare only for a dispatchable trip and the
// dispatch zone of the pickup. Runs last so every correction the guards
// made is already priced in.
func (p *Pipeline) runFinalize(ctx context.Context, st *State) error {
	res := st.Result

	for _, side := range bothSides {
		addr := st.Address(side)
		if addr.CoordSource == "" {
			addr.CoordSource = models.CoordSourceNone
		}
	}

	if res.Status != models.StatusError {
		if res.Ambiguous() {
			res.Status = models.StatusClarificationNeeded
			if res.ClarificationMessage == "" {
				res.ClarificationMessage = "Could you confirm the pickup and drop-off addresses for me?"
			}
		} else {
			res.Status = models.StatusReady
			res.ClarificationMessage = ""
		}
	}

	if res.Pickup.HasCoords() && res.Dropoff.HasCoords() && p.fareQuotable(st) {
		country := geo.CountryFromCoords(res.Pickup.Latitude, res.Pickup.Longitude)
		res.Fare = p.fares.Estimate(
			res.Pickup.Latitude, res.Pickup.Longitude,
			res.Dropoff.Latitude, res.Dropoff.Longitude,
			fare.CurrencyFor(country))
	}

	if p.zones != nil && res.Pickup.HasCoords() {
		res.Zone = p.zones.Find(res.Pickup.Latitude, res.Pickup.Longitude)
	}

	p.logger.Info("resolution finished",
		zap.String("status", string(res.Status)),
		zap.String("area", res.DetectedArea),
		zap.String("region_source", string(res.RegionSource)),
		zap.Bool("fare_quoted", res.Fare != nil))
	return nil
}

// fareQuotable keeps a best-effort quote on the result even while a
// clarification is owed. Only a trip the distance guard refused, too
// long or crossing a border, ships unpriced.
func (p *Pipeline) fareQuotable(st *State) bool {
	if !st.Result.Ambiguous() {
		return true
	}
	pick, drop := st.Address(Pickup), st.Address(Dropoff)
	if geo.Miles(pick.Latitude, pick.Longitude, drop.Latitude, drop.Longitude) > p.thresholds.MaxDistanceMiles {
		return false
	}
	pickCountry := geo.CountryFromCoords(pick.Latitude, pick.Longitude)
	dropCountry := geo.CountryFromCoords(drop.Latitude, drop.Longitude)
	if pickCountry != "" && dropCountry != "" && pickCountry != dropCountry {
		return false
	}
	return true
}
