package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/geo"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/normalizer"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/refstore"
)

// runVerify checks every non-history side against the curated reference
// dataset: classifies street vs point of interest, measures coordinate
// drift and collects the districts the name is known in. The reference
// dataset is authoritative for placement but never for rejection: a
// name it does not know keeps its oracle answer.
func (p *Pipeline) runVerify(ctx context.Context, st *State) error {
	if p.ref == nil {
		p.logger.Debug("reference store absent, verification skipped")
		return nil
	}

	for _, side := range bothSides {
		if st.HistoryMatched[side] {
			continue
		}
		if err := p.verifySide(ctx, st, side); err != nil {
			if errors.Is(err, refstore.ErrUnavailable) {
				p.logger.Warn("reference store unavailable, side kept on oracle signal",
					zap.String("side", side.String()))
				continue
			}
			return err
		}
	}
	return nil
}

func (p *Pipeline) verifySide(ctx context.Context, st *State, side Side) error {
	addr := st.Address(side)
	addr.MatchType = classify(addr.StreetName, addr.StreetNumber)

	name := addr.StreetName
	if name == "" {
		name = normalizer.StreetKey(st.Texts[side])
	}
	if name == "" {
		return nil
	}

	entries, err := p.ref.Lookup(ctx, name)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	// Reference placement beats the spoken classification.
	addr.MatchType = entries[0].Kind

	districts := uniqueAreas(entries)
	st.Districts[side] = mergeDistricts(districts, st.Districts[side])

	if len(districts) == 1 {
		entry := pickByArea(entries, districts[0])
		p.adoptEntry(st, side, entry)
		// One known placement removes any doubt the oracle raised.
		if addr.IsAmbiguous {
			st.ClearAmbiguity(side)
		}
		return nil
	}

	// The name occurs in several districts. If the caller named one of
	// them we can settle it here; otherwise the enforcer takes over.
	for _, area := range st.Hints[side].Areas {
		if entry := matchArea(entries, area); entry != nil {
			p.adoptEntry(st, side, *entry)
			if addr.IsAmbiguous {
				st.ClearAmbiguity(side)
			}
			return nil
		}
	}
	return nil
}

// adoptEntry settles a side on one reference entry: area, zone hints
// and, when the oracle drifted too far or never answered, coordinates.
func (p *Pipeline) adoptEntry(st *State, side Side, entry models.ReferenceStreetEntry) {
	addr := st.Address(side)
	if addr.Area == "" {
		addr.Area = entry.Area
	}
	if addr.City == "" {
		addr.City = entry.City
	}

	switch {
	case !addr.HasCoords():
		addr.Latitude = entry.Latitude
		addr.Longitude = entry.Longitude
		addr.CoordSource = models.CoordSourceReference
	default:
		drift := geo.Miles(addr.Latitude, addr.Longitude, entry.Latitude, entry.Longitude)
		addr.DriftMiles = &drift
		// Streets are long; only a point of interest gets snapped back
		// onto its curated pin.
		if drift > p.thresholds.DriftThresholdMiles && addr.MatchType == models.MatchPOI {
			p.logger.Info("oracle drifted from curated pin, reference wins",
				zap.String("side", side.String()),
				zap.Float64("drift_miles", drift))
			addr.Latitude = entry.Latitude
			addr.Longitude = entry.Longitude
			addr.CoordSource = models.CoordSourceReference
		}
	}

	if st.Certainty[side] < certaintyVerified {
		st.Certainty[side] = certaintyVerified
	}
}

// classify falls back on the spoken shape: a house number or a street
// suffix means a street, anything else reads as a point of interest.
func classify(streetName, streetNumber string) models.MatchType {
	if streetNumber != "" || normalizer.HasStreetSuffix(streetName) {
		return models.MatchStreet
	}
	return models.MatchPOI
}

func uniqueAreas(entries []models.ReferenceStreetEntry) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range entries {
		if e.Area == "" || seen[e.Area] {
			continue
		}
		seen[e.Area] = true
		out = append(out, e.Area)
	}
	return out
}

// mergeDistricts keeps reference districts ahead of oracle ones,
// dropping duplicates case-insensitively.
func mergeDistricts(ref, existing []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, lists := range [][]string{ref, existing} {
		for _, d := range lists {
			k := normalizer.Normalize(d)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, d)
		}
	}
	return out
}

func pickByArea(entries []models.ReferenceStreetEntry, area string) models.ReferenceStreetEntry {
	for _, e := range entries {
		if e.Area == area {
			return e
		}
	}
	return entries[0]
}

func matchArea(entries []models.ReferenceStreetEntry, area string) *models.ReferenceStreetEntry {
	want := normalizer.Normalize(area)
	for i := range entries {
		if normalizer.Normalize(entries[i].Area) == want {
			return &entries[i]
		}
	}
	return nil
}
