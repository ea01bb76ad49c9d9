package pipeline

import (
	"context"
	"strings"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
)

// runRegion fixes the detected operating area and its source, working
// down the signal-priority ladder: caller history, landline area code,
// an area spoken in the text, a resolved landmark, then the nearest
// curated point.
func (p *Pipeline) runRegion(ctx context.Context, st *State) error {
	res := st.Result

	for _, side := range bothSides {
		if st.HistoryMatched[side] {
			if area := firstNonEmpty(st.Address(side).Area, st.Address(side).City); area != "" {
				res.DetectedArea = area
				res.RegionSource = models.RegionFromHistory
				return nil
			}
		}
	}
	if res.Phone.Valid && !res.Phone.Mobile && res.Phone.LandlineCity != "" {
		res.DetectedArea = res.Phone.LandlineCity
		res.RegionSource = models.RegionFromLandline
		return nil
	}
	for _, side := range bothSides {
		if len(st.Hints[side].Areas) > 0 {
			res.DetectedArea = strings.Title(st.Hints[side].Areas[0])
			res.RegionSource = models.RegionFromText
			return nil
		}
	}
	for _, side := range bothSides {
		addr := st.Address(side)
		if addr.MatchType == models.MatchPOI && addr.Area != "" {
			res.DetectedArea = addr.Area
			res.RegionSource = models.RegionFromLandmark
			return nil
		}
	}
	for _, side := range bothSides {
		addr := st.Address(side)
		if addr.CoordSource == models.CoordSourceReference && addr.Area != "" {
			res.DetectedArea = addr.Area
			res.RegionSource = models.RegionFromNearestPOI
			return nil
		}
	}
	for _, side := range bothSides {
		if area := firstNonEmpty(st.Address(side).Area, st.Address(side).City); area != "" {
			res.DetectedArea = area
			res.RegionSource = models.RegionUnknown
			return nil
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
