package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/config"
	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/normalizer"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/oracle"
)

// runOracle sends both sides to the external geocoding capability and
// folds the validated answer into the state. ErrUnavailable is fatal;
// a malformed answer follows the configured fail policy instead.
func (p *Pipeline) runOracle(ctx context.Context, st *State) error {
	req := &oracle.ResolveRequest{
		PickupText:   st.Texts[Pickup],
		DropoffText:  st.Texts[Dropoff],
		Phone:        st.Result.Phone,
		PickupHints:  st.Hints[Pickup],
		DropoffHints: st.Hints[Dropoff],
	}
	if st.Profile != nil {
		req.History = st.Profile.Addresses
	}

	resp, err := p.oracle.Resolve(ctx, req)
	if err != nil {
		if errors.Is(err, oracle.ErrUnavailable) {
			return err
		}
		// Malformed after retry.
		if p.failPolicy == config.FailSoft {
			p.failSoft(st)
			return nil
		}
		p.failClosed(st)
		return nil
	}

	p.applySide(st, Pickup, resp.Pickup)
	p.applySide(st, Dropoff, resp.Dropoff)

	if resp.Area != "" && st.Result.DetectedArea == "" {
		st.Result.DetectedArea = resp.Area
	}
	return nil
}

// applySide merges one validated oracle side into the state. A side the
// history matcher already settled keeps its address text; the oracle
// only contributes coordinates and structure for it.
func (p *Pipeline) applySide(st *State, side Side, sr *oracle.SideResult) {
	addr := st.Address(side)

	if sr.HasCoords() {
		addr.Latitude = *sr.Latitude
		addr.Longitude = *sr.Longitude
		addr.CoordSource = models.CoordSourceOracle
		if st.HistoryMatched[side] {
			addr.CoordSource = models.CoordSourceHistory
		}
	}

	if len(sr.Districts) > 0 {
		st.Districts[side] = append(st.Districts[side], sr.Districts...)
	}

	if st.HistoryMatched[side] {
		if addr.Postcode == "" {
			addr.Postcode = sr.Postcode
		}
		if addr.City == "" {
			addr.City = sr.City
		}
		return
	}

	addr.Address = sr.Address
	addr.StreetName = sr.StreetName
	if addr.StreetName == "" {
		addr.StreetName = normalizer.StreetKey(sr.Address)
	}
	addr.StreetNumber = sr.StreetNumber
	if addr.StreetNumber == "" {
		addr.StreetNumber = st.Hints[side].HouseNumber
	}
	addr.Postcode = sr.Postcode
	addr.City = sr.City

	if st.Certainty[side] < certaintyOracle {
		st.Certainty[side] = certaintyOracle
	}

	if sr.Ambiguous {
		st.MarkAmbiguous(side, clarifySideMessage(side), sr.Alternatives)
	}

	p.logger.Debug("oracle side applied",
		zap.String("side", side.String()),
		zap.String("street", addr.StreetName),
		zap.Bool("ambiguous", sr.Ambiguous))
}

// failSoft ships the raw caller input as an unverified address for any
// side the history matcher did not settle.
func (p *Pipeline) failSoft(st *State) {
	p.logger.Warn("oracle answer malformed, shipping raw input")
	for _, side := range bothSides {
		if st.HistoryMatched[side] {
			continue
		}
		addr := st.Address(side)
		addr.Address = st.Texts[side]
		addr.StreetName = normalizer.StreetKey(st.Texts[side])
		addr.CoordSource = models.CoordSourceNone
	}
}

// failClosed turns a malformed oracle answer into a clarification for
// both unsettled sides.
func (p *Pipeline) failClosed(st *State) {
	p.logger.Warn("oracle answer malformed, requesting clarification")
	for _, side := range bothSides {
		if st.HistoryMatched[side] {
			continue
		}
		addr := st.Address(side)
		addr.Address = st.Texts[side]
		addr.CoordSource = models.CoordSourceNone
		st.MarkAmbiguous(side,
			"Sorry, I didn't quite catch those addresses. Could you repeat the pickup and drop-off for me?", nil)
	}
}

func clarifySideMessage(side Side) string {
	if side == Pickup {
		return "Which pickup address did you mean?"
	}
	return "Which drop-off address did you mean?"
}
