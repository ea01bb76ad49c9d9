package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/internal/external"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/normalizer"
)

// runExtract is the context extractor: phone analysis plus per-side
// hint extraction. Pure; absence of every signal is still a success.
func (p *Pipeline) runExtract(ctx context.Context, st *State) error {
	st.Result.Phone = p.phones.Analyze(st.Query.CallerPhone)
	st.Result.ScheduledTime = strings.TrimSpace(st.Query.PickupTimeText)

	for _, side := range bothSides {
		h := p.extractor.Extract(st.Texts[side])
		if p.useLibpostal {
			if c := external.Split(st.Texts[side]); c.Available {
				if h.HouseNumber == "" {
					h.HouseNumber = normalizer.Normalize(c.HouseNumber)
				}
				if h.Postcode == "" && c.Postcode != "" {
					h.Postcode = strings.ToUpper(c.Postcode)
				}
				if city := normalizer.Normalize(c.City); city != "" && p.extractor.CityCountry(city) != "" && !containsString(h.Areas, city) {
					h.Areas = append(h.Areas, city)
				}
			}
		}
		st.Hints[side] = h
		st.Certainty[side] = certaintyFallback
		if len(h.Areas) > 0 {
			st.Certainty[side] = certaintyAreaNamed
		}
		if h.Postcode != "" {
			st.Certainty[side] = certaintyPostcode
		}
	}

	p.logger.Debug("context extracted",
		zap.Bool("phone_valid", st.Result.Phone.Valid),
		zap.String("landline_city", st.Result.Phone.LandlineCity),
		zap.Any("pickup_hints", st.Hints[Pickup]),
		zap.Any("dropoff_hints", st.Hints[Dropoff]))
	return nil
}

// runHistory matches each side against the caller's previous addresses.
// Precondition: hints extracted. A match is final for that side.
func (p *Pipeline) runHistory(ctx context.Context, st *State) error {
	if st.Profile == nil || len(st.Profile.Addresses) == 0 {
		return nil
	}

	for _, side := range bothSides {
		otherCity := p.sideCity(st, side.Other())
		m := p.history.Match(st.Texts[side], otherCity, st.Profile.Addresses)
		if m == nil {
			continue
		}

		addr := st.Address(side)
		addr.Address = m.Address
		addr.StreetName = normalizer.StreetKey(m.Address)
		addr.MatchedFromHistory = true
		addr.IsAmbiguous = false
		if pc := postcodeOf(m.Address); pc != "" {
			addr.Postcode = pc
		}
		if city := p.cityIn(m.Address); city != "" {
			addr.City = city
		}

		st.HistoryMatched[side] = true
		st.Certainty[side] = certaintyHistory
		// The canonical historical string is what the oracle geocodes.
		st.Texts[side] = m.Address

		p.logger.Info("side resolved from caller history",
			zap.String("side", side.String()),
			zap.Float64("score", m.Score))
	}
	return nil
}

// sideCity infers a city for one side from its hints, used as the
// cross-side bonus signal by the history matcher.
func (p *Pipeline) sideCity(st *State, side Side) string {
	if len(st.Hints[side].Areas) > 0 {
		return st.Hints[side].Areas[0]
	}
	return ""
}

// cityIn scans an address string for a known city name.
func (p *Pipeline) cityIn(address string) string {
	for _, a := range p.extractor.Extract(address).Areas {
		return strings.Title(a)
	}
	return ""
}

func postcodeOf(address string) string {
	h := normalizer.NewPatternExtractor().Extract(address)
	return h.Postcode
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
