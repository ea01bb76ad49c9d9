package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/internal/normalizer"
)

// Above this house number a long residential street has usually left
// its shared stretch, so the oracle's placement is trusted outright.
const highHouseNumber = 150

// runDisambiguate enforces the rule that a street known in more than
// one district never ships unchallenged: either a signal picks the
// district or the caller is asked, naming the districts when the list
// is short enough to speak.
func (p *Pipeline) runDisambiguate(ctx context.Context, st *State) error {
	for _, side := range bothSides {
		if st.HistoryMatched[side] {
			continue
		}
		p.disambiguateSide(ctx, st, side)
	}
	return nil
}

func (p *Pipeline) disambiguateSide(ctx context.Context, st *State, side Side) {
	addr := st.Address(side)
	districts := st.Districts[side]

	if len(districts) < 2 {
		return
	}
	// Already settled on a district by an earlier stage.
	if addr.Area != "" && !addr.IsAmbiguous {
		return
	}

	// The caller naming the district themselves is the strongest signal
	// there is; the raw transcript is scanned before anything else.
	raw := normalizer.Normalize(st.Texts[side])
	for _, d := range districts {
		if d == "" || !normalizer.ContainsWord(raw, normalizer.Normalize(d)) {
			continue
		}
		p.logger.Debug("caller named the district",
			zap.String("side", side.String()),
			zap.String("district", d))
		addr.Area = d
		if p.ref != nil {
			if entries, err := p.ref.Lookup(ctx, addr.StreetName); err == nil {
				if entry := matchArea(entries, d); entry != nil {
					p.adoptEntry(st, side, *entry)
				}
			}
		}
		st.ClearAmbiguity(side)
		return
	}

	// A full postcode pins the street regardless of how many districts
	// share the name.
	if st.ExplicitPostcode(side) {
		st.ClearAmbiguity(side)
		return
	}

	// High house numbers with a confident oracle placement resolve
	// themselves: the number picks the stretch, and the stretch sits in
	// exactly one of the candidate districts.
	if n, err := strconv.Atoi(strings.TrimRight(st.Hints[side].HouseNumber, "abcdefghij")); err == nil &&
		n >= highHouseNumber && addr.HasCoords() {
		p.logger.Debug("high house number settles multi-district street",
			zap.String("side", side.String()),
			zap.Int("house_number", n))
		if addr.Area == "" {
			addr.Area = districts[0]
		}
		st.ClearAmbiguity(side)
		return
	}

	street := addr.StreetName
	alts := make([]string, 0, len(districts))
	for _, d := range districts {
		alts = append(alts, fmt.Sprintf("%s, %s", strings.Title(street), d))
	}

	msg := p.clarifyDistrictsMessage(side, street, districts)
	st.MarkAmbiguous(side, msg, alts)
	p.logger.Info("multi-district street needs clarification",
		zap.String("side", side.String()),
		zap.String("street", street),
		zap.Strings("districts", districts))
}

// clarifyDistrictsMessage names the candidate districts when there are
// few enough to speak aloud, otherwise asks open-endedly.
func (p *Pipeline) clarifyDistrictsMessage(side Side, street string, districts []string) string {
	what := "pickup"
	if side == Dropoff {
		what = "drop-off"
	}
	if len(districts) > p.thresholds.MaxClarifyDistricts {
		return fmt.Sprintf("There are several streets called %s. Which part of town is your %s in?",
			strings.Title(street), what)
	}
	return fmt.Sprintf("Is that %s in %s for your %s?",
		strings.Title(street), spokenList(districts), what)
}

// spokenList joins names the way they would be read out: "A", "A or B",
// "A, B or C".
func spokenList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
	}
}
