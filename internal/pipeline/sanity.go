package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/xrash/smetrics"
	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/geo"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/normalizer"
)

// Phonetic verdicts over one resolved street name.
type sanityVerdict int

const (
	verdictMatch sanityVerdict = iota
	verdictUncertain
	verdictMismatch
)

// Similarity bands for the phonetic check. Between them the verdict is
// uncertain and the answer ships as-is.
const (
	sanityMatchJW    = 0.85
	sanityMismatchJW = 0.60
)

// runSanity is the last line against misheard speech and oracle
// hallucination: each doubtful side's transcript is compared
// phonetically against the street the pipeline actually resolved. A
// clear divergence is corrected from the curated dataset when the best
// candidate is close enough, otherwise the caller decides.
func (p *Pipeline) runSanity(ctx context.Context, st *State) error {
	if p.ref == nil || st.BothAuthoritative() {
		return nil
	}

	farTrip := p.tripSuspicious(st)

	for _, side := range bothSides {
		if st.HistoryMatched[side] || st.ExplicitPostcode(side) {
			continue
		}
		addr := st.Address(side)
		spoken := normalizer.StreetKey(st.Texts[side])
		if spoken == "" {
			continue
		}
		nameDoubt := addr.IsAmbiguous && len(addr.Alternatives) == 0 && !st.guardDoubt[side]
		misheard := spoken != normalizer.Normalize(addr.StreetName)
		if !nameDoubt && !farTrip && !misheard {
			continue
		}
		if err := p.sanityCheckSide(ctx, st, side, spoken); err != nil {
			p.logger.Warn("phonetic check unavailable",
				zap.String("side", side.String()), zap.Error(err))
			return nil
		}
	}
	return nil
}

func (p *Pipeline) tripSuspicious(st *State) bool {
	pick, drop := st.Address(Pickup), st.Address(Dropoff)
	if !pick.HasCoords() || !drop.HasCoords() {
		return false
	}
	return geo.Miles(pick.Latitude, pick.Longitude, drop.Latitude, drop.Longitude) > p.thresholds.SanityDistanceMiles
}

func (p *Pipeline) sanityCheckSide(ctx context.Context, st *State, side Side, spoken string) error {
	addr := st.Address(side)

	switch judge(spoken, addr.StreetName) {
	case verdictMatch:
		// The answer sounds like what the caller said; a lingering name
		// doubt without alternatives can be lifted. Doubt a guard raised
		// stays, a phonetic match says nothing about the trip itself.
		if addr.IsAmbiguous && len(addr.Alternatives) == 0 && !st.guardDoubt[side] {
			st.ClearAmbiguity(side)
		}
		return nil
	case verdictUncertain:
		return nil
	case verdictMismatch:
	}

	matches, err := p.ref.Fuzzy(ctx, spoken, 0)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		// Empty dataset; nothing to correct against, so the resolved
		// answer stands.
		return nil
	}
	best := matches[0]

	if best.Similarity >= p.thresholds.SanityCorrectFloor {
		p.correctSide(st, side, best.Entry)
		return nil
	}

	alts := make([]string, 0, len(matches))
	for i, m := range matches {
		if i == p.thresholds.MaxClarifyDistricts {
			break
		}
		alts = append(alts, fmt.Sprintf("%s, %s", m.Entry.Name, m.Entry.Area))
	}
	st.MarkAmbiguous(side, fmt.Sprintf(
		"I heard %s for the %s but I can't find it. Did you mean %s?",
		strings.Title(spoken), side.String(), spokenList(alts)), alts)
	return nil
}

// judge compares what the caller said with a street name using string
// similarity backed by a phonetic code, so "Bellvue" still matches
// "Bellevue" while "Russell" never matches "Rossville".
func judge(spoken, candidate string) sanityVerdict {
	a, b := normalizer.Normalize(spoken), normalizer.Normalize(candidate)
	jw := smetrics.JaroWinkler(a, b, 0.7, 4)
	sameSound := soundexWords(a) == soundexWords(b)

	switch {
	case jw >= sanityMatchJW || sameSound:
		return verdictMatch
	case jw < sanityMismatchJW && !sameSound:
		return verdictMismatch
	default:
		return verdictUncertain
	}
}

// soundexWords encodes each word separately; encoding a whole phrase
// collapses everything after its first consonants.
func soundexWords(s string) string {
	words := strings.Fields(s)
	codes := make([]string, 0, len(words))
	for _, w := range words {
		codes = append(codes, smetrics.Soundex(w))
	}
	return strings.Join(codes, " ")
}

// correctSide swaps a misheard street for its curated counterpart,
// keeping the original transcript on the record.
func (p *Pipeline) correctSide(st *State, side Side, entry models.ReferenceStreetEntry) {
	addr := st.Address(side)
	p.logger.Info("street corrected from reference dataset",
		zap.String("side", side.String()),
		zap.String("resolved", addr.StreetName),
		zap.String("corrected", entry.Name))

	if addr.OriginalInput == "" {
		addr.OriginalInput = st.Texts[side]
	}
	addr.StreetName = entry.Name
	addr.Address = rebuildAddress(addr.StreetNumber, entry)
	addr.Area = entry.Area
	if entry.City != "" {
		addr.City = entry.City
	}
	addr.Latitude = entry.Latitude
	addr.Longitude = entry.Longitude
	addr.CoordSource = models.CoordSourceReference
	addr.MatchType = entry.Kind
	addr.AddressModified = true
	addr.ModificationReason = "phonetic correction"
	if st.Certainty[side] < certaintyVerified {
		st.Certainty[side] = certaintyVerified
	}
	st.ClearAmbiguity(side)
}

func rebuildAddress(number string, entry models.ReferenceStreetEntry) string {
	parts := []string{}
	name := entry.Name
	if number != "" {
		name = number + " " + name
	}
	parts = append(parts, name)
	if entry.Area != "" {
		parts = append(parts, entry.Area)
	}
	if entry.City != "" && entry.City != entry.Area {
		parts = append(parts, entry.City)
	}
	return strings.Join(parts, ", ")
}
