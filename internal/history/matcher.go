// Package history fuzzy-matches a spoken query against the caller's
// previously used addresses. A history hit is the strongest confidence
// signal in the pipeline and is never second-guessed downstream.
package history

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/internal/normalizer"
)

// Match is one accepted historical address.
type Match struct {
	Address string  `json:"address"`
	Score   float64 `json:"score"`
}

// Matcher scores historical addresses against one side's spoken text.
type Matcher struct {
	floor  float64
	logger *zap.Logger
}

func NewMatcher(floor float64, logger *zap.Logger) *Matcher {
	return &Matcher{floor: floor, logger: logger}
}

// Match returns the best historical address at or above the similarity
// floor, or nil. otherSideCity is the city inferred from the opposite
// side's input; a candidate in that city earns a bonus. Candidates are
// scanned oldest-first and ties go to the most recent entry.
func (m *Matcher) Match(queryText, otherSideCity string, addresses []string) *Match {
	key := normalizer.StreetKey(queryText)
	if key == "" || len(addresses) == 0 {
		return nil
	}
	queryWords := normalizer.SignificantWords(queryText)

	var best *Match
	for _, addr := range addresses {
		score := m.score(key, queryWords, addr, otherSideCity)
		if score < m.floor {
			continue
		}
		if best == nil || score >= best.Score {
			best = &Match{Address: addr, Score: score}
		}
	}
	if best != nil {
		m.logger.Debug("caller history matched",
			zap.String("street_key", key),
			zap.String("address", best.Address),
			zap.Float64("score", best.Score))
	}
	return best
}

func (m *Matcher) score(queryKey string, queryWords []string, candidate, otherSideCity string) float64 {
	candKey := normalizer.StreetKey(candidate)
	if candKey == "" {
		return 0
	}

	var score float64
	switch {
	case candKey == queryKey:
		score = 1.0
	default:
		score = wordOverlap(queryWords, candidate) * 0.9
		if fuzzy := keySimilarity(queryKey, candKey) * 0.85; fuzzy > score {
			score = fuzzy
		}
		if score < 0.75 && containment(queryKey, candKey) {
			score = 0.75
		}
	}

	norm := normalizer.Normalize(candidate)
	if otherSideCity != "" && strings.Contains(norm, normalizer.Normalize(otherSideCity)) {
		score += 0.05
	}
	if normalizer.HasPostcode(candidate) {
		score += 0.03
	}
	return math.Min(score, 1.0)
}

func wordOverlap(queryWords []string, candidate string) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	candWords := map[string]bool{}
	for _, w := range normalizer.SignificantWords(candidate) {
		candWords[w] = true
	}
	matched := 0
	for _, w := range queryWords {
		if candWords[w] {
			matched++
		}
	}
	return float64(matched) / float64(len(queryWords))
}

// keySimilarity combines Jaro-Winkler with length-normalized edit
// distance and keeps the larger.
func keySimilarity(a, b string) float64 {
	jw := smetrics.JaroWinkler(a, b, 0.7, 4)
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := math.Max(float64(len(a)), float64(len(b)))
	lev := 0.0
	if maxLen > 0 {
		lev = 1.0 - float64(dist)/maxLen
	}
	return math.Max(jw, lev)
}

func containment(queryKey, candKey string) bool {
	return strings.Contains(candKey, queryKey) || strings.Contains(queryKey, candKey)
}
