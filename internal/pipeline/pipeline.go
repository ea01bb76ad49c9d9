// Package pipeline runs the ordered resolution stages that turn one
// spoken pickup/drop-off description into a verified DispatchResult.
//
// Stage order is fixed and enforced here, not by inline control flow:
// extract -> history -> oracle -> verify -> disambiguate -> guards ->
// sanity -> region -> finalize. Every stage is best-effort; only an
// unavailable oracle aborts a run.
package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/config"
	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/fare"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/history"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/normalizer"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/oracle"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/phone"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/refstore"
)

// Certainty levels per signal, strongest first. Guards use these to
// decide which side to doubt.
const (
	certaintyHistory   = 1.0
	certaintyPostcode  = 0.9
	certaintyAreaNamed = 0.8
	certaintyVerified  = 0.75
	certaintyOracle    = 0.6
	certaintyFallback  = 0.3
)

// stage is one named step over the shared state. Run returns an error
// for logging only, except the oracle stage, whose ErrUnavailable is
// fatal to the request.
type stage struct {
	name string

	// skipWhenAmbiguous marks the corrective stages that stop once a
	// clarification is already owed.
	skipWhenAmbiguous bool

	run func(ctx context.Context, st *State) error
}

// Pipeline owns the stages and their dependencies. Safe for concurrent
// use; all per-request state lives in State.
type Pipeline struct {
	thresholds   config.Thresholds
	failPolicy   string
	useLibpostal bool

	phones    *phone.Analyzer
	extractor *normalizer.PatternExtractor
	history   *history.Matcher
	oracle    Oracle
	ref       refstore.Store
	revgeo    ReverseGeocoder
	fares     *fare.Calculator
	zones     *refstore.ZoneStore
	logger    *zap.Logger

	stages []stage
}

// Deps carries everything a Pipeline needs. Ref, RevGeo and Zones may
// be nil: the corresponding stages degrade per the error-handling
// policy rather than crash.
type Deps struct {
	Thresholds   config.Thresholds
	FailPolicy   string
	UseLibpostal bool
	Phones       *phone.Analyzer
	Extractor    *normalizer.PatternExtractor
	History      *history.Matcher
	Oracle       Oracle
	Ref          refstore.Store
	RevGeo       ReverseGeocoder
	Fares        *fare.Calculator
	Zones        *refstore.ZoneStore
	Logger       *zap.Logger
}

func New(d Deps) *Pipeline {
	p := &Pipeline{
		thresholds:   d.Thresholds,
		failPolicy:   d.FailPolicy,
		useLibpostal: d.UseLibpostal,
		phones:       d.Phones,
		extractor:    d.Extractor,
		history:      d.History,
		oracle:       d.Oracle,
		ref:          d.Ref,
		revgeo:       d.RevGeo,
		fares:        d.Fares,
		zones:        d.Zones,
		logger:       d.Logger,
	}
	p.stages = []stage{
		{name: "extract", run: p.runExtract},
		{name: "history", run: p.runHistory},
		{name: "oracle", run: p.runOracle},
		{name: "verify", run: p.runVerify},
		{name: "disambiguate", run: p.runDisambiguate},
		{name: "guards", skipWhenAmbiguous: true, run: p.runGuards},
		{name: "sanity", run: p.runSanity},
		{name: "region", run: p.runRegion},
		{name: "finalize", run: p.runFinalize},
	}
	return p
}

// Resolve runs the full pipeline for one query. The returned result is
// always usable; the error is non-nil only when the oracle was
// unavailable, in which case the result carries status "error".
func (p *Pipeline) Resolve(ctx context.Context, query models.AddressQuery, profile *models.CallerProfile) (*models.DispatchResult, error) {
	st := NewState(query, profile)

	for _, s := range p.stages {
		if s.skipWhenAmbiguous && st.Result.Ambiguous() {
			p.logger.Debug("stage skipped, clarification already owed", zap.String("stage", s.name))
			continue
		}
		if err := s.run(ctx, st); err != nil {
			if errors.Is(err, oracle.ErrUnavailable) {
				st.Result.Status = models.StatusError
				st.Result.ClarificationMessage = "The address service is temporarily unavailable."
				return st.Result, err
			}
			p.logger.Warn("stage degraded", zap.String("stage", s.name), zap.Error(err))
		}
	}
	return st.Result, nil
}
