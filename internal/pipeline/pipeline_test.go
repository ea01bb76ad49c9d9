package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

type stubOracle struct {
	resp    *oracle.ResolveResponse
	err     error
	calls   int
	lastReq *oracle.ResolveRequest
}

func (s *stubOracle) Resolve(ctx context.Context, req *oracle.ResolveRequest) (*oracle.ResolveResponse, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type stubRevGeo struct {
	hit   *models.GeocodeHit
	err   error
	calls int
}

func (s *stubRevGeo) Lookup(ctx context.Context, query string) (*models.GeocodeHit, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.hit, nil
}

func f64(v float64) *float64 { return &v }

func testThresholds() config.Thresholds {
	return config.Thresholds{
		Version:                "1",
		HistorySimilarityFloor: 0.70,
		SanityCorrectFloor:     0.40,
		DriftThresholdMiles:    0.5,
		SanityDistanceMiles:    50.0,
		WarnDistanceMiles:      100.0,
		MaxDistanceMiles:       200.0,
		MinSeparationMeters:    50.0,
		MaxClarifyDistricts:    3,
	}
}

func testFareTables() map[string]config.FareTable {
	return map[string]config.FareTable{
		"GBP": {BaseFare: 3.50, PerMileRate: 1.00, MinimumFare: 4.00, AvgSpeedMPH: 22.0, BufferMins: 5},
		"EUR": {BaseFare: 4.00, PerMileRate: 1.20, MinimumFare: 5.00, AvgSpeedMPH: 22.0, BufferMins: 5},
	}
}

func newTestPipeline(o Oracle, ref refstore.Store, rg ReverseGeocoder, zones *refstore.ZoneStore) *Pipeline {
	return New(Deps{
		Thresholds: testThresholds(),
		FailPolicy: config.FailClosed,
		Phones:     phone.NewAnalyzer("GB"),
		Extractor:  normalizer.NewPatternExtractor(),
		History:    history.NewMatcher(0.70, zap.NewNop()),
		Oracle:     o,
		Ref:        ref,
		RevGeo:     rg,
		Fares:      fare.NewCalculator(testFareTables()),
		Zones:      zones,
		Logger:     zap.NewNop(),
	})
}

func coventryStore() *refstore.MemoryStore {
	return refstore.NewMemoryStore([]models.ReferenceStreetEntry{
		{Name: "Russell Street", Area: "Hillfields", City: "Coventry", Latitude: 52.412, Longitude: -1.502, Kind: models.MatchStreet},
		{Name: "Albany Road", Area: "Earlsdon", City: "Coventry", Latitude: 52.401, Longitude: -1.529, Kind: models.MatchStreet},
	})
}

func coventryResponse() *oracle.ResolveResponse {
	return &oracle.ResolveResponse{
		Pickup: &oracle.SideResult{
			Address: "12 Russell Street, Coventry", StreetName: "Russell Street", StreetNumber: "12",
			Latitude: f64(52.412), Longitude: f64(-1.502),
		},
		Dropoff: &oracle.SideResult{
			Address: "Albany Road, Earlsdon", StreetName: "Albany Road",
			Latitude: f64(52.401), Longitude: f64(-1.529),
		},
	}
}

func TestResolve_HappyPath(t *testing.T) {
	zones := refstore.NewZoneStore([]models.Zone{{
		ID: "cov-central", Name: "Coventry Central", Priority: 10,
		Polygon: [][2]float64{{52.43, -1.56}, {52.43, -1.46}, {52.38, -1.46}, {52.38, -1.56}},
	}}, zap.NewNop())
	p := newTestPipeline(&stubOracle{resp: coventryResponse()}, coventryStore(), &stubRevGeo{}, zones)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:     "12 Russell Street, Coventry",
		DropoffText:    "Albany Road, Earlsdon",
		PickupTimeText: "tomorrow at 9am",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusReady, res.Status)
	assert.Empty(t, res.ClarificationMessage)
	assert.Equal(t, "Hillfields", res.Pickup.Area)
	assert.Equal(t, "Earlsdon", res.Dropoff.Area)
	assert.Equal(t, models.MatchStreet, res.Pickup.MatchType)
	assert.Equal(t, "Coventry", res.DetectedArea)
	assert.Equal(t, models.RegionFromText, res.RegionSource)
	assert.Equal(t, "tomorrow at 9am", res.ScheduledTime)

	require.NotNil(t, res.Fare)
	assert.Equal(t, "GBP", res.Fare.Currency)
	assert.Equal(t, 5, res.Fare.DriverETAMinutes)
	assert.NotEmpty(t, res.Fare.FareSpoken)

	require.NotNil(t, res.Zone)
	assert.Equal(t, "cov-central", res.Zone.ID)

	require.NotNil(t, res.Pickup.DriftMiles)
	assert.InDelta(t, 0, *res.Pickup.DriftMiles, 0.001)
}

func schoolRoadStore(areas ...string) *refstore.MemoryStore {
	entries := []models.ReferenceStreetEntry{
		{Name: "Russell Street", Area: "Hillfields", City: "Coventry", Latitude: 52.412, Longitude: -1.502, Kind: models.MatchStreet},
	}
	lat := 52.44
	for _, a := range areas {
		entries = append(entries, models.ReferenceStreetEntry{
			Name: "School Road", Area: a, City: "Birmingham", Latitude: lat, Longitude: -1.87, Kind: models.MatchStreet,
		})
		lat += 0.02
	}
	return refstore.NewMemoryStore(entries)
}

func schoolRoadResponse(dropoffText string) *oracle.ResolveResponse {
	return &oracle.ResolveResponse{
		Pickup: &oracle.SideResult{
			Address: "12 Russell Street, Coventry", StreetName: "Russell Street", StreetNumber: "12",
			Latitude: f64(52.412), Longitude: f64(-1.502),
		},
		Dropoff: &oracle.SideResult{
			Address: dropoffText, StreetName: "School Road",
			Latitude: f64(52.45), Longitude: f64(-1.87),
		},
	}
}

func TestResolve_MultiDistrictStreetAsksForDistrict(t *testing.T) {
	store := schoolRoadStore("Yardley", "Hall Green", "Moseley")
	p := newTestPipeline(&stubOracle{resp: schoolRoadResponse("School Road")}, store, &stubRevGeo{}, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Russell Street, Coventry",
		DropoffText: "school road",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusClarificationNeeded, res.Status)
	assert.False(t, res.Pickup.IsAmbiguous)
	assert.True(t, res.Dropoff.IsAmbiguous)
	assert.Equal(t, []string{
		"School Road, Yardley",
		"School Road, Hall Green",
		"School Road, Moseley",
	}, res.Dropoff.Alternatives)
	assert.Contains(t, res.ClarificationMessage, "Yardley, Hall Green or Moseley")

	// The question still ships with a best-effort quote off the oracle
	// placement; only an implausible trip goes unpriced.
	require.NotNil(t, res.Fare)
	assert.Equal(t, "GBP", res.Fare.Currency)
}

func TestResolve_ManyDistrictsGenericQuestion(t *testing.T) {
	store := schoolRoadStore("Yardley", "Hall Green", "Moseley", "Kings Heath")
	p := newTestPipeline(&stubOracle{resp: schoolRoadResponse("School Road")}, store, &stubRevGeo{}, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Russell Street, Coventry",
		DropoffText: "school road",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusClarificationNeeded, res.Status)
	assert.Contains(t, res.ClarificationMessage, "Which part of town")
	assert.Len(t, res.Dropoff.Alternatives, 4)
}

func TestResolve_HighHouseNumberSettlesMultiDistrict(t *testing.T) {
	store := schoolRoadStore("Yardley", "Hall Green", "Moseley")
	p := newTestPipeline(&stubOracle{resp: schoolRoadResponse("160 School Road")}, store, &stubRevGeo{}, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Russell Street, Coventry",
		DropoffText: "160 school road",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusReady, res.Status)
	assert.False(t, res.Dropoff.IsAmbiguous)
	assert.Equal(t, "Yardley", res.Dropoff.Area)
	require.NotNil(t, res.Fare)
}

func TestResolve_HistoryMatchIsAuthoritative(t *testing.T) {
	historical := "12 Russell Street, Coventry CV1 3AB"
	stub := &stubOracle{resp: func() *oracle.ResolveResponse {
		r := coventryResponse()
		// Even an oracle that doubts the pickup cannot degrade a
		// history match.
		r.Pickup.Ambiguous = true
		r.Pickup.Alternatives = []string{"somewhere else"}
		return r
	}()}
	p := newTestPipeline(stub, coventryStore(), &stubRevGeo{}, nil)

	profile := &models.CallerProfile{
		Phone:     "+442476221234",
		Addresses: []string{historical},
	}
	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "russell street",
		DropoffText: "Albany Road, Earlsdon",
		CallerPhone: "+44 24 7622 1234",
	}, profile)
	require.NoError(t, err)

	assert.Equal(t, models.StatusReady, res.Status)
	assert.True(t, res.Pickup.MatchedFromHistory)
	assert.False(t, res.Pickup.IsAmbiguous)
	assert.Equal(t, historical, res.Pickup.Address)
	assert.Equal(t, "CV1 3AB", res.Pickup.Postcode)
	assert.Equal(t, models.CoordSourceHistory, res.Pickup.CoordSource)

	// The oracle geocodes the canonical historical string, with the
	// caller's history as context.
	require.NotNil(t, stub.lastReq)
	assert.Equal(t, historical, stub.lastReq.PickupText)
	assert.Equal(t, profile.Addresses, stub.lastReq.History)

	assert.Equal(t, models.RegionFromHistory, res.RegionSource)
	assert.Equal(t, "Coventry", res.DetectedArea)
}

func TestResolve_IdenticalCoordsReattempted(t *testing.T) {
	resp := &oracle.ResolveResponse{
		Pickup: &oracle.SideResult{
			Address: "12 Station Road, Coventry", StreetName: "Station Road", StreetNumber: "12",
			Latitude: f64(52.41), Longitude: f64(-1.51),
		},
		Dropoff: &oracle.SideResult{
			Address: "25 Queen Victoria Road", StreetName: "Queen Victoria Road", StreetNumber: "25",
			Latitude: f64(52.41), Longitude: f64(-1.51),
		},
	}
	rg := &stubRevGeo{hit: &models.GeocodeHit{DisplayName: "Queen Victoria Road", Latitude: 52.45, Longitude: -1.55}}
	p := newTestPipeline(&stubOracle{resp: resp}, refstore.NewMemoryStore(nil), rg, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Station Road, Coventry",
		DropoffText: "25 queen victoria road",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusReady, res.Status)
	assert.Equal(t, 1, rg.calls)
	assert.Equal(t, 52.45, res.Dropoff.Latitude)
	assert.Equal(t, -1.55, res.Dropoff.Longitude)
	assert.Equal(t, models.CoordSourceReverse, res.Dropoff.CoordSource)
	require.NotNil(t, res.Fare)
	assert.Greater(t, res.Fare.DistanceMiles, 0.0)
}

func TestResolve_MinSeparationWithFailedReattempt(t *testing.T) {
	resp := &oracle.ResolveResponse{
		Pickup: &oracle.SideResult{
			Address: "12 Station Road, Coventry", StreetName: "Station Road", StreetNumber: "12",
			Latitude: f64(52.41), Longitude: f64(-1.51),
		},
		Dropoff: &oracle.SideResult{
			// 30 meters north of the pickup; different street.
			Address: "25 Queen Victoria Road", StreetName: "Queen Victoria Road", StreetNumber: "25",
			Latitude: f64(52.41027), Longitude: f64(-1.51),
		},
	}
	rg := &stubRevGeo{err: assert.AnError}
	p := newTestPipeline(&stubOracle{resp: resp}, refstore.NewMemoryStore(nil), rg, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Station Road, Coventry",
		DropoffText: "25 queen victoria road",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusClarificationNeeded, res.Status)
	assert.True(t, res.Dropoff.IsAmbiguous)
	assert.Contains(t, res.ClarificationMessage, "same place")

	// Thirty metres still prices as a minimum-fare trip while the
	// caller is asked.
	require.NotNil(t, res.Fare)
	assert.Equal(t, 4.00, res.Fare.Fare)
}

func TestResolve_ReattemptTooCloseStaysAmbiguous(t *testing.T) {
	resp := &oracle.ResolveResponse{
		Pickup: &oracle.SideResult{
			Address: "12 Station Road, Coventry", StreetName: "Station Road", StreetNumber: "12",
			Latitude: f64(52.41), Longitude: f64(-1.51),
		},
		Dropoff: &oracle.SideResult{
			Address: "25 Queen Victoria Road", StreetName: "Queen Victoria Road", StreetNumber: "25",
			Latitude: f64(52.41), Longitude: f64(-1.51),
		},
	}
	// The re-geocode answers, but with a point a few metres from the
	// pickup. That is still the same place.
	rg := &stubRevGeo{hit: &models.GeocodeHit{DisplayName: "Queen Victoria Road", Latitude: 52.41003, Longitude: -1.51}}
	p := newTestPipeline(&stubOracle{resp: resp}, refstore.NewMemoryStore(nil), rg, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Station Road, Coventry",
		DropoffText: "25 queen victoria road",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, rg.calls)
	assert.Equal(t, models.StatusClarificationNeeded, res.Status)
	assert.True(t, res.Dropoff.IsAmbiguous)
	assert.Contains(t, res.ClarificationMessage, "same place")
	assert.NotEqual(t, models.CoordSourceReverse, res.Dropoff.CoordSource)
}

func TestResolve_TooFarTripRefusesFare(t *testing.T) {
	resp := &oracle.ResolveResponse{
		Pickup: &oracle.SideResult{
			Address: "Trafalgar Square, London", StreetName: "Trafalgar Square",
			Latitude: f64(51.508), Longitude: f64(-0.128),
		},
		Dropoff: &oracle.SideResult{
			Address: "Princes Street, Edinburgh", StreetName: "Princes Street",
			Latitude: f64(55.953), Longitude: f64(-3.188),
		},
	}
	p := newTestPipeline(&stubOracle{resp: resp}, refstore.NewMemoryStore(nil), &stubRevGeo{}, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "trafalgar square london",
		DropoffText: "princes street",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusClarificationNeeded, res.Status)
	assert.True(t, res.Dropoff.IsAmbiguous)
	assert.False(t, res.Pickup.IsAmbiguous)
	assert.NotEmpty(t, res.DistanceWarning)
	assert.Contains(t, res.ClarificationMessage, "miles")
	assert.Nil(t, res.Fare)
}

func TestResolve_LongTripWarnsButQuotes(t *testing.T) {
	resp := &oracle.ResolveResponse{
		Pickup: &oracle.SideResult{
			Address: "Trafalgar Square, London", StreetName: "Trafalgar Square",
			Latitude: f64(51.508), Longitude: f64(-0.128),
		},
		Dropoff: &oracle.SideResult{
			// Wolverhampton, about 113 miles out.
			Address: "Victoria Square, Wolverhampton", StreetName: "Victoria Square",
			Latitude: f64(52.586), Longitude: f64(-2.128),
		},
	}
	p := newTestPipeline(&stubOracle{resp: resp}, refstore.NewMemoryStore(nil), &stubRevGeo{}, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "trafalgar square london",
		DropoffText: "victoria square wolverhampton",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusReady, res.Status)
	assert.NotEmpty(t, res.DistanceWarning)
	require.NotNil(t, res.Fare)
}

func TestResolve_SpokenPostcodeAnchored(t *testing.T) {
	resp := coventryResponse()
	resp.Pickup.Postcode = "CV6 5AA"
	rg := &stubRevGeo{hit: &models.GeocodeHit{DisplayName: "Russell Street", Latitude: 52.413, Longitude: -1.503}}
	p := newTestPipeline(&stubOracle{resp: resp}, coventryStore(), rg, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Russell Street CV1 3AB",
		DropoffText: "Albany Road, Earlsdon",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusReady, res.Status)
	assert.Equal(t, "CV1 3AB", res.Pickup.Postcode)
	assert.Equal(t, models.CoordSourceReverse, res.Pickup.CoordSource)
	assert.Equal(t, 52.413, res.Pickup.Latitude)
	assert.Equal(t, 1, rg.calls)

	// The re-geocode stayed on the spoken street, so the record is not
	// flagged as modified.
	assert.False(t, res.Pickup.AddressModified)
}

func TestResolve_PostcodeAnchorFlagsLostStreet(t *testing.T) {
	resp := coventryResponse()
	resp.Pickup.Postcode = "CV6 5AA"
	rg := &stubRevGeo{hit: &models.GeocodeHit{DisplayName: "Primrose Hill Street, Coventry", Latitude: 52.417, Longitude: -1.498}}
	p := newTestPipeline(&stubOracle{resp: resp}, coventryStore(), rg, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Russell Street CV1 3AB",
		DropoffText: "Albany Road, Earlsdon",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusReady, res.Status)
	assert.Equal(t, "CV1 3AB", res.Pickup.Postcode)
	assert.Equal(t, models.CoordSourceReverse, res.Pickup.CoordSource)
	assert.True(t, res.Pickup.AddressModified)
	assert.Equal(t, "street moved by postcode anchor", res.Pickup.ModificationReason)
}

func TestResolve_PhoneticMismatchAsksWithSuggestions(t *testing.T) {
	// The caller said something the dataset cannot place and the oracle
	// invented an answer that sounds nothing like it.
	resp := coventryResponse()
	resp.Dropoff = &oracle.SideResult{
		Address: "Albany Road", StreetName: "Albany Road",
		Latitude: f64(52.401), Longitude: f64(-1.529),
	}
	store := refstore.NewMemoryStore([]models.ReferenceStreetEntry{
		{Name: "Russell Street", Area: "Hillfields", City: "Coventry", Latitude: 52.412, Longitude: -1.502, Kind: models.MatchStreet},
	})
	p := newTestPipeline(&stubOracle{resp: resp}, store, &stubRevGeo{}, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Russell Street, Coventry",
		DropoffText: "zzzz qqqq zzzz",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusClarificationNeeded, res.Status)
	assert.True(t, res.Dropoff.IsAmbiguous)
	assert.Contains(t, res.ClarificationMessage, "Did you mean")
	assert.Contains(t, res.Dropoff.Alternatives, "Russell Street, Hillfields")
	require.NotNil(t, res.Fare)
}

func TestResolve_SanityCorrectsHallucinatedStreet(t *testing.T) {
	// Caller said "russell street"; the oracle came back with a
	// different real street. The transcript wins via the dataset.
	resp := &oracle.ResolveResponse{
		Pickup: &oracle.SideResult{
			Address: "12 Station Road, Coventry", StreetName: "Station Road", StreetNumber: "12",
			Latitude: f64(52.41), Longitude: f64(-1.51),
		},
		Dropoff: &oracle.SideResult{
			Address: "Albany Road", StreetName: "Albany Road",
			Latitude: f64(52.401), Longitude: f64(-1.529),
		},
	}
	p := newTestPipeline(&stubOracle{resp: resp}, coventryStore(), &stubRevGeo{}, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Station Road, Coventry",
		DropoffText: "russell street",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusReady, res.Status)
	assert.Equal(t, "Russell Street", res.Dropoff.StreetName)
	assert.Equal(t, "Hillfields", res.Dropoff.Area)
	assert.Equal(t, models.CoordSourceReference, res.Dropoff.CoordSource)
	assert.Equal(t, 52.412, res.Dropoff.Latitude)
	assert.True(t, res.Dropoff.AddressModified)
	assert.Equal(t, "phonetic correction", res.Dropoff.ModificationReason)
	assert.Equal(t, "russell street", res.Dropoff.OriginalInput)
	require.NotNil(t, res.Fare)
}

func TestResolve_SpokenDistrictSettlesMultiDistrict(t *testing.T) {
	store := schoolRoadStore("Yardley", "Hall Green", "Moseley")
	p := newTestPipeline(&stubOracle{resp: schoolRoadResponse("School Road")}, store, &stubRevGeo{}, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Russell Street, Coventry",
		DropoffText: "school road in yardley",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusReady, res.Status)
	assert.False(t, res.Dropoff.IsAmbiguous)
	assert.Empty(t, res.Dropoff.Alternatives)
	assert.Equal(t, "Yardley", res.Dropoff.Area)
	require.NotNil(t, res.Fare)
}

func TestResolve_PhoneticMatchClearsOracleDoubt(t *testing.T) {
	resp := coventryResponse()
	resp.Dropoff.Ambiguous = true
	p := newTestPipeline(&stubOracle{resp: resp}, refstore.NewMemoryStore(nil), &stubRevGeo{}, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Russell Street, Coventry",
		DropoffText: "albany road",
	}, nil)
	require.NoError(t, err)

	// The resolved street sounds exactly like the transcript, so the
	// oracle's unexplained doubt is lifted.
	assert.Equal(t, models.StatusReady, res.Status)
	assert.False(t, res.Dropoff.IsAmbiguous)
	require.NotNil(t, res.Fare)
}

func TestResolve_OracleUnavailable(t *testing.T) {
	p := newTestPipeline(&stubOracle{err: oracle.ErrUnavailable}, coventryStore(), &stubRevGeo{}, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Russell Street, Coventry",
		DropoffText: "Albany Road",
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, oracle.ErrUnavailable)
	assert.Equal(t, models.StatusError, res.Status)
	assert.NotEmpty(t, res.ClarificationMessage)
}

func TestResolve_MalformedFailClosed(t *testing.T) {
	p := newTestPipeline(&stubOracle{err: oracle.ErrMalformed}, refstore.NewMemoryStore(nil), &stubRevGeo{}, nil)

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Russell Street, Coventry",
		DropoffText: "Albany Road",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusClarificationNeeded, res.Status)
	assert.True(t, res.Pickup.IsAmbiguous)
	assert.True(t, res.Dropoff.IsAmbiguous)
	assert.Equal(t, models.CoordSourceNone, res.Pickup.CoordSource)
	assert.Nil(t, res.Fare)
}

func TestResolve_MalformedFailSoft(t *testing.T) {
	p := New(Deps{
		Thresholds: testThresholds(),
		FailPolicy: config.FailSoft,
		Phones:     phone.NewAnalyzer("GB"),
		Extractor:  normalizer.NewPatternExtractor(),
		History:    history.NewMatcher(0.70, zap.NewNop()),
		Oracle:     &stubOracle{err: oracle.ErrMalformed},
		Ref:        refstore.NewMemoryStore(nil),
		RevGeo:     &stubRevGeo{},
		Fares:      fare.NewCalculator(testFareTables()),
		Logger:     zap.NewNop(),
	})

	res, err := p.Resolve(context.Background(), models.AddressQuery{
		PickupText:  "12 Russell Street, Coventry",
		DropoffText: "Albany Road",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusReady, res.Status)
	assert.Equal(t, "12 Russell Street, Coventry", res.Pickup.Address)
	assert.False(t, res.Pickup.IsAmbiguous)
	assert.Nil(t, res.Fare)

	// The spoken house number fills the gap without flagging the record:
	// nothing was overridden.
	assert.Equal(t, "12", res.Pickup.StreetNumber)
	assert.False(t, res.Pickup.AddressModified)
}

func TestResolve_Idempotent(t *testing.T) {
	query := models.AddressQuery{
		PickupText:  "12 Russell Street, Coventry",
		DropoffText: "Albany Road, Earlsdon",
		CallerPhone: "+44 24 7622 1234",
	}

	run := func() []byte {
		p := newTestPipeline(&stubOracle{resp: coventryResponse()}, coventryStore(), &stubRevGeo{}, nil)
		res, err := p.Resolve(context.Background(), query, nil)
		require.NoError(t, err)
		b, err := json.Marshal(res)
		require.NoError(t, err)
		return b
	}

	assert.Equal(t, run(), run())
}

func TestCorrectSide(t *testing.T) {
	p := newTestPipeline(&stubOracle{}, coventryStore(), &stubRevGeo{}, nil)

	st := NewState(models.AddressQuery{DropoffText: "bellvue road"}, nil)
	addr := st.Address(Dropoff)
	addr.StreetName = "Bellvue Road"
	addr.StreetNumber = "7"
	st.MarkAmbiguous(Dropoff, "which one?", nil)

	entry := models.ReferenceStreetEntry{
		Name: "Bellevue Road", Area: "Earlsdon", City: "Coventry",
		Latitude: 52.40, Longitude: -1.53, Kind: models.MatchStreet,
	}
	p.correctSide(st, Dropoff, entry)

	assert.Equal(t, "7 Bellevue Road, Earlsdon, Coventry", addr.Address)
	assert.Equal(t, "Bellevue Road", addr.StreetName)
	assert.Equal(t, "bellvue road", addr.OriginalInput)
	assert.True(t, addr.AddressModified)
	assert.Equal(t, "phonetic correction", addr.ModificationReason)
	assert.Equal(t, models.CoordSourceReference, addr.CoordSource)
	assert.False(t, addr.IsAmbiguous)
	assert.Equal(t, models.StatusReady, st.Result.Status)
}

func TestJudgeVerdicts(t *testing.T) {
	assert.Equal(t, verdictMatch, judge("russell street", "Russell Street"))
	assert.Equal(t, verdictMatch, judge("russel street", "Russell Street"))
	assert.Equal(t, verdictMatch, judge("bellvue road", "Bellevue Road"))
	assert.Equal(t, verdictMismatch, judge("zzzz qqqq zzzz", "Russell Street"))
}

func TestStateLessCertain(t *testing.T) {
	st := NewState(models.AddressQuery{}, nil)

	st.Certainty[Pickup] = 0.9
	st.Certainty[Dropoff] = 0.6
	assert.Equal(t, Dropoff, st.LessCertain())

	st.Certainty[Pickup] = 0.3
	assert.Equal(t, Pickup, st.LessCertain())

	// Ties doubt the drop-off.
	st.Certainty[Pickup] = 0.6
	assert.Equal(t, Dropoff, st.LessCertain())
}

func TestStateAmbiguityLifecycle(t *testing.T) {
	st := NewState(models.AddressQuery{}, nil)

	st.MarkAmbiguous(Dropoff, "which one?", []string{"a", "b"})
	assert.Equal(t, models.StatusClarificationNeeded, st.Result.Status)
	assert.True(t, st.Result.Dropoff.IsAmbiguous)

	st.ClearAmbiguity(Dropoff)
	assert.Equal(t, models.StatusReady, st.Result.Status)
	assert.Empty(t, st.Result.ClarificationMessage)

	// History sides cannot be marked at all.
	st.HistoryMatched[Pickup] = true
	st.MarkAmbiguous(Pickup, "really?", nil)
	assert.Equal(t, models.StatusReady, st.Result.Status)
	assert.False(t, st.Result.Pickup.IsAmbiguous)
}
