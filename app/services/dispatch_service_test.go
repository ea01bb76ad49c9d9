package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
)

type stubResolver struct {
	result      *models.DispatchResult
	err         error
	calls       int
	lastProfile *models.CallerProfile
}

func (sr *stubResolver) Resolve(ctx context.Context, query models.AddressQuery, profile *models.CallerProfile) (*models.DispatchResult, error) {
	sr.calls++
	sr.lastProfile = profile
	return sr.result, sr.err
}

type stubProfiles struct {
	profile *models.CallerProfile
	err     error
}

func (sp *stubProfiles) Lookup(ctx context.Context, phone string) (*models.CallerProfile, error) {
	return sp.profile, sp.err
}

type memCache struct {
	data map[string]*models.DispatchResult
	gets int
	sets int
}

func newMemCache() *memCache {
	return &memCache{data: map[string]*models.DispatchResult{}}
}

func (mc *memCache) Get(ctx context.Context, key string) (*models.DispatchResult, bool, error) {
	mc.gets++
	r, ok := mc.data[key]
	return r, ok, nil
}

func (mc *memCache) Set(ctx context.Context, key string, result *models.DispatchResult) error {
	mc.sets++
	mc.data[key] = result
	return nil
}

func (mc *memCache) Delete(ctx context.Context, key string) error {
	delete(mc.data, key)
	return nil
}

func (mc *memCache) Clear(ctx context.Context) error {
	mc.data = map[string]*models.DispatchResult{}
	return nil
}

func (mc *memCache) GetStats(ctx context.Context) (*CacheStats, error) {
	return &CacheStats{TotalItems: int64(len(mc.data))}, nil
}

func (mc *memCache) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return time.Hour, nil
}

func (mc *memCache) Close() error { return nil }

func readyResult() *models.DispatchResult {
	return &models.DispatchResult{
		Status: models.StatusReady,
		Pickup: models.ResolvedAddress{Address: "12 Russell Street, Coventry"},
	}
}

func testQuery() models.AddressQuery {
	return models.AddressQuery{
		PickupText:  "12 Russell Street, Coventry",
		DropoffText: "Albany Road, Earlsdon",
		CallerPhone: "+442476221234",
	}
}

func TestResolve_CachesReadyResults(t *testing.T) {
	resolver := &stubResolver{result: readyResult()}
	cache := newMemCache()
	ds := NewDispatchService(resolver, nil, cache, "1.0.0", zap.NewNop())

	_, hit, err := ds.Resolve(context.Background(), testQuery(), true)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, 1, cache.sets)

	res, hit, err := ds.Resolve(context.Background(), testQuery(), true)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, "12 Russell Street, Coventry", res.Pickup.Address)
}

func TestResolve_ClarificationsNotCached(t *testing.T) {
	resolver := &stubResolver{result: &models.DispatchResult{
		Status: models.StatusClarificationNeeded,
		Pickup: models.ResolvedAddress{IsAmbiguous: true},
	}}
	cache := newMemCache()
	ds := NewDispatchService(resolver, nil, cache, "1.0.0", zap.NewNop())

	_, hit, err := ds.Resolve(context.Background(), testQuery(), true)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 0, cache.sets)
}

func TestResolve_HistoryCallerBypassesCache(t *testing.T) {
	resolver := &stubResolver{result: readyResult()}
	cache := newMemCache()
	profiles := &stubProfiles{profile: &models.CallerProfile{
		Phone:     "+442476221234",
		Addresses: []string{"12 Russell Street, Coventry CV1 3AB"},
	}}
	ds := NewDispatchService(resolver, profiles, cache, "1.0.0", zap.NewNop())

	for i := 0; i < 2; i++ {
		_, hit, err := ds.Resolve(context.Background(), testQuery(), true)
		require.NoError(t, err)
		assert.False(t, hit)
	}
	assert.Equal(t, 2, resolver.calls)
	assert.Equal(t, 0, cache.gets)
	assert.Equal(t, 0, cache.sets)
	require.NotNil(t, resolver.lastProfile)
	assert.Len(t, resolver.lastProfile.Addresses, 1)
}

func TestResolve_ProfileLookupFailureIsNotFatal(t *testing.T) {
	resolver := &stubResolver{result: readyResult()}
	profiles := &stubProfiles{err: assert.AnError}
	ds := NewDispatchService(resolver, profiles, newMemCache(), "1.0.0", zap.NewNop())

	_, _, err := ds.Resolve(context.Background(), testQuery(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.calls)
	assert.Nil(t, resolver.lastProfile)
}

func TestResolve_UseCacheFalseSkipsCache(t *testing.T) {
	resolver := &stubResolver{result: readyResult()}
	cache := newMemCache()
	ds := NewDispatchService(resolver, nil, cache, "1.0.0", zap.NewNop())

	_, hit, err := ds.Resolve(context.Background(), testQuery(), false)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 0, cache.gets)
	assert.Equal(t, 0, cache.sets)
}

func TestFingerprint(t *testing.T) {
	ds := NewDispatchService(nil, nil, nil, "1.0.0", zap.NewNop())

	base := ds.Fingerprint(testQuery())

	// Case and spacing fold into the same key.
	q := testQuery()
	q.PickupText = "12  RUSSELL street, Coventry"
	assert.Equal(t, base, ds.Fingerprint(q))

	q = testQuery()
	q.DropoffText = "Belgrade Theatre"
	assert.NotEqual(t, base, ds.Fingerprint(q))

	q = testQuery()
	q.CallerPhone = "+442079460000"
	assert.NotEqual(t, base, ds.Fingerprint(q))

	// A reseed under a new dataset version retires every key.
	ds2 := NewDispatchService(nil, nil, nil, "2.0.0", zap.NewNop())
	assert.NotEqual(t, base, ds2.Fingerprint(testQuery()))
}

func TestStats_Counters(t *testing.T) {
	resolver := &stubResolver{result: readyResult()}
	ds := NewDispatchService(resolver, nil, nil, "1.0.0", zap.NewNop())

	_, _, err := ds.Resolve(context.Background(), testQuery(), false)
	require.NoError(t, err)

	resolver.result = &models.DispatchResult{Status: models.StatusClarificationNeeded}
	_, _, err = ds.Resolve(context.Background(), testQuery(), false)
	require.NoError(t, err)

	stats := ds.Stats()
	assert.Equal(t, int64(1), stats.TotalResolved)
	assert.Equal(t, int64(1), stats.TotalClarifications)
	assert.Equal(t, int64(0), stats.TotalErrors)
}
