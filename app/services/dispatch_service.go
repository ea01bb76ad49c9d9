package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/normalizer"
)

// Resolver is the pipeline boundary the service drives.
type Resolver interface {
	Resolve(ctx context.Context, query models.AddressQuery, profile *models.CallerProfile) (*models.DispatchResult, error)
}

// ProfileLookup fetches caller history by phone number. Nil profile
// with nil error means an unknown caller.
type ProfileLookup interface {
	Lookup(ctx context.Context, phone string) (*models.CallerProfile, error)
}

// ServiceStats are the request counters the admin endpoint exposes.
type ServiceStats struct {
	TotalResolved       int64
	TotalClarifications int64
	TotalErrors         int64
	HistoryMatches      int64
	UptimeSeconds       int64
}

// DispatchService orchestrates one resolution call: profile lookup,
// cache check, pipeline run, cache fill.
type DispatchService struct {
	resolver   Resolver
	profiles   ProfileLookup
	cache      ICacheService
	datasetVer string
	logger     *zap.Logger
	started    time.Time

	resolved       atomic.Int64
	clarifications atomic.Int64
	errored        atomic.Int64
	historyMatches atomic.Int64
}

// NewDispatchService builds the service. Profiles and cache may be nil;
// the service then runs without history and without caching.
func NewDispatchService(resolver Resolver, profiles ProfileLookup, cache ICacheService, datasetVer string, logger *zap.Logger) *DispatchService {
	return &DispatchService{
		resolver:   resolver,
		profiles:   profiles,
		cache:      cache,
		datasetVer: datasetVer,
		logger:     logger,
		started:    time.Now(),
	}
}

// Resolve runs one query end to end. Callers with history bypass the
// cache in both directions: their answers depend on a profile that can
// change between calls.
func (ds *DispatchService) Resolve(ctx context.Context, query models.AddressQuery, useCache bool) (*models.DispatchResult, bool, error) {
	var profile *models.CallerProfile
	if ds.profiles != nil && query.CallerPhone != "" {
		p, err := ds.profiles.Lookup(ctx, query.CallerPhone)
		if err != nil {
			ds.logger.Warn("profile lookup failed, resolving without history", zap.Error(err))
		} else {
			profile = p
		}
	}
	hasHistory := profile != nil && len(profile.Addresses) > 0

	key := ds.Fingerprint(query)
	if useCache && !hasHistory && ds.cache != nil {
		if cached, found, err := ds.cache.Get(ctx, key); err == nil && found {
			return cached, true, nil
		}
	}

	result, err := ds.resolver.Resolve(ctx, query, profile)
	ds.count(result, err)
	if err != nil {
		return result, false, err
	}

	if result.Pickup.MatchedFromHistory || result.Dropoff.MatchedFromHistory {
		ds.historyMatches.Add(1)
	}

	if useCache && !hasHistory && ds.cache != nil && result.Status == models.StatusReady {
		if err := ds.cache.Set(ctx, key, result); err != nil {
			ds.logger.Warn("cache fill failed", zap.Error(err))
		}
	}
	return result, false, nil
}

// Fingerprint keys one query for the resolution cache. The dataset
// version is part of the key, so a reseed retires old entries by
// construction.
func (ds *DispatchService) Fingerprint(query models.AddressQuery) string {
	h := sha256.New()
	for _, part := range []string{
		ds.datasetVer,
		normalizer.Normalize(query.PickupText),
		normalizer.Normalize(query.DropoffText),
		strings.TrimSpace(query.CallerPhone),
		normalizer.Normalize(query.PickupTimeText),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0x1f})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Stats snapshots the request counters.
func (ds *DispatchService) Stats() ServiceStats {
	return ServiceStats{
		TotalResolved:       ds.resolved.Load(),
		TotalClarifications: ds.clarifications.Load(),
		TotalErrors:         ds.errored.Load(),
		HistoryMatches:      ds.historyMatches.Load(),
		UptimeSeconds:       int64(time.Since(ds.started).Seconds()),
	}
}

// DatasetVersion is the active reference dataset revision.
func (ds *DispatchService) DatasetVersion() string {
	return ds.datasetVer
}

func (ds *DispatchService) count(result *models.DispatchResult, err error) {
	switch {
	case err != nil || (result != nil && result.Status == models.StatusError):
		ds.errored.Add(1)
	case result != nil && result.Status == models.StatusClarificationNeeded:
		ds.clarifications.Add(1)
	default:
		ds.resolved.Add(1)
	}
}
