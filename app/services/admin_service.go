package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/refstore"
)

// ErrNoReferenceIndex means the service was started without a seedable
// reference backend (memory store or none at all).
var ErrNoReferenceIndex = errors.New("no seedable reference index configured")

// AdminService owns the operator-facing actions: dataset seeding and
// cache maintenance.
type AdminService struct {
	meili  *refstore.MeiliStore
	cache  ICacheService
	logger *zap.Logger
}

// NewAdminService builds the admin surface. meili may be nil when the
// deployment runs on the in-memory reference store.
func NewAdminService(meili *refstore.MeiliStore, cache ICacheService, logger *zap.Logger) *AdminService {
	return &AdminService{meili: meili, cache: cache, logger: logger}
}

// SeedReference loads one curated dataset revision into the search
// index and drops the resolution cache, whose keys embed the old
// version.
func (as *AdminService) SeedReference(ctx context.Context, version string, entries []models.ReferenceStreetEntry) (int, error) {
	if as.meili == nil {
		return 0, ErrNoReferenceIndex
	}
	if err := as.meili.EnsureIndex(); err != nil {
		return 0, err
	}
	seeded, err := as.meili.Seed(entries)
	if err != nil {
		return seeded, err
	}

	if as.cache != nil {
		if err := as.cache.Clear(ctx); err != nil {
			as.logger.Warn("cache clear after seed failed", zap.Error(err))
		}
	}
	as.logger.Info("reference dataset seeded",
		zap.String("version", version),
		zap.Int("entries", seeded))
	return seeded, nil
}

// InvalidateCache drops every cached resolution.
func (as *AdminService) InvalidateCache(ctx context.Context) error {
	if as.cache == nil {
		return nil
	}
	if as.meili != nil {
		as.meili.PurgeCache()
	}
	return as.cache.Clear(ctx)
}

// CacheStats reports the resolution-cache counters.
func (as *AdminService) CacheStats(ctx context.Context) (*CacheStats, error) {
	if as.cache == nil {
		return &CacheStats{}, nil
	}
	return as.cache.GetStats(ctx)
}
