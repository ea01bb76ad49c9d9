package services

import (
	"context"
	"time"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
)

// CacheStats summarizes one cache backend.
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService is the resolution-cache boundary. Keys are request
// fingerprints that already include the dataset version, so a reseed
// under a new version needs no explicit invalidation.
type ICacheService interface {
	// Get returns the cached result and whether it was present.
	Get(ctx context.Context, key string) (*models.DispatchResult, bool, error)

	// Set stores a result under the fingerprint.
	Set(ctx context.Context, key string, result *models.DispatchResult) error

	// Delete removes one entry.
	Delete(ctx context.Context, key string) error

	// Clear drops every cached resolution.
	Clear(ctx context.Context) error

	// GetStats reports hit-rate counters.
	GetStats(ctx context.Context) (*CacheStats, error)

	// GetTTL returns the remaining lifetime of one entry.
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Close releases the backend connection.
	Close() error
}
