// Package refstore fronts the curated street/POI reference dataset and
// the other read-only collections the pipeline consults (caller
// profiles, dispatch zones).
package refstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/meilisearch/meilisearch-go"
	"github.com/xrash/smetrics"
	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/normalizer"
)

// ErrUnavailable degrades verification to the oracle-only signal; it
// never converts an ambiguous result into a confident one.
var ErrUnavailable = errors.New("reference store unavailable")

// Store is the lookup surface the pipeline stages depend on.
type Store interface {
	// Lookup returns every entry whose name matches the street exactly
	// after folding.
	Lookup(ctx context.Context, street string) ([]models.ReferenceStreetEntry, error)
	// Fuzzy returns scored candidates at or above the similarity floor,
	// best first.
	Fuzzy(ctx context.Context, name string, floor float64) ([]models.ReferenceMatch, error)
}

// MeiliStore is the production Store: a Meilisearch index of curated
// entries with a bounded LRU in front of it. The cache is keyed by
// folded street name and dataset version, so it never needs
// request-order invalidation.
type MeiliStore struct {
	client  meilisearch.ServiceManager
	index   string
	version string
	timeout time.Duration
	cache   *lru.Cache[string, []models.ReferenceStreetEntry]
	logger  *zap.Logger
}

type MeiliConfig struct {
	Host      string
	APIKey    string
	IndexName string
	Timeout   time.Duration
	CacheSize int
	Version   string
}

func NewMeiliStore(cfg MeiliConfig, logger *zap.Logger) (*MeiliStore, error) {
	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey))
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 2048
	}
	cache, err := lru.New[string, []models.ReferenceStreetEntry](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &MeiliStore{
		client:  client,
		index:   cfg.IndexName,
		version: cfg.Version,
		timeout: cfg.Timeout,
		cache:   cache,
		logger:  logger,
	}, nil
}

func (ms *MeiliStore) cacheKey(folded string) string {
	return ms.version + "\x1f" + folded
}

// Lookup implements Store.
func (ms *MeiliStore) Lookup(ctx context.Context, street string) ([]models.ReferenceStreetEntry, error) {
	folded := normalizer.Normalize(street)
	if folded == "" {
		return nil, nil
	}
	if cached, ok := ms.cache.Get(ms.cacheKey(folded)); ok {
		return cached, nil
	}

	hits, err := ms.search(ctx, folded, 20)
	if err != nil {
		return nil, err
	}

	var out []models.ReferenceStreetEntry
	for _, e := range hits {
		if normalizer.Normalize(e.Name) == folded {
			out = append(out, e)
		}
	}
	ms.cache.Add(ms.cacheKey(folded), out)
	return out, nil
}

// Fuzzy implements Store.
func (ms *MeiliStore) Fuzzy(ctx context.Context, name string, floor float64) ([]models.ReferenceMatch, error) {
	folded := normalizer.Normalize(name)
	if folded == "" {
		return nil, nil
	}
	hits, err := ms.search(ctx, folded, 50)
	if err != nil {
		return nil, err
	}
	return ScoreMatches(folded, hits, floor), nil
}

func (ms *MeiliStore) search(ctx context.Context, query string, limit int) ([]models.ReferenceStreetEntry, error) {
	_ = ctx // the meilisearch client manages its own transport deadline

	index := ms.client.Index(ms.index)
	result, err := index.Search(query, &meilisearch.SearchRequest{Limit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var entries []models.ReferenceStreetEntry
	for _, hit := range result.Hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		e := models.ReferenceStreetEntry{}
		if v, ok := hitMap["name"].(string); ok {
			e.Name = v
		}
		if v, ok := hitMap["area"].(string); ok {
			e.Area = v
		}
		if v, ok := hitMap["city"].(string); ok {
			e.City = v
		}
		if v, ok := hitMap["latitude"].(float64); ok {
			e.Latitude = v
		}
		if v, ok := hitMap["longitude"].(float64); ok {
			e.Longitude = v
		}
		if v, ok := hitMap["kind"].(string); ok {
			e.Kind = models.MatchType(v)
		}
		if zs, ok := hitMap["zones"].([]interface{}); ok {
			for _, z := range zs {
				if s, ok := z.(string); ok {
					e.Zones = append(e.Zones, s)
				}
			}
		}
		if e.Name != "" {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// ScoreMatches ranks candidate entries against a folded query name.
// Shared by the Meilisearch store and the in-memory store so both rank
// identically.
func ScoreMatches(folded string, entries []models.ReferenceStreetEntry, floor float64) []models.ReferenceMatch {
	var out []models.ReferenceMatch
	for _, e := range entries {
		sim := smetrics.JaroWinkler(folded, normalizer.Normalize(e.Name), 0.7, 4)
		if sim >= floor {
			out = append(out, models.ReferenceMatch{Entry: e, MatchedOn: e.Name, Similarity: sim})
		}
	}
	// Insertion sort; candidate lists are tiny.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Similarity > out[j-1].Similarity; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// EnsureIndex applies the index settings the resolver depends on.
func (ms *MeiliStore) EnsureIndex() error {
	index := ms.client.Index(ms.index)
	_, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"name", "area", "city"},
		FilterableAttributes: []string{"area", "city", "kind", "zones"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Seed pushes curated entries into the index in batches.
func (ms *MeiliStore) Seed(entries []models.ReferenceStreetEntry) (int, error) {
	if len(entries) == 0 {
		return 0, errors.New("no entries to seed")
	}
	index := ms.client.Index(ms.index)

	docs := make([]map[string]interface{}, 0, len(entries))
	for i, e := range entries {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", normalizer.Normalize(e.Name), i)
		}
		docs = append(docs, map[string]interface{}{
			"id":        id,
			"name":      e.Name,
			"area":      e.Area,
			"city":      e.City,
			"latitude":  e.Latitude,
			"longitude": e.Longitude,
			"kind":      string(e.Kind),
			"zones":     e.Zones,
		})
	}

	const batch = 1000
	for i := 0; i < len(docs); i += batch {
		end := i + batch
		if end > len(docs) {
			end = len(docs)
		}
		if _, err := index.AddDocuments(docs[i:end], "id"); err != nil {
			return i, fmt.Errorf("seed batch %d-%d: %w", i, end, err)
		}
	}
	ms.cache.Purge()
	ms.logger.Info("seeded reference index", zap.Int("entries", len(docs)))
	return len(docs), nil
}

// PurgeCache drops the street-lookup cache, used when the dataset is
// reseeded under the same version.
func (ms *MeiliStore) PurgeCache() {
	ms.cache.Purge()
}
