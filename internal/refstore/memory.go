package refstore

import (
	"context"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/normalizer"
)

// MemoryStore serves the reference dataset from a slice. Used by tests
// and by deployments too small to run a search engine.
type MemoryStore struct {
	entries []models.ReferenceStreetEntry
}

func NewMemoryStore(entries []models.ReferenceStreetEntry) *MemoryStore {
	return &MemoryStore{entries: entries}
}

// Lookup implements Store.
func (s *MemoryStore) Lookup(ctx context.Context, street string) ([]models.ReferenceStreetEntry, error) {
	folded := normalizer.Normalize(street)
	if folded == "" {
		return nil, nil
	}
	var out []models.ReferenceStreetEntry
	for _, e := range s.entries {
		if normalizer.Normalize(e.Name) == folded {
			out = append(out, e)
		}
	}
	return out, nil
}

// Fuzzy implements Store.
func (s *MemoryStore) Fuzzy(ctx context.Context, name string, floor float64) ([]models.ReferenceMatch, error) {
	folded := normalizer.Normalize(name)
	if folded == "" {
		return nil, nil
	}
	return ScoreMatches(folded, s.entries, floor), nil
}
