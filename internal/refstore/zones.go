package refstore

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
	"github.com/maxparsons123/happy-ride-helper-sub002/internal/geo"
)

// Nearest-zone fallback cutoff when no polygon contains the point.
const nearestZoneCutoffMiles = 15.0

// ZoneStore answers point lookups against the operator's dispatch
// zones. Zones load once at startup (mongo collection, else YAML file)
// and are read-only afterwards, so concurrent lookups need no locking.
type ZoneStore struct {
	zones  []models.Zone
	logger *zap.Logger
}

func NewZoneStore(zones []models.Zone, logger *zap.Logger) *ZoneStore {
	return &ZoneStore{zones: zones, logger: logger}
}

// LoadZones prefers the mongo collection and falls back to the YAML
// dataset file when the collection is empty or mongo is absent.
func LoadZones(ctx context.Context, db *mongo.Database, path string, logger *zap.Logger) (*ZoneStore, error) {
	if db != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		cur, err := db.Collection("zones").Find(ctx, bson.M{})
		if err == nil {
			var zones []models.Zone
			if err := cur.All(ctx, &zones); err == nil && len(zones) > 0 {
				logger.Info("loaded dispatch zones", zap.Int("count", len(zones)), zap.String("source", "mongo"))
				return NewZoneStore(zones, logger), nil
			}
		}
	}

	zones, err := readZoneFile(path)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded dispatch zones", zap.Int("count", len(zones)), zap.String("source", path))
	return NewZoneStore(zones, logger), nil
}

func readZoneFile(path string) ([]models.Zone, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("zone dataset: %w", err)
	}
	var doc struct {
		Zones []models.Zone `yaml:"zones"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("zone dataset: %w", err)
	}
	return doc.Zones, nil
}

// Find returns the highest-priority zone containing the point, else the
// nearest zone by centroid within the cutoff, else nil.
func (zs *ZoneStore) Find(lat, lng float64) *models.Zone {
	var best *models.Zone
	for i := range zs.zones {
		z := &zs.zones[i]
		if geo.PointInPolygon(lat, lng, z.Polygon) {
			if best == nil || z.Priority > best.Priority {
				best = z
			}
		}
	}
	if best != nil {
		return best
	}

	nearest := nearestZoneCutoffMiles
	for i := range zs.zones {
		z := &zs.zones[i]
		clat, clng := geo.PolygonCentroid(z.Polygon)
		if d := geo.Miles(lat, lng, clat, clng); d < nearest {
			nearest, best = d, z
		}
	}
	return best
}
