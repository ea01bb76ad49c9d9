package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// OracleFailPolicy controls what happens when the oracle response fails
// schema validation. fail_soft ships the raw input as an unverified
// address; fail_closed forces a clarification instead.
const (
	FailSoft   = "fail_soft"
	FailClosed = "fail_closed"
)

// Thresholds is the single versioned home for every tunable constant the
// pipeline stages consult. Injected, never read globally, so tests run
// against fixed values.
type Thresholds struct {
	Version string `mapstructure:"version"`

	HistorySimilarityFloor float64 `mapstructure:"history_similarity_floor"`
	SanityCorrectFloor     float64 `mapstructure:"sanity_correct_floor"`
	DriftThresholdMiles    float64 `mapstructure:"drift_threshold_miles"`
	SanityDistanceMiles    float64 `mapstructure:"sanity_distance_miles"`
	WarnDistanceMiles      float64 `mapstructure:"warn_distance_miles"`
	MaxDistanceMiles       float64 `mapstructure:"max_distance_miles"`
	MinSeparationMeters    float64 `mapstructure:"min_separation_meters"`
	MaxClarifyDistricts    int     `mapstructure:"max_clarify_districts"`
}

// FareTable holds per-currency fare parameters.
type FareTable struct {
	BaseFare    float64 `mapstructure:"base_fare"`
	PerMileRate float64 `mapstructure:"per_mile_rate"`
	MinimumFare float64 `mapstructure:"minimum_fare"`
	AvgSpeedMPH float64 `mapstructure:"avg_speed_mph"`
	BufferMins  int     `mapstructure:"buffer_mins"`
}

// FareTables maps an ISO currency code to its fare parameters.
type FareTables map[string]FareTable

type OracleCfg struct {
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	FailPolicy string        `mapstructure:"fail_policy"`
}

type RevGeoCfg struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type MeiliCfg struct {
	Host      string        `mapstructure:"host"`
	APIKey    string        `mapstructure:"api_key"`
	IndexName string        `mapstructure:"index_name"`
	Timeout   time.Duration `mapstructure:"timeout"`
	CacheSize int           `mapstructure:"cache_size"`
}

type Config struct {
	Port         string     `mapstructure:"port"`
	MongoURI     string     `mapstructure:"mongo_uri"`
	MongoDB      string     `mapstructure:"mongo_db"`
	RedisURL     string     `mapstructure:"redis_url"`
	ZoneFile     string     `mapstructure:"zone_file"`
	UseLibpostal bool       `mapstructure:"use_libpostal"`
	DatasetVer   string     `mapstructure:"dataset_version"`
	Oracle       OracleCfg  `mapstructure:"oracle"`
	RevGeo       RevGeoCfg  `mapstructure:"revgeo"`
	Meili        MeiliCfg   `mapstructure:"meili"`
	Thresholds   Thresholds `mapstructure:"thresholds"`
	Fare         FareTables `mapstructure:"fare"`
}

// Load reads config/dispatch.yaml (or path), applying DISPATCH_* env
// overrides. Missing keys fall back to the defaults below.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("DISPATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; defaults carry the service.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotExist(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isNotExist(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such file")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_db", "dispatch")
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("zone_file", "config/zones.yaml")
	v.SetDefault("use_libpostal", false)
	v.SetDefault("dataset_version", "1.0.0")

	v.SetDefault("oracle.url", "http://localhost:9090/resolve")
	v.SetDefault("oracle.timeout", 8*time.Second)
	v.SetDefault("oracle.fail_policy", FailClosed)

	v.SetDefault("revgeo.url", "http://localhost:9091/reverse")
	v.SetDefault("revgeo.timeout", 5*time.Second)

	v.SetDefault("meili.host", "http://localhost:7700")
	v.SetDefault("meili.index_name", "reference_streets")
	v.SetDefault("meili.timeout", 5*time.Second)
	v.SetDefault("meili.cache_size", 2048)

	v.SetDefault("thresholds.version", "1")
	v.SetDefault("thresholds.history_similarity_floor", 0.70)
	v.SetDefault("thresholds.sanity_correct_floor", 0.40)
	v.SetDefault("thresholds.drift_threshold_miles", 0.5)
	v.SetDefault("thresholds.sanity_distance_miles", 50.0)
	v.SetDefault("thresholds.warn_distance_miles", 100.0)
	v.SetDefault("thresholds.max_distance_miles", 200.0)
	v.SetDefault("thresholds.min_separation_meters", 50.0)
	v.SetDefault("thresholds.max_clarify_districts", 3)

	v.SetDefault("fare.GBP", map[string]interface{}{
		"base_fare": 3.50, "per_mile_rate": 1.00, "minimum_fare": 4.00,
		"avg_speed_mph": 22.0, "buffer_mins": 5,
	})
	v.SetDefault("fare.EUR", map[string]interface{}{
		"base_fare": 4.00, "per_mile_rate": 1.20, "minimum_fare": 5.00,
		"avg_speed_mph": 22.0, "buffer_mins": 5,
	})
}
