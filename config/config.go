package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	HTTP      HTTPConfig
	Model     ModelConfig
	Geo       GeoConfig
	Scheduler SchedulerConfig
	Backfill  BackfillConfig
	LogLevel  string
}

type DatabaseConfig struct {
	Backend     string // postgres or sqlite
	PostgresURL string
	SQLitePath  string
}

type HTTPConfig struct {
	Addr string
}

type ModelConfig struct {
	ArtifactsDir string
	// PriceFloorM2 is the minimum accepted price-per-m2 prediction in UF.
	PriceFloorM2 float64
	// UFValueCLP converts UF-denominated listing prices to CLP for scoring.
	UFValueCLP float64
}

type GeoConfig struct {
	Bounds BoundingBox
	// ZonesPath points at the macro-zone YAML used when the POI table is
	// unavailable. Empty means use the built-in table.
	ZonesPath string
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type BackfillConfig struct {
	BatchSize int
	Interval  time.Duration
}

// BoundingBox delimits the serviced area. Coordinates outside it are
// rejected at validation time.
type BoundingBox struct {
	LatMin float64 `yaml:"lat_min"`
	LatMax float64 `yaml:"lat_max"`
	LngMin float64 `yaml:"lng_min"`
	LngMax float64 `yaml:"lng_max"`
}

func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lng >= b.LngMin && lng <= b.LngMax
}

// SantiagoBounds is the default service area: Gran Santiago.
var SantiagoBounds = BoundingBox{
	LatMin: -33.7, LatMax: -33.2,
	LngMin: -71.0, LngMax: -70.4,
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Backend:     getEnv("DB_BACKEND", "postgres"),
			PostgresURL: os.Getenv("DATABASE_URL"),
			SQLitePath:  getEnv("SQLITE_PATH", "geoprecio.db"),
		},
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Model: ModelConfig{
			ArtifactsDir: getEnv("ARTIFACTS_DIR", "artifacts/exports"),
			PriceFloorM2: getEnvFloat("PRICE_FLOOR_M2", 0),
			UFValueCLP:   getEnvFloat("UF_VALUE_CLP", 38500),
		},
		Geo: GeoConfig{
			Bounds: BoundingBox{
				LatMin: getEnvFloat("GEO_LAT_MIN", SantiagoBounds.LatMin),
				LatMax: getEnvFloat("GEO_LAT_MAX", SantiagoBounds.LatMax),
				LngMin: getEnvFloat("GEO_LNG_MIN", SantiagoBounds.LngMin),
				LngMax: getEnvFloat("GEO_LNG_MAX", SantiagoBounds.LngMax),
			},
			ZonesPath: os.Getenv("GEO_ZONES_PATH"),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("STATS_CRON"),
		},
		Backfill: BackfillConfig{
			BatchSize: getEnvInt("BACKFILL_BATCH", 50),
			Interval:  getEnvDuration("BACKFILL_INTERVAL", 15*time.Minute),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if interval := os.Getenv("STATS_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
