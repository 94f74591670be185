package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Default input files, relative to the working directory.
const (
	DefaultDatasetPath   = "NYC_Building_Energy_and_Water_Data_Disclosure_for_Local_Law_84__2022-Present__20250106.csv"
	DefaultBoundaryPath  = "new-york-zip-codes-_1604.geojson"
	DefaultBoundaryKey   = "ZCTA5CE10"
	DefaultStylesheetURL = "https://cdn.jsdelivr.net/npm/bootswatch@5.3.3/dist/cosmo/bootstrap.min.css"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	Debug           bool

	DatasetPath   string
	BoundaryPath  string
	BoundaryKey   string
	StylesheetURL string

	// Mapbox reverse geocoding of clicked ZIP codes.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Optional Kafka sink for dashboard interaction events.
	EventsEnabled bool
	EventsBrokers []string
	EventsTopic   string

	// Batching of interaction events before they are written to Kafka.
	BatchSize          int
	BatchFlushInterval time.Duration
}

// LoadDotEnv seeds the process environment from a dotenv file. Variables that
// are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	batchFlushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	debug, err := strconv.ParseBool(sharedcfg.EnvOrDefault("DEBUG", "true"))
	if err != nil {
		return nil, errors.New("invalid DEBUG")
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	var eventsBrokers []string
	if raw := strings.TrimSpace(os.Getenv("EVENTS_KAFKA_BROKERS")); raw != "" {
		eventsBrokers = sharedcfg.ParseBrokers(raw)
	}
	eventsEnabled := len(eventsBrokers) > 0
	if v := os.Getenv("EVENTS_ENABLED"); v != "" {
		eventsEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8050"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", defaultLogLevel(debug)),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		Debug:           debug,

		DatasetPath:   sharedcfg.EnvOrDefault("DATASET_PATH", DefaultDatasetPath),
		BoundaryPath:  sharedcfg.EnvOrDefault("BOUNDARY_PATH", DefaultBoundaryPath),
		BoundaryKey:   sharedcfg.EnvOrDefault("BOUNDARY_KEY", DefaultBoundaryKey),
		StylesheetURL: sharedcfg.EnvOrDefault("STYLESHEET_URL", DefaultStylesheetURL),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		EventsEnabled: eventsEnabled,
		EventsBrokers: eventsBrokers,
		EventsTopic:   sharedcfg.EnvOrDefault("EVENTS_TOPIC", "dashboard-interactions"),

		BatchSize:          batchSize,
		BatchFlushInterval: batchFlushInterval,
	}

	if cfg.DatasetPath == "" {
		return nil, errors.New("DATASET_PATH is required")
	}
	if cfg.BoundaryPath == "" {
		return nil, errors.New("BOUNDARY_PATH is required")
	}
	if cfg.BoundaryKey == "" {
		return nil, errors.New("BOUNDARY_KEY is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.EventsEnabled && len(cfg.EventsBrokers) == 0 {
		return nil, errors.New("EVENTS_ENABLED is true but EVENTS_KAFKA_BROKERS is not set")
	}
	if cfg.EventsEnabled && cfg.EventsTopic == "" {
		return nil, errors.New("EVENTS_TOPIC is required")
	}

	return cfg, nil
}

// defaultLogLevel applies when LOG_LEVEL is unset. Debug mode logs every
// dispatch and request.
func defaultLogLevel(debug bool) string {
	if debug {
		return "debug"
	}
	return "info"
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
