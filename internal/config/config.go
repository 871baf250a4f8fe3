package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultFeedURL is the NASA public OEM ephemeris for the ISS.
const DefaultFeedURL = "https://nasa-public-data.s3.amazonaws.com/iss-coords/current/ISS_OEM/ISS.OEM_J2K_EPH.xml"

// Config holds all service settings, populated from environment variables.
type Config struct {
	FeedURL         string
	FeedTimeout     time.Duration
	RefreshInterval time.Duration // 0 disables periodic re-ingestion

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Store backend: "memory" (default) or "sqlite".
	StoreDriver string
	SQLitePath  string

	// Reverse-geocoding configuration.
	GeocoderEnabled   bool
	GeocoderBaseURL   string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration
	GeocoderCacheSize int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	feedTimeout, err := parseDuration("FEED_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parseOptionalDuration("REFRESH_INTERVAL")
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	geocoderTimeout, err := parseDuration("GEOCODER_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	geocoderEnabled := true
	if v := os.Getenv("GEOCODER_ENABLED"); v != "" {
		geocoderEnabled = v == "true"
	}

	cfg := &Config{
		FeedURL:         envOrDefault("FEED_URL", DefaultFeedURL),
		FeedTimeout:     feedTimeout,
		RefreshInterval: refreshInterval,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StoreDriver: envOrDefault("STORE_DRIVER", "memory"),
		SQLitePath:  envOrDefault("SQLITE_PATH", "iss-telemetry.db"),

		GeocoderEnabled:   geocoderEnabled,
		GeocoderBaseURL:   envOrDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: envOrDefault("GEOCODER_USER_AGENT", "iss-telemetry/1.0"),
		GeocoderTimeout:   geocoderTimeout,
		GeocoderCacheSize: parseGeocoderCacheSize(),
	}

	if cfg.FeedURL == "" {
		return nil, errors.New("FEED_URL is required")
	}
	switch cfg.StoreDriver {
	case "memory", "sqlite":
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be \"memory\" or \"sqlite\", got %q", cfg.StoreDriver)
	}
	if cfg.StoreDriver == "sqlite" && cfg.SQLitePath == "" {
		return nil, errors.New("SQLITE_PATH is required when STORE_DRIVER is sqlite")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseDuration reads a required-positive duration env var with a default.
func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

// parseOptionalDuration reads a duration env var where empty or "0" means
// disabled.
func parseOptionalDuration(key string) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseGeocoderCacheSize() int {
	if s := os.Getenv("GEOCODER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
