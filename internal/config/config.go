package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DatabasePath string

	// NASA NeoWs feed configuration.
	NASAAPIKey   string
	NASABaseURL  string
	NEOTimeout   time.Duration
	NEOCacheSize int

	// Population density assumption for the affected-population estimate,
	// used when a request does not supply its own.
	PopDensityPerKm2 float64

	// Kafka scenario-event publishing. Disabled when no brokers are set.
	KafkaBrokers     []string
	KafkaEventsTopic string
	EventsEnabled    bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	neoTimeout, err := parseDuration("NEO_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	neoCacheSize, err := parsePositiveInt("NEO_CACHE_SIZE", 64)
	if err != nil {
		return nil, err
	}

	popDensity, err := parsePositiveFloat("POP_DENSITY_PER_KM2", 1000)
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabasePath: envOrDefault("DATABASE_PATH", "data/impacts.db"),

		NASAAPIKey:   envOrDefault("NASA_API_KEY", "DEMO_KEY"),
		NASABaseURL:  envOrDefault("NASA_BASE_URL", "https://api.nasa.gov/neo/rest/v1"),
		NEOTimeout:   neoTimeout,
		NEOCacheSize: neoCacheSize,

		PopDensityPerKm2: popDensity,

		KafkaBrokers:     brokers,
		KafkaEventsTopic: envOrDefault("KAFKA_EVENTS_TOPIC", "impact-scenario-events"),
		EventsEnabled:    len(brokers) > 0,
	}

	if cfg.DatabasePath == "" {
		return nil, errors.New("DATABASE_PATH is required")
	}
	if cfg.EventsEnabled && cfg.KafkaEventsTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_EVENTS_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parsePositiveFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
