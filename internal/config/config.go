package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Catalog access.
	CatalogBaseURL   string
	CatalogToken     string
	CatalogTimeout   time.Duration
	CatalogCacheSize int

	// Fetch defaults applied to every query.
	DownscalingMethod string
	Resolution        string
	Timescale         string

	LogLevel  string
	LogFormat string

	// MetricsAddr serves /healthz, /readyz, and /metrics during batch runs.
	// Empty disables the server.
	MetricsAddr string

	// SampleSeed seeds test-point sampling; 0 means seed from the clock.
	SampleSeed int64

	// Kafka completion-event publishing (feature-flagged via KAFKA_ENABLED).
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from the environment (and a .env file when
// present), applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	timeout, err := getEnvAsDuration("CATALOG_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	seed, err := getEnvAsInt64("SAMPLE_SEED", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CatalogBaseURL:   getEnv("CATALOG_BASE_URL", "http://localhost:8081"),
		CatalogToken:     os.Getenv("CATALOG_TOKEN"),
		CatalogTimeout:   timeout,
		CatalogCacheSize: getEnvAsInt("CATALOG_CACHE_SIZE", 16),

		DownscalingMethod: getEnv("DOWNSCALING_METHOD", "Statistical"),
		Resolution:        getEnv("RESOLUTION", "3 km"),
		Timescale:         getEnv("TIMESCALE", "monthly"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsAddr: os.Getenv("METRICS_ADDR"),
		SampleSeed:  seed,

		KafkaEnabled: getEnv("KAFKA_ENABLED", "false") == "true",
		KafkaBrokers: splitAndTrim(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "climate-export-events"),
	}

	if cfg.CatalogBaseURL == "" {
		return nil, errors.New("CATALOG_BASE_URL is required")
	}
	if cfg.CatalogTimeout <= 0 {
		return nil, errors.New("CATALOG_TIMEOUT must be positive")
	}
	if cfg.CatalogCacheSize <= 0 {
		return nil, errors.New("CATALOG_CACHE_SIZE must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) (int64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
