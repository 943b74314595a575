package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/weather-lake-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	RawRoot       string
	ProcessedRoot string
	Cities        []string
	LookbackDays  int
	Parallelism   int
	StoreTimeout  time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka run-summary publishing configuration.
	KafkaBrokers   []string
	SummaryTopic   string
	SummaryEnabled bool

	// Glue catalog verification configuration.
	GlueDatabase string
	GlueTable    string
	CatalogCheck bool
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	lookback, err := envOrDefaultInt("LOOKBACK_DAYS", 7)
	if err != nil {
		return nil, err
	}
	parallelism, err := envOrDefaultInt("PARALLELISM", 4)
	if err != nil {
		return nil, err
	}
	storeTimeout, err := envOrDefaultDuration("STORE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := envOrDefaultDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	summaryTopic := os.Getenv("SUMMARY_TOPIC")
	summaryEnabled := summaryTopic != ""
	if v := os.Getenv("SUMMARY_ENABLED"); v != "" {
		summaryEnabled = v == "true"
	}

	glueDatabase := os.Getenv("GLUE_DATABASE")
	glueTable := os.Getenv("GLUE_TABLE")
	catalogCheck := glueDatabase != "" && glueTable != ""
	if v := os.Getenv("CATALOG_CHECK"); v != "" {
		catalogCheck = v == "true"
	}

	cfg := &Config{
		RawRoot:       os.Getenv("RAW_ROOT"),
		ProcessedRoot: os.Getenv("PROCESSED_ROOT"),
		Cities:        parseCities(os.Getenv("CITIES")),
		LookbackDays:  lookback,
		Parallelism:   parallelism,
		StoreTimeout:  storeTimeout,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ""),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		SummaryTopic:   summaryTopic,
		SummaryEnabled: summaryEnabled,

		GlueDatabase: glueDatabase,
		GlueTable:    glueTable,
		CatalogCheck: catalogCheck,
	}

	if cfg.RawRoot == "" {
		return nil, errors.New("RAW_ROOT is required")
	}
	if cfg.ProcessedRoot == "" {
		return nil, errors.New("PROCESSED_ROOT is required")
	}
	if cfg.LookbackDays < 1 || cfg.LookbackDays > 90 {
		return nil, fmt.Errorf("LOOKBACK_DAYS must be between 1 and 90, got %d", cfg.LookbackDays)
	}
	if cfg.Parallelism < 1 {
		return nil, fmt.Errorf("PARALLELISM must be positive, got %d", cfg.Parallelism)
	}
	if cfg.StoreTimeout <= 0 {
		return nil, errors.New("STORE_TIMEOUT must be positive")
	}
	if cfg.SummaryEnabled && cfg.SummaryTopic == "" {
		return nil, errors.New("SUMMARY_ENABLED is true but SUMMARY_TOPIC is not set")
	}
	if cfg.SummaryEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("SUMMARY_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.CatalogCheck && (cfg.GlueDatabase == "" || cfg.GlueTable == "") {
		return nil, errors.New("CATALOG_CHECK is true but GLUE_DATABASE or GLUE_TABLE is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func envOrDefaultDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
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

// parseCities normalizes the comma-separated city filter. An empty list means
// no filter is applied.
func parseCities(s string) []string {
	var cities []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cities = append(cities, domain.NormalizeCityID(c))
		}
	}
	return cities
}
