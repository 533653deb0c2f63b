package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/county-risk-forecast/internal/domain"
)

// ErrMissingCredentials means the forecasting service cannot be called because
// the API key or project ID is unset.
var ErrMissingCredentials = errors.New("WATSONX_API_KEY and WATSONX_PROJECT_ID must be set")

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Input and output files.
	DataDir               string
	FederalEmploymentFile string
	UnemploymentFile      string
	SNAPFile              string
	CostOfLivingFile      string
	GazetteerFile         string
	OutputFile            string

	// Forecasting service.
	APIKey         string
	ProjectID      string
	WatsonxURL     string
	IAMTokenURL    string
	ModelID        string
	APIVersion     string
	WatsonxTimeout time.Duration

	// Forecast preparation and fan-out.
	MinDataPoints       int
	AugmentAnchor       domain.Anchor
	ForecastConcurrency int
	ForecastRateLimit   float64
	ForecastCacheSize   int
	RunInterval         time.Duration

	// Optional Kafka publication; disabled when KafkaBrokers is empty.
	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads an optional .env file, then configuration from environment
// variables, applying defaults where unset. Variables already present in the
// environment take precedence over the .env file.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit .env path. A missing file is not an error.
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	watsonxTimeout, err := parseDuration("WATSONX_TIMEOUT", "60s", false)
	if err != nil {
		return nil, err
	}
	runInterval, err := parseDuration("RUN_INTERVAL", "0", true)
	if err != nil {
		return nil, err
	}
	minPoints, err := parsePositiveInt("MIN_DATA_POINTS", domain.DefaultMinPoints)
	if err != nil {
		return nil, err
	}
	concurrency, err := parsePositiveInt("FORECAST_CONCURRENCY", 1)
	if err != nil {
		return nil, err
	}
	rateLimit, err := parseRate("FORECAST_RATE_LIMIT")
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseNonNegativeInt("FORECAST_CACHE_SIZE")
	if err != nil {
		return nil, err
	}
	anchor, err := domain.ParseAnchor(os.Getenv("AUGMENT_ANCHOR"))
	if err != nil {
		return nil, err
	}

	dataDir := sharedcfg.EnvOrDefault("DATA_DIR", "data")
	cfg := &Config{
		DataDir:               dataDir,
		FederalEmploymentFile: dataPath(dataDir, sharedcfg.EnvOrDefault("FEDERAL_EMPLOYMENT_FILE", "federalEmploymentByCounty.csv")),
		UnemploymentFile:      dataPath(dataDir, sharedcfg.EnvOrDefault("UNEMPLOYMENT_FILE", "unemploymentByCounty.csv")),
		SNAPFile:              dataPath(dataDir, sharedcfg.EnvOrDefault("SNAP_FILE", "snapParticipationByCounty.csv")),
		CostOfLivingFile:      dataPath(dataDir, sharedcfg.EnvOrDefault("COST_OF_LIVING_FILE", "costOfLivingByCounty.csv")),
		GazetteerFile:         optionalDataPath(dataDir, os.Getenv("GAZETTEER_FILE")),
		OutputFile:            sharedcfg.EnvOrDefault("OUTPUT_FILE", filepath.Join("data", "processed", "regional_risk.csv")),

		APIKey:         firstEnv("WATSONX_API_KEY", "API_KEY"),
		ProjectID:      firstEnv("WATSONX_PROJECT_ID", "PROJECT_ID"),
		WatsonxURL:     sharedcfg.EnvOrDefault("WATSONX_URL", "https://us-south.ml.cloud.ibm.com"),
		IAMTokenURL:    sharedcfg.EnvOrDefault("IAM_TOKEN_URL", "https://iam.cloud.ibm.com/identity/token"),
		ModelID:        sharedcfg.EnvOrDefault("WATSONX_MODEL_ID", "ibm/granite-ttm-512-96-r2"),
		APIVersion:     sharedcfg.EnvOrDefault("WATSONX_API_VERSION", "2023-05-29"),
		WatsonxTimeout: watsonxTimeout,

		MinDataPoints:       minPoints,
		AugmentAnchor:       anchor,
		ForecastConcurrency: concurrency,
		ForecastRateLimit:   rateLimit,
		ForecastCacheSize:   cacheSize,
		RunInterval:         runInterval,

		KafkaBrokers:   parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "county-risk-scores"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.APIKey == "" || cfg.ProjectID == "" {
		return nil, ErrMissingCredentials
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether run results are also published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// parseBrokers returns nil for an unset list so Kafka stays disabled.
func parseBrokers(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(raw)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// dataPath resolves bare file names against the data directory.
func dataPath(dir, name string) string {
	if filepath.IsAbs(name) || filepath.Dir(name) != "." {
		return name
	}
	return filepath.Join(dir, name)
}

func optionalDataPath(dir, name string) string {
	if name == "" {
		return ""
	}
	return dataPath(dir, name)
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	raw := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, raw)
	}
	return n, nil
}

func parseNonNegativeInt(key string) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", key, raw)
	}
	return n, nil
}

func parseRate(key string) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}
	r, err := strconv.ParseFloat(raw, 64)
	if err != nil || r < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative number", key, raw)
	}
	return r, nil
}
