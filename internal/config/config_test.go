package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/county-risk-forecast/internal/domain"
)

const (
	testAPIKey    = "test-api-key"
	testProjectID = "test-project"
)

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("WATSONX_API_KEY", testAPIKey)
	t.Setenv("WATSONX_PROJECT_ID", testProjectID)
}

// unsetForTest removes key for the duration of the test and restores it after.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoad_Defaults(t *testing.T) {
	setCredentials(t)

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, filepath.Join("data", "federalEmploymentByCounty.csv"), cfg.FederalEmploymentFile)
	assert.Equal(t, filepath.Join("data", "unemploymentByCounty.csv"), cfg.UnemploymentFile)
	assert.Equal(t, filepath.Join("data", "snapParticipationByCounty.csv"), cfg.SNAPFile)
	assert.Equal(t, filepath.Join("data", "costOfLivingByCounty.csv"), cfg.CostOfLivingFile)
	assert.Empty(t, cfg.GazetteerFile)
	assert.Equal(t, filepath.Join("data", "processed", "regional_risk.csv"), cfg.OutputFile)

	assert.Equal(t, testAPIKey, cfg.APIKey)
	assert.Equal(t, testProjectID, cfg.ProjectID)
	assert.Equal(t, "https://us-south.ml.cloud.ibm.com", cfg.WatsonxURL)
	assert.Equal(t, "https://iam.cloud.ibm.com/identity/token", cfg.IAMTokenURL)
	assert.Equal(t, "ibm/granite-ttm-512-96-r2", cfg.ModelID)
	assert.Equal(t, 60*time.Second, cfg.WatsonxTimeout)

	assert.Equal(t, 512, cfg.MinDataPoints)
	assert.Equal(t, domain.AnchorEarliest, cfg.AugmentAnchor)
	assert.Equal(t, 1, cfg.ForecastConcurrency)
	assert.Zero(t, cfg.ForecastRateLimit)
	assert.Zero(t, cfg.ForecastCacheSize)
	assert.Zero(t, cfg.RunInterval)

	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "county-risk-scores", cfg.KafkaSinkTopic)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	setCredentials(t)
	t.Setenv("DATA_DIR", "/srv/data")
	t.Setenv("UNEMPLOYMENT_FILE", "unemp-2025.csv")
	t.Setenv("SNAP_FILE", "/abs/snap.csv")
	t.Setenv("GAZETTEER_FILE", "uscounties.csv")
	t.Setenv("OUTPUT_FILE", "/tmp/out.csv")
	t.Setenv("WATSONX_URL", "https://eu-de.ml.cloud.ibm.com")
	t.Setenv("WATSONX_TIMEOUT", "5s")
	t.Setenv("MIN_DATA_POINTS", "24")
	t.Setenv("AUGMENT_ANCHOR", "latest")
	t.Setenv("FORECAST_CONCURRENCY", "4")
	t.Setenv("FORECAST_RATE_LIMIT", "2.5")
	t.Setenv("FORECAST_CACHE_SIZE", "5000")
	t.Setenv("RUN_INTERVAL", "24h")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/srv/data", "unemp-2025.csv"), cfg.UnemploymentFile)
	assert.Equal(t, "/abs/snap.csv", cfg.SNAPFile)
	assert.Equal(t, filepath.Join("/srv/data", "uscounties.csv"), cfg.GazetteerFile)
	assert.Equal(t, "/tmp/out.csv", cfg.OutputFile)
	assert.Equal(t, "https://eu-de.ml.cloud.ibm.com", cfg.WatsonxURL)
	assert.Equal(t, 5*time.Second, cfg.WatsonxTimeout)
	assert.Equal(t, 24, cfg.MinDataPoints)
	assert.Equal(t, domain.AnchorLatest, cfg.AugmentAnchor)
	assert.Equal(t, 4, cfg.ForecastConcurrency)
	assert.Equal(t, 2.5, cfg.ForecastRateLimit)
	assert.Equal(t, 5000, cfg.ForecastCacheSize)
	assert.Equal(t, 24*time.Hour, cfg.RunInterval)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_LegacyCredentialNames(t *testing.T) {
	unsetForTest(t, "WATSONX_API_KEY")
	unsetForTest(t, "WATSONX_PROJECT_ID")
	t.Setenv("API_KEY", "legacy-key")
	t.Setenv("PROJECT_ID", "legacy-project")

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.APIKey)
	assert.Equal(t, "legacy-project", cfg.ProjectID)
}

func TestLoad_MissingCredentials(t *testing.T) {
	for _, key := range []string{"WATSONX_API_KEY", "WATSONX_PROJECT_ID", "API_KEY", "PROJECT_ID"} {
		unsetForTest(t, key)
	}
	t.Setenv("WATSONX_API_KEY", testAPIKey)

	_, err := LoadFrom("")
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestLoad_DotEnvFile(t *testing.T) {
	unsetForTest(t, "WATSONX_API_KEY")
	unsetForTest(t, "WATSONX_PROJECT_ID")
	unsetForTest(t, "API_KEY")
	unsetForTest(t, "PROJECT_ID")
	unsetForTest(t, "WATSONX_MODEL_ID")
	t.Setenv("LOG_LEVEL", "warn")

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "WATSONX_API_KEY=from-file\nWATSONX_PROJECT_ID=proj-file\nWATSONX_MODEL_ID=ibm/other\nLOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := LoadFrom(envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "proj-file", cfg.ProjectID)
	assert.Equal(t, "ibm/other", cfg.ModelID)
	// the process environment wins over the file
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	setCredentials(t)
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"WATSONX_TIMEOUT", "soon"},
		{"WATSONX_TIMEOUT", "0s"},
		{"RUN_INTERVAL", "-1h"},
		{"MIN_DATA_POINTS", "0"},
		{"MIN_DATA_POINTS", "many"},
		{"FORECAST_CONCURRENCY", "-2"},
		{"FORECAST_RATE_LIMIT", "-1"},
		{"FORECAST_RATE_LIMIT", "fast"},
		{"FORECAST_CACHE_SIZE", "-3"},
		{"AUGMENT_ANCHOR", "middle"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setCredentials(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFrom("")
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrMissingCredentials)
		})
	}
}
