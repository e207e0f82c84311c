package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
environment: test
exchange:
  base_url: http://exchange.local
forecast:
  base_url: http://forecast.local
  api_key: key-from-yaml
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10*time.Second, cfg.Forecast.Cooldown)
	assert.Equal(t, 15*time.Minute, cfg.Cache.BoundsTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Snapshots.Retention)
	assert.Equal(t, []string{"BTC", "ETH"}, cfg.Snapshots.Assets)
	assert.Equal(t, "none", cfg.Archive.Type)
}

func TestLoadRejectsMissingForecastKey(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
exchange:
  base_url: http://exchange.local
forecast:
  base_url: http://forecast.local
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forecast.api_key")
}

func TestLoadRejectsUnknownArchiveType(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
archive:
  type: s3
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive.type")
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("FORECAST_API_KEY", "key-from-env")
	t.Setenv("SNAPSHOT_ASSETS", "BTC,ETH,SOL")
	t.Setenv("ARCHIVE_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "key-from-env", cfg.Forecast.APIKey)
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, cfg.Snapshots.Assets)
	assert.Equal(t, "kafka", cfg.Archive.Type)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.Archive.Kafka.Brokers)
}

func TestLoadWithEnvSecretFromEnvOnly(t *testing.T) {
	t.Setenv("FORECAST_API_KEY", "only-env")

	cfg, err := LoadWithEnv(writeConfig(t, `
environment: test
exchange:
  base_url: http://exchange.local
forecast:
  base_url: http://forecast.local
`))
	require.NoError(t, err)
	assert.Equal(t, "only-env", cfg.Forecast.APIKey)
}
