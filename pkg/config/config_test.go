package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "REDIS_ENABLED", "POLICY_PATH",
		"SCAN_UNIVERSE", "SCAN_WORKERS", "SCORER_TIMEOUT", "PRICE_POLL_INTERVAL",
		"LOG_LEVEL", "METRICS_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Empty(t, cfg.Database.URL)
	assert.True(t, cfg.Redis.Enabled)
	assert.Empty(t, cfg.PolicyPath)
	assert.Nil(t, cfg.Scan.Universe)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, 10*time.Second, cfg.Scan.ScorerTimeout)
	assert.Equal(t, 30*time.Second, cfg.Feeds.PollInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("SCAN_WORKERS", "8")
	t.Setenv("SCORER_TIMEOUT", "5s")
	t.Setenv("PRICE_STREAM_URL", "ws://feed.example/v1/stream")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.Equal(t, 5*time.Second, cfg.Scan.ScorerTimeout)
	assert.Equal(t, "ws://feed.example/v1/stream", cfg.Feeds.PriceStreamURL)
}

func TestLoad_UniverseParsing(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("SCAN_UNIVERSE", " aapl, msft ,,NVDA ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, cfg.Scan.Universe)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("bad env", func(t *testing.T) {
		t.Setenv("ENV", "sandbox")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad workers", func(t *testing.T) {
		t.Setenv("ENV", "development")
		t.Setenv("SCAN_WORKERS", "-1")
		_, err := Load()
		assert.Error(t, err)
	})
}
