package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "http://localhost:7777", cfg.PowHTTPBaseURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPClientTimeout)
	assert.Equal(t, 2*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 16, cfg.FetchWorkers)
	assert.Equal(t, DefaultEnrichWorkersValue, cfg.EnrichWorkers)
	assert.Equal(t, DefaultDecodeCacheItems, cfg.DecodeCacheItems)
	assert.Equal(t, "prepend", cfg.AppRulesMode)
	assert.Equal(t, 1000, cfg.HexViewMaxLines)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.LogCompress)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("POWHTTP_BASE_URL", "http://capture:9000")
	t.Setenv("REFRESH_INTERVAL_MS", "0")
	t.Setenv("ENRICH_WORKERS", "3")
	t.Setenv("APP_RULES_FILE", "/etc/flowlens/rules.yaml")
	t.Setenv("APP_RULES_MODE", "replace")
	t.Setenv("METRICS_ADDR", ":9100")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_COMPRESS", "off")
	t.Setenv("DEFAULT_GROUP_LIMIT", "not-a-number")

	cfg := Load()
	assert.Equal(t, "http://capture:9000", cfg.PowHTTPBaseURL)
	assert.Equal(t, time.Duration(0), cfg.RefreshInterval)
	assert.Equal(t, 3, cfg.EnrichWorkers)
	assert.Equal(t, "/etc/flowlens/rules.yaml", cfg.AppRulesFile)
	assert.Equal(t, "replace", cfg.AppRulesMode)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.LogCompress)
	assert.Equal(t, DefaultGroupLimitValue, cfg.DefaultGroupLimit)
}
