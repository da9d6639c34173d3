// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/usestring/flowlens/pkg/decode"
)

// Tool output defaults
const (
	DefaultGroupLimitValue    = 50
	DefaultExamplesPerGroup   = 3
	DefaultDecodeCacheItems   = 1024
	DefaultEnrichWorkersValue = 8
)

// Config holds all configuration for the flowlens server.
type Config struct {
	PowHTTPBaseURL     string        // POWHTTP_BASE_URL, default "http://localhost:7777"
	HTTPClientTimeout  time.Duration // HTTP_CLIENT_TIMEOUT_MS, default 10000ms (10s)
	RefreshTimeout     time.Duration // REFRESH_TIMEOUT_MS, default 15000ms (15s)
	RefreshInterval    time.Duration // REFRESH_INTERVAL_MS, default 2000ms (2s), 0 disables
	FreshnessThreshold time.Duration // FRESHNESS_THRESHOLD_MS, default 500ms
	BootstrapTailLimit int           // BOOTSTRAP_TAIL_LIMIT, default 20000
	FetchWorkers       int           // FETCH_WORKERS, default 16
	EnrichWorkers      int           // ENRICH_WORKERS, default 8
	DecodeCacheItems   int           // DECODE_CACHE_MAX_ITEMS, default 1024

	// App rules
	AppRulesFile string // APP_RULES_FILE, default "" (built-in rules only)
	AppRulesMode string // APP_RULES_MODE, "prepend" (default) or "replace"

	// Metrics
	MetricsAddr string // METRICS_ADDR, default "" (disabled)

	// Tool output limits
	HexViewMaxLines   int // HEX_VIEW_MAX_LINES, default 1000
	DefaultGroupLimit int // DEFAULT_GROUP_LIMIT, default 50

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, "text" (default) or "json"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		PowHTTPBaseURL:     getEnvString("POWHTTP_BASE_URL", "http://localhost:7777"),
		HTTPClientTimeout:  getEnvDurationMs("HTTP_CLIENT_TIMEOUT_MS", 10000),
		RefreshTimeout:     getEnvDurationMs("REFRESH_TIMEOUT_MS", 15000),
		RefreshInterval:    getEnvDurationMs("REFRESH_INTERVAL_MS", 2000),
		FreshnessThreshold: getEnvDurationMs("FRESHNESS_THRESHOLD_MS", 500),
		BootstrapTailLimit: getEnvInt("BOOTSTRAP_TAIL_LIMIT", 20000),
		FetchWorkers:       getEnvInt("FETCH_WORKERS", 16),
		EnrichWorkers:      getEnvInt("ENRICH_WORKERS", DefaultEnrichWorkersValue),
		DecodeCacheItems:   getEnvInt("DECODE_CACHE_MAX_ITEMS", DefaultDecodeCacheItems),

		AppRulesFile: getEnvString("APP_RULES_FILE", ""),
		AppRulesMode: getEnvString("APP_RULES_MODE", "prepend"),

		MetricsAddr: getEnvString("METRICS_ADDR", ""),

		HexViewMaxLines:   getEnvInt("HEX_VIEW_MAX_LINES", decode.DefaultHexViewLines),
		DefaultGroupLimit: getEnvInt("DEFAULT_GROUP_LIMIT", DefaultGroupLimitValue),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
