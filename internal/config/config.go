package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application settings (in-memory representation).
// Nothing here is persisted; Load re-reads the environment on every start.
type Config struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`

	// Upstream price service.
	APIBaseURL        string        `json:"api_base_url"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	RequestsPerSecond float64       `json:"requests_per_second"`

	// Cache windows.
	QuoteRefreshInterval time.Duration `json:"quote_refresh_interval"`
	HistoryTTL           time.Duration `json:"history_ttl"`
	HistoryBuckets       int           `json:"history_buckets"` // daily buckets kept per (item, location)
	HistoryWindow        int           `json:"history_window"`  // buckets averaged into the 7-day figure

	// Gold series.
	GoldCount    int     `json:"gold_count"`
	OHLCBuckets  int     `json:"ohlc_buckets"`
	GoldMinPrice float64 `json:"gold_min_price"` // exclusive
	GoldMaxPrice float64 `json:"gold_max_price"` // exclusive

	// Decision constants. Hurdles are fractions (0.03 = 3%).
	OrderFee       float64 `json:"order_fee"`
	HideHurdle     float64 `json:"hide_hurdle"`
	LeatherHurdle  float64 `json:"leather_hurdle"`
	ArtifactHurdle float64 `json:"artifact_hurdle"`
}

// Default returns a Config with the constants the trader was tuned with.
func Default() *Config {
	return &Config{
		Port:                 8501,
		LogLevel:             "info",
		APIBaseURL:           "https://west.albion-online-data.com/api/v2",
		RequestTimeout:       10 * time.Second,
		RequestsPerSecond:    3,
		QuoteRefreshInterval: 300 * time.Second,
		HistoryTTL:           time.Hour,
		HistoryBuckets:       24,
		HistoryWindow:        7,
		GoldCount:            720,
		OHLCBuckets:          30,
		GoldMinPrice:         1000,
		GoldMaxPrice:         20000,
		OrderFee:             1.025,
		HideHurdle:           0.03,
		LeatherHurdle:        0.03,
		ArtifactHurdle:       0.08,
	}
}

// Load returns Default overlaid with an optional .env file and ALBION_* variables.
// Values that fail to parse keep their default.
func Load() *Config {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	c := Default()
	c.Port = getEnvInt("ALBION_PORT", c.Port)
	c.LogLevel = getEnv("ALBION_LOG_LEVEL", c.LogLevel)
	c.APIBaseURL = getEnv("ALBION_API_BASE_URL", c.APIBaseURL)
	c.RequestTimeout = getEnvDuration("ALBION_REQUEST_TIMEOUT", c.RequestTimeout)
	c.RequestsPerSecond = getEnvFloat("ALBION_REQUESTS_PER_SECOND", c.RequestsPerSecond)
	c.QuoteRefreshInterval = getEnvDuration("ALBION_QUOTE_REFRESH", c.QuoteRefreshInterval)
	c.HistoryTTL = getEnvDuration("ALBION_HISTORY_TTL", c.HistoryTTL)
	c.GoldCount = getEnvInt("ALBION_GOLD_COUNT", c.GoldCount)
	c.OrderFee = getEnvFloat("ALBION_ORDER_FEE", c.OrderFee)
	c.HideHurdle = getEnvFloat("ALBION_HIDE_HURDLE", c.HideHurdle)
	c.LeatherHurdle = getEnvFloat("ALBION_LEATHER_HURDLE", c.LeatherHurdle)
	c.ArtifactHurdle = getEnvFloat("ALBION_ARTIFACT_HURDLE", c.ArtifactHurdle)
	return c
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}
