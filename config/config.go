package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stockMatrix/internal/adapters/logger"
	"stockMatrix/internal/domain"
)

// Data sources accepted by DATA_SOURCE.
const (
	SourceSQLite  = "sqlite"
	SourceBinance = "binance"
	SourceBackend = "backend"
)

// Config holds all application configuration.
type Config struct {
	// Initial chart selection
	Chart domain.ChartConfig

	// Crosshair and legend
	HighlightThreshold float64       // price units
	ValuePrecision     int32         // digits after the point for prices and indicators
	RefreshInterval    time.Duration // 0 loads once

	// Data source
	DataSource string
	BackendURL string
	DBPath     string

	// Binance API
	APIKey       string
	SecretKey    string
	IsTestnet    bool
	BinanceLimit int

	// Redis cache, disabled when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisTTL      time.Duration

	// Logging
	LogLevel  logger.LogLevel
	LogFormat string
	LogFile   string
}

// LoggerOptions returns the options for logger.New.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{Level: c.LogLevel.String(), Format: c.LogFormat, File: c.LogFile}
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string

	// Chart
	cfg.Chart = domain.ChartConfig{
		Ticker:    strings.ToUpper(getEnv("TICKER", "AAPL")),
		Interval:  getEnv("INTERVAL", "1d"),
		MAFamily:  strings.ToLower(getEnv("MA_OPTIONS", "sma")),
		Indicator: domain.IndicatorFamily(strings.ToLower(getEnv("TECH_IND", "macd"))),
	}
	if err := cfg.Chart.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	cfg.HighlightThreshold, err = getEnvAsFloatRequired("HIGHLIGHT_THRESHOLD", 2.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HIGHLIGHT_THRESHOLD: %v", err))
	} else if math.IsNaN(cfg.HighlightThreshold) || math.IsInf(cfg.HighlightThreshold, 0) || cfg.HighlightThreshold <= 0 {
		errs = append(errs, "HIGHLIGHT_THRESHOLD must be a positive finite number")
	}

	precision, err := getEnvAsIntRequired("VALUE_PRECISION", 2)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid VALUE_PRECISION: %v", err))
	} else if precision < 0 || precision > 8 {
		errs = append(errs, "VALUE_PRECISION must be between 0 and 8")
	}
	cfg.ValuePrecision = int32(precision)

	refreshSeconds, err := getEnvAsIntRequired("REFRESH_INTERVAL_SECONDS", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REFRESH_INTERVAL_SECONDS: %v", err))
	} else if refreshSeconds < 0 {
		errs = append(errs, "REFRESH_INTERVAL_SECONDS cannot be negative")
	}
	cfg.RefreshInterval = time.Duration(refreshSeconds) * time.Second

	// Data source
	cfg.DataSource = strings.ToLower(getEnv("DATA_SOURCE", SourceSQLite))
	cfg.BackendURL = getEnv("BACKEND_URL", "http://localhost:8000")
	cfg.DBPath = getEnv("DB_PATH", "./data/chart_series.db")
	switch cfg.DataSource {
	case SourceSQLite:
		if cfg.DBPath == "" {
			errs = append(errs, "DB_PATH must be set")
		}
	case SourceBackend:
		if cfg.BackendURL == "" {
			errs = append(errs, "BACKEND_URL must be set")
		}
	case SourceBinance:
	default:
		errs = append(errs, fmt.Sprintf("DATA_SOURCE must be one of %s, %s, %s", SourceSQLite, SourceBinance, SourceBackend))
	}

	// Binance API; keys are optional because klines are public
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)
	cfg.BinanceLimit = getEnvAsInt("BINANCE_KLINE_LIMIT", 500)

	// Redis
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	ttlSeconds, err := getEnvAsIntRequired("REDIS_TTL_SECONDS", 300)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REDIS_TTL_SECONDS: %v", err))
	} else if ttlSeconds <= 0 {
		errs = append(errs, "REDIS_TTL_SECONDS must be positive")
	}
	cfg.RedisTTL = time.Duration(ttlSeconds) * time.Second

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", logger.FormatText))
	switch cfg.LogFormat {
	case logger.FormatText, logger.FormatJSON, logger.FormatConsole:
	default:
		errs = append(errs, "LOG_FORMAT must be text, json or console")
	}
	cfg.LogFile = getEnv("LOG_FILE", "")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
