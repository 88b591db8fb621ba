package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/api/twelvedata"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// Config holds all application configuration
type Config struct {
	TwelveAPIKey      string        `env:"TWELVE_API_KEY"`
	Pairs             []string      `env:"PAIRS" envDefault:"EUR/USD,GBP/USD,USD/JPY"`
	Timeframe         string        `env:"TIMEFRAME" envDefault:"15m"`
	CandleCount       int           `env:"CANDLE_COUNT" envDefault:"100"`
	HTFTimeframe      string        `env:"HTF_TIMEFRAME" envDefault:"4h"`
	LTFTimeframe      string        `env:"LTF_TIMEFRAME" envDefault:"1h"`
	EntryTimeframes   []string      `env:"ENTRY_TIMEFRAMES" envDefault:"15m"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON           bool          `env:"LOG_JSON" envDefault:"false"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	RequestsPerSecond float64       `env:"REQUESTS_PER_SECOND" envDefault:"5"`
	ScanWorkers       int           `env:"SCAN_WORKERS" envDefault:"4"`
	MetricsAddr       string        `env:"METRICS_ADDR"`
	BacktestDays      int           `env:"BACKTEST_DAYS" envDefault:"30"`
	InitialBalance    float64       `env:"INITIAL_BALANCE" envDefault:"10000"`
	StrategyFile      string        `env:"STRATEGY_FILE"`
}

// Load initializes configuration from environment variables. Values in the
// given .env files (default ".env") never override the real environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config
	cfg.TwelveAPIKey = os.Getenv("TWELVE_API_KEY")
	cfg.Pairs = getEnvListWithDefault("PAIRS", []string{"EUR/USD", "GBP/USD", "USD/JPY"})
	cfg.Timeframe = getEnvWithDefault("TIMEFRAME", "15m")
	cfg.CandleCount = getEnvIntWithDefault("CANDLE_COUNT", 100)
	cfg.HTFTimeframe = getEnvWithDefault("HTF_TIMEFRAME", "4h")
	cfg.LTFTimeframe = getEnvWithDefault("LTF_TIMEFRAME", "1h")
	cfg.EntryTimeframes = getEnvListWithDefault("ENTRY_TIMEFRAMES", []string{"15m"})
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.LogJSON = getEnvBoolWithDefault("LOG_JSON", false)
	cfg.RequestTimeout = getEnvDurationWithDefault("REQUEST_TIMEOUT", 30*time.Second)
	cfg.RequestsPerSecond = getEnvFloatWithDefault("REQUESTS_PER_SECOND", 5)
	cfg.ScanWorkers = getEnvIntWithDefault("SCAN_WORKERS", 4)
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	cfg.BacktestDays = getEnvIntWithDefault("BACKTEST_DAYS", 30)
	cfg.InitialBalance = getEnvFloatWithDefault("INITIAL_BALANCE", 10000)
	cfg.StrategyFile = os.Getenv("STRATEGY_FILE")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that would make every command fail
func (c *Config) Validate() error {
	var errs []error
	if len(c.Pairs) == 0 {
		errs = append(errs, errors.New("PAIRS must name at least one pair"))
	}
	if c.CandleCount < 20 {
		errs = append(errs, fmt.Errorf("CANDLE_COUNT must be at least 20, got %d", c.CandleCount))
	}
	if c.ScanWorkers < 1 {
		errs = append(errs, fmt.Errorf("SCAN_WORKERS must be positive, got %d", c.ScanWorkers))
	}
	if c.InitialBalance <= 0 {
		errs = append(errs, fmt.Errorf("INITIAL_BALANCE must be positive, got %v", c.InitialBalance))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", c.RequestTimeout))
	}
	// every timeframe has to be fetchable from the feed
	for _, tf := range append([]string{c.Timeframe, c.HTFTimeframe, c.LTFTimeframe}, c.EntryTimeframes...) {
		if _, err := twelvedata.Interval(tf); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadStrategy reads a YAML strategy file. Omitted fields keep their default
// values and unknown fields are rejected. An empty path returns the defaults.
func LoadStrategy(path string) (models.StrategyConfig, error) {
	cfg := models.DefaultStrategyConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading strategy file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%w: %s: %v", models.ErrInvalidStrategy, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDurationWithDefault accepts a Go duration ("1500ms") or whole seconds ("30")
func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
