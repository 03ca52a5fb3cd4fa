package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/MarketRegime/internal/api/twelvedata"
	"github.com/Alias1177/MarketRegime/internal/regime"
	"github.com/Alias1177/MarketRegime/models"
)

// Config holds all application configuration
type Config struct {
	TwelveAPIKey   string   `env:"TWELVE_API_KEY" envDefault:"-"`
	Tickers        []string `env:"TICKERS" envDefault:"SPY,QQQ,IWM,MDY,IBB,XBI,VIX"`
	HistoryBars    int      `env:"HISTORY_BARS" envDefault:"286"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout int      `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	RequestsPerSec int      `env:"REQUESTS_PER_SEC" envDefault:"5"`
	RegimeConfig   string   `env:"REGIME_CONFIG" envDefault:""`   // thresholds YAML
	PutCallRatio   float64  `env:"PUT_CALL_RATIO" envDefault:"0"` // 0 = unavailable
	WatchSchedule  string   `env:"WATCH_SCHEDULE" envDefault:"0 22 * * 1-5"`
	MetricsAddr    string   `env:"METRICS_ADDR" envDefault:""`

	Database DatabaseConfig
	Telegram TelegramConfig
}

// DatabaseConfig holds PostgreSQL settings. An empty host disables
// persistence.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// TelegramConfig holds alert settings. Alerts are off without a token.
type TelegramConfig struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}

// Enabled reports whether alerts can be sent
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != 0
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	// Load values from environment variables
	cfg.TwelveAPIKey = os.Getenv("TWELVE_API_KEY")
	cfg.Tickers = getEnvListWithDefault("TICKERS", models.DefaultTickers)
	cfg.HistoryBars = getEnvIntWithDefault("HISTORY_BARS", twelvedata.HistoryBars(regime.DefaultThresholds().DrawdownWindow))
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.RegimeConfig = os.Getenv("REGIME_CONFIG")
	cfg.PutCallRatio = getEnvFloatWithDefault("PUT_CALL_RATIO", 0)
	cfg.WatchSchedule = getEnvWithDefault("WATCH_SCHEDULE", "0 22 * * 1-5")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	cfg.Database = DatabaseConfig{
		Host:     os.Getenv("DB_HOST"),
		Port:     getEnvWithDefault("DB_PORT", "5432"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
		SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
	}

	cfg.Telegram = TelegramConfig{
		BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		ChatID:   getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0),
	}

	return &cfg, nil
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

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
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

func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.ToUpper(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}
