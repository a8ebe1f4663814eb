package config

import (
	"os"
	"strconv"
	"time"

	"github.com/ervin-khamoido/saga-telegram-bot/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Telegram configuration
	TelegramToken       string
	NotifyRatePerSecond float64

	// Listing sources
	SagaURL     string
	SourcesFile string

	// Poll loop
	CheckInterval time.Duration

	// Flat-file stores
	SeenFile        string
	SubscribersFile string
	SeenMaxAge      time.Duration

	// Optional memcache backend for the fetch block-guard
	MemcacheAddr string

	// Optional Redis stream fan-out
	RedisAddr         string
	RedisDB           int
	RedisStream       string
	RedisStreamMaxLen int64

	// Ops endpoint
	HTTPAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	checkInterval, _ := strconv.Atoi(getEnv("CHECK_INTERVAL", "60"))
	seenMaxAgeDays, _ := strconv.Atoi(getEnv("SEEN_MAX_AGE_DAYS", "7"))
	notifyRate, _ := strconv.ParseFloat(getEnv("NOTIFY_RATE_PER_SECOND", "25"), 64)
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisMaxLen, _ := strconv.ParseInt(getEnv("REDIS_STREAM_MAXLEN", "1000"), 10, 64)

	return &Config{
		TelegramToken:       os.Getenv("TELEGRAM_TOKEN"),
		NotifyRatePerSecond: notifyRate,
		SagaURL:             getEnv("SAGA_URL", "https://www.saga.hamburg/immobiliensuche?type=wohnungen"),
		SourcesFile:         os.Getenv("SOURCES_FILE"),
		CheckInterval:       time.Duration(checkInterval) * time.Second,
		SeenFile:            getEnv("SEEN_FILE", "known_offers.txt"),
		SubscribersFile:     getEnv("SUBSCRIBERS_FILE", "subscribers.txt"),
		SeenMaxAge:          time.Duration(seenMaxAgeDays) * 24 * time.Hour,
		MemcacheAddr:        os.Getenv("MEMCACHE_ADDR"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisDB:             redisDB,
		RedisStream:         getEnv("REDIS_STREAM", "listings"),
		RedisStreamMaxLen:   redisMaxLen,
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		Environment:         getEnv("ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration the bot cannot run without is
// present
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return errors.NewConfiguration("TELEGRAM_TOKEN is required", nil)
	}
	if c.SagaURL == "" && c.SourcesFile == "" {
		return errors.NewConfiguration("SAGA_URL or SOURCES_FILE is required", nil)
	}
	if c.CheckInterval <= 0 {
		return errors.NewConfiguration("CHECK_INTERVAL must be positive", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
