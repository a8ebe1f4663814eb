package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"TELEGRAM_TOKEN", "SAGA_URL", "CHECK_INTERVAL", "SEEN_FILE",
		"SUBSCRIBERS_FILE", "SEEN_MAX_AGE_DAYS", "REDIS_ADDR", "REDIS_STREAM",
		"MEMCACHE_ADDR", "HTTP_ADDR", "NOTIFY_RATE_PER_SECOND",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, 60*time.Second, cfg.CheckInterval)
	assert.Equal(t, "known_offers.txt", cfg.SeenFile)
	assert.Equal(t, "subscribers.txt", cfg.SubscribersFile)
	assert.Equal(t, 7*24*time.Hour, cfg.SeenMaxAge)
	assert.Equal(t, "listings", cfg.RedisStream)
	assert.Equal(t, int64(1000), cfg.RedisStreamMaxLen)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, float64(25), cfg.NotifyRatePerSecond)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.MemcacheAddr)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("SAGA_URL", "https://example.com/search")
	t.Setenv("CHECK_INTERVAL", "30")
	t.Setenv("SEEN_FILE", "/var/lib/bot/seen.txt")
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("NOTIFY_RATE_PER_SECOND", "10")

	cfg := LoadConfig()

	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, "https://example.com/search", cfg.SagaURL)
	assert.Equal(t, 30*time.Second, cfg.CheckInterval)
	assert.Equal(t, "/var/lib/bot/seen.txt", cfg.SeenFile)
	assert.Equal(t, "redis.example.com:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, float64(10), cfg.NotifyRatePerSecond)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		TelegramToken: "123:abc",
		SagaURL:       "https://example.com",
		CheckInterval: time.Minute,
	}
	assert.NoError(t, cfg.Validate())

	missing := *cfg
	missing.TelegramToken = ""
	assert.Error(t, missing.Validate())

	noURL := *cfg
	noURL.SagaURL = ""
	assert.Error(t, noURL.Validate())

	noURL.SourcesFile = "sources.yaml"
	assert.NoError(t, noURL.Validate())

	badInterval := *cfg
	badInterval.CheckInterval = 0
	assert.Error(t, badInterval.Validate())
}
