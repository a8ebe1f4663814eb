package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/ervin-khamoido/saga-telegram-bot/config"
	"github.com/ervin-khamoido/saga-telegram-bot/internal/command"
	"github.com/ervin-khamoido/saga-telegram-bot/internal/httpserv"
	"github.com/ervin-khamoido/saga-telegram-bot/internal/scraper"
	"github.com/ervin-khamoido/saga-telegram-bot/logger"
	"github.com/ervin-khamoido/saga-telegram-bot/services/cache"
	"github.com/ervin-khamoido/saga-telegram-bot/services/notifier"
	"github.com/ervin-khamoido/saga-telegram-bot/services/publisher"
	"github.com/ervin-khamoido/saga-telegram-bot/services/store"
	"github.com/ervin-khamoido/saga-telegram-bot/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("check_interval", cfg.CheckInterval).
		Msg("Starting SAGA listing bot")

	// A stale seen file would suppress re-listed offers
	if removed, err := store.ClearIfOlderThan(cfg.SeenFile, cfg.SeenMaxAge); err != nil {
		log.Warn().Err(err).Msg("Failed to check seen file age")
	} else if removed {
		log.Info().Str("file", cfg.SeenFile).Msg("Seen file too old, cleared")
	}

	seen, err := store.NewFileStore(cfg.SeenFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open seen store")
	}
	subscribers, err := store.NewFileStore(cfg.SubscribersFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open subscriber store")
	}
	log.Info().
		Int("seen", seen.Len()).
		Int("subscribers", subscribers.Len()).
		Msg("Loaded stores")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Cache backend for the fetch block-guard
	var cacheSvc cache.CacheService
	if cfg.MemcacheAddr != "" {
		cacheSvc = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	} else {
		cacheSvc = cache.NewMemoryService()
	}

	// Optional Redis stream fan-out
	var pub publisher.Publisher = publisher.Noop{}
	if cfg.RedisAddr != "" {
		pub = publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLen)
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}
	defer pub.Close()

	// Create scrapers for the configured sources
	scrapers, err := createScrapers(cfg, cacheSvc)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scrapers")
	}
	log.Info().Int("source_count", len(scrapers)).Msg("Created scrapers")

	// Connect to Telegram
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}
	log.Info().Str("bot", bot.Self.UserName).Msg("Authorized on Telegram")

	n := notifier.NewTelegramNotifier(bot, cfg.NotifyRatePerSecond)

	// Create the worker and the command handler
	w := worker.NewWorker(scrapers, seen, subscribers, n, pub, cfg.CheckInterval)
	h := command.NewHandler(bot, subscribers)

	srv := httpserv.New(cfg.HTTPAddr, w)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		log.Info().Msg("Starting poll loop")
		w.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		log.Info().Msg("Starting command handler")
		h.Run(ctx)
	}()
	go srv.Start()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	wg.Wait()
	log.Info().Msg("Shut down gracefully")
}

// createScrapers builds one scraper per configured source, either from
// the YAML sources file or the built-in SAGA source
func createScrapers(cfg *config.Config, cacheSvc cache.CacheService) ([]scraper.ListingSource, error) {
	var sources []scraper.Source
	if cfg.SourcesFile != "" {
		loaded, err := scraper.LoadSources(cfg.SourcesFile)
		if err != nil {
			return nil, err
		}
		sources = loaded
	} else {
		sources = []scraper.Source{scraper.DefaultSource(cfg.SagaURL)}
	}

	scrapers := make([]scraper.ListingSource, 0, len(sources))
	for _, src := range sources {
		s, err := scraper.New(src, cacheSvc)
		if err != nil {
			return nil, err
		}
		scrapers = append(scrapers, s)
	}
	return scrapers, nil
}
