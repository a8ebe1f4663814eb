// Package worker drives the poll loop: fetch each source, diff against
// the seen store, notify subscribers and persist the new ids.
package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ervin-khamoido/saga-telegram-bot/internal/metrics"
	"github.com/ervin-khamoido/saga-telegram-bot/internal/scraper"
	"github.com/ervin-khamoido/saga-telegram-bot/logger"
	"github.com/ervin-khamoido/saga-telegram-bot/services/notifier"
	"github.com/ervin-khamoido/saga-telegram-bot/services/publisher"
	"github.com/ervin-khamoido/saga-telegram-bot/services/store"
)

// Status is a snapshot of the worker state for the ops endpoint
type Status struct {
	LastPollAt        time.Time `json:"last_poll_at"`
	LastError         string    `json:"last_error,omitempty"`
	SeenListings      int       `json:"seen_listings"`
	Subscribers       int       `json:"subscribers"`
	NotificationsSent int64     `json:"notifications_sent"`
}

// Worker handles the polling and notification process
type Worker struct {
	sources     []scraper.ListingSource
	seen        *store.FileStore
	subscribers *store.FileStore
	notifier    notifier.Notifier
	publisher   publisher.Publisher
	interval    time.Duration
	log         *logger.Logger

	mu         sync.Mutex
	lastPollAt time.Time
	lastError  string
	sentTotal  int64
}

// NewWorker creates a new worker
func NewWorker(
	sources []scraper.ListingSource,
	seen *store.FileStore,
	subscribers *store.FileStore,
	n notifier.Notifier,
	pub publisher.Publisher,
	interval time.Duration,
) *Worker {
	return &Worker{
		sources:     sources,
		seen:        seen,
		subscribers: subscribers,
		notifier:    n,
		publisher:   pub,
		interval:    interval,
		log:         logger.ForComponent("worker"),
	}
}

// Run polls immediately, then on every tick until the context is
// canceled. There is no terminal state besides cancellation.
func (w *Worker) Run(ctx context.Context) {
	w.RunCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Poll loop stopped")
			return
		case <-ticker.C:
			w.RunCycle(ctx)
		}
	}
}

// RunCycle runs one poll cycle over all sources
func (w *Worker) RunCycle(ctx context.Context) {
	start := time.Now()

	for _, src := range w.sources {
		if ctx.Err() != nil {
			return
		}
		w.pollSource(ctx, src)
	}

	elapsed := time.Since(start)
	metrics.PollCyclesTotal.Inc()
	metrics.PollDuration.Observe(elapsed.Seconds())
	metrics.Subscribers.Set(float64(w.subscribers.Len()))

	w.mu.Lock()
	w.lastPollAt = time.Now()
	w.mu.Unlock()

	w.log.Debug().Dur("elapsed", elapsed).Msg("Poll cycle finished")
}

// pollSource fetches one source and notifies for its unseen listings.
// Fetch failures are logged and left for the next tick; there is no
// immediate retry.
func (w *Worker) pollSource(ctx context.Context, src scraper.ListingSource) {
	log := w.log.WithField("source", src.Name())

	listings, err := src.FetchListings()
	if err != nil {
		metrics.FetchErrorsTotal.WithLabelValues(src.Name()).Inc()
		log.Error().Err(err).Msg("Fetch failed, waiting for next interval")
		w.setLastError(err)
		return
	}
	metrics.ListingsScrapedTotal.WithLabelValues(src.Name()).Add(float64(len(listings)))

	log.Debug().Int("listings", len(listings)).Msg("Fetched search page")

	for _, listing := range listings {
		if ctx.Err() != nil {
			return
		}
		if w.seen.Contains(listing.ID) {
			continue
		}
		metrics.NewListingsTotal.WithLabelValues(src.Name()).Inc()

		w.notify(ctx, src, listing)

		// Persist right after the notification attempt so the id is
		// sent at most once per lifetime of the seen file, even when
		// some deliveries failed.
		if err := w.seen.Append(listing.ID); err != nil {
			log.Error().Err(err).Str("id", listing.ID).Msg("Failed to persist seen id")
			w.setLastError(err)
		}
	}
}

// notify enriches one new listing from its detail page, broadcasts it to
// all subscribers and fans it out to the publisher
func (w *Worker) notify(ctx context.Context, src scraper.ListingSource, listing scraper.Listing) {
	log := w.log.WithField("source", src.Name())

	details, err := src.FetchDetails(listing.URL)
	if err != nil {
		// Fall back to the search-page data
		log.Warn().Err(err).Str("id", listing.ID).Msg("Detail fetch failed")
		details = nil
	}

	text := notifier.BuildMessage(listing, details)
	sent := w.notifier.Broadcast(ctx, w.subscribers.All(), text)

	w.mu.Lock()
	w.sentTotal += int64(sent)
	w.mu.Unlock()

	log.Info().
		Str("id", listing.ID).
		Int("delivered", sent).
		Msg("Notified new listing")

	data, err := json.Marshal(listing)
	if err != nil {
		log.Error().Err(err).Str("id", listing.ID).Msg("Failed to encode listing")
		return
	}
	if err := w.publisher.Publish(src.Name(), data); err != nil {
		log.Error().Err(err).Str("id", listing.ID).Msg("Failed to publish listing")
		w.setLastError(err)
	}
}

// Status returns a snapshot of the worker state
func (w *Worker) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Status{
		LastPollAt:        w.lastPollAt,
		LastError:         w.lastError,
		SeenListings:      w.seen.Len(),
		Subscribers:       w.subscribers.Len(),
		NotificationsSent: w.sentTotal,
	}
}

func (w *Worker) setLastError(err error) {
	w.mu.Lock()
	w.lastError = err.Error()
	w.mu.Unlock()
}
