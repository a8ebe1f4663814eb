// Package notifier delivers new-listing messages to subscribed Telegram
// chats.
package notifier

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/ervin-khamoido/saga-telegram-bot/internal/metrics"
	"github.com/ervin-khamoido/saga-telegram-bot/logger"
	"github.com/ervin-khamoido/saga-telegram-bot/pkg/errors"
)

// Telegram caps bot broadcasts at roughly 30 messages per second
const defaultRatePerSecond = 25

// Sender sends a prepared Telegram message. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier represents a service that delivers a message to recipients
type Notifier interface {
	// Broadcast sends text to every recipient chat id and returns the
	// number of successful deliveries. A failed delivery to one
	// recipient does not block the others.
	Broadcast(ctx context.Context, recipients []string, text string) int
}

// TelegramNotifier implements Notifier using the Telegram bot API
type TelegramNotifier struct {
	sender  Sender
	limiter *rate.Limiter
	log     *logger.Logger
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier creates a notifier that rate-limits outbound sends
func NewTelegramNotifier(sender Sender, ratePerSecond float64) *TelegramNotifier {
	if ratePerSecond <= 0 {
		ratePerSecond = defaultRatePerSecond
	}
	return &TelegramNotifier{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		log:     logger.ForComponent("notifier"),
	}
}

// Broadcast sends text to every recipient. Delivery failures are logged
// per recipient and not retried.
func (n *TelegramNotifier) Broadcast(ctx context.Context, recipients []string, text string) int {
	sent := 0
	for _, recipient := range recipients {
		chatID, err := strconv.ParseInt(recipient, 10, 64)
		if err != nil {
			n.log.Warn().Str("chat_id", recipient).Msg("Skipping malformed chat id")
			continue
		}

		if err := n.limiter.Wait(ctx); err != nil {
			// context canceled; stop the broadcast
			return sent
		}

		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true

		if _, err := n.sender.Send(msg); err != nil {
			metrics.NotificationFailuresTotal.Inc()
			deliveryErr := errors.NewDelivery(recipient, "failed to send message", err)
			n.log.Error().Err(deliveryErr).Str("chat_id", recipient).Msg("Delivery failed")
			continue
		}

		metrics.NotificationsSentTotal.Inc()
		sent++
	}
	return sent
}
