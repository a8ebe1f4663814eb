// Package command handles inbound Telegram commands, currently the
// /start subscribe command.
package command

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ervin-khamoido/saga-telegram-bot/internal/metrics"
	"github.com/ervin-khamoido/saga-telegram-bot/logger"
	"github.com/ervin-khamoido/saga-telegram-bot/services/store"
)

const subscribedReply = "Du bist angemeldet! Neue SAGA-Wohnungsangebote landen ab jetzt hier."

// BotClient is the slice of the Telegram API the handler needs.
// *tgbotapi.BotAPI satisfies it.
type BotClient interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	StopReceivingUpdates()
}

// Handler consumes Telegram updates and registers subscribers
type Handler struct {
	bot         BotClient
	subscribers *store.FileStore
	log         *logger.Logger
}

// NewHandler creates a command handler backed by the subscriber store
func NewHandler(bot BotClient, subscribers *store.FileStore) *Handler {
	return &Handler{
		bot:         bot,
		subscribers: subscribers,
		log:         logger.ForComponent("command"),
	}
}

// Run consumes updates until the context is canceled
func (h *Handler) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			h.log.Info().Msg("Command handler stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.handleUpdate(update)
		}
	}
}

// handleUpdate processes a single update. Only the /start command is
// recognized; everything else is ignored.
func (h *Handler) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	if update.Message.Command() != "start" {
		return
	}

	chatID := strconv.FormatInt(update.Message.Chat.ID, 10)

	// Append is a no-op for known ids, so /start stays idempotent
	alreadySubscribed := h.subscribers.Contains(chatID)
	if !alreadySubscribed {
		if err := h.subscribers.Append(chatID); err != nil {
			h.log.Error().Err(err).Str("chat_id", chatID).Msg("Failed to store subscriber")
			return
		}
		metrics.Subscribers.Set(float64(h.subscribers.Len()))
		h.log.Info().Str("chat_id", chatID).Msg("New subscriber")
	}

	reply := tgbotapi.NewMessage(update.Message.Chat.ID, subscribedReply)
	if _, err := h.bot.Send(reply); err != nil {
		h.log.Warn().Err(err).Str("chat_id", chatID).Msg("Failed to send confirmation")
	}
}
