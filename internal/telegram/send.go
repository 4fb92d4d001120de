package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/Telebots-07/Pk-s-bot/internal/logger"
)

// rateLimitedSend waits on the global limiter and the per-chat limiter
// before handing the request to the API, keeping the bot under Telegram's
// delivery ceilings.
func (b *Bot) rateLimitedSend(chatID int64, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	ctx := context.Background()

	if err := b.globalLimiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}
	if err := b.userLimiter(chatID).Wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}

	return b.api.Send(c)
}

func (b *Bot) userLimiter(chatID int64) *rate.Limiter {
	b.userLimitersMu.RLock()
	limiter, ok := b.userLimiters[chatID]
	b.userLimitersMu.RUnlock()
	if ok {
		return limiter
	}

	b.userLimitersMu.Lock()
	defer b.userLimitersMu.Unlock()
	if limiter, ok = b.userLimiters[chatID]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(1), 3) // 1 msg/sec with small bursts
	b.userLimiters[chatID] = limiter
	return limiter
}

// sendText delivers a plain text reply, logging delivery failures.
func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.rateLimitedSend(chatID, tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Error("Failed to send message", logger.Fields{
			"chat_id": chatID,
			"error":   err.Error(),
		})
	}
}

// sendWithMarkup delivers a text reply with an inline keyboard.
func (b *Bot) sendWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	if _, err := b.rateLimitedSend(chatID, msg); err != nil {
		logger.Error("Failed to send message with markup", logger.Fields{
			"chat_id": chatID,
			"error":   err.Error(),
		})
	}
}

// answerCallback acknowledges a button press with an optional toast.
func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		logger.Warn("Failed to answer callback", logger.Fields{
			"callback_id": callbackID,
			"error":       err.Error(),
		})
	}
}

// relayStored forwards a stored channel message to a chat. Forwarding keeps
// the file on Telegram's side; nothing is re-uploaded.
func (b *Bot) relayStored(toChatID, fromChatID int64, messageID int) error {
	_, err := b.rateLimitedSend(toChatID, tgbotapi.NewForward(toChatID, fromChatID, messageID))
	return err
}

// logToChannel mirrors a line into the operational log channel when one is
// configured. Never fails the caller.
func (b *Bot) logToChannel(text string) {
	if b.cfg == nil || !b.cfg.HasLogChannel() {
		return
	}
	msg := tgbotapi.NewMessage(b.cfg.LogChannelID, text)
	msg.DisableNotification = true
	if _, err := b.api.Send(msg); err != nil {
		logger.Warn("Failed to relay to log channel", logger.Fields{
			"error": err.Error(),
		})
	}
}
