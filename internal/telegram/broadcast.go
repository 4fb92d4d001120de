package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/Telebots-07/Pk-s-bot/internal/logger"
	"github.com/Telebots-07/Pk-s-bot/internal/metrics"
)

// broadcast delivers text to every known user, paced well under Telegram's
// bulk-messaging ceiling. Per-user failures (blocked bot, deleted account)
// are logged and skipped; the admin gets a delivery summary at the end.
func (b *Bot) broadcast(text string, reportTo int64) {
	users := b.meta.KnownUsers(context.Background())
	if len(users) == 0 {
		b.sendText(reportTo, "⚠️ Nobody to broadcast to yet! 😅")
		return
	}

	limiter := rate.NewLimiter(rate.Limit(20), 1)
	sent, failed := 0, 0

	for _, uid := range users {
		if err := limiter.Wait(context.Background()); err != nil {
			break
		}
		if _, err := b.api.Send(tgbotapi.NewMessage(uid, text)); err != nil {
			failed++
			logger.Warn("Broadcast delivery failed, skipping user", logger.Fields{
				"user_id": uid,
				"error":   err.Error(),
			})
			continue
		}
		sent++
		metrics.BroadcastsSent.Inc()
	}

	b.sendText(reportTo, fmt.Sprintf("📢 Broadcast done: %d delivered, %d failed.", sent, failed))
	logger.Info("Broadcast finished", logger.Fields{
		"sent":   sent,
		"failed": failed,
	})
}
