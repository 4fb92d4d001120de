package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Telebots-07/Pk-s-bot/internal/consts"
	"github.com/Telebots-07/Pk-s-bot/internal/logger"
	"github.com/Telebots-07/Pk-s-bot/internal/metrics"
)

// handleCallback routes inline button presses by data prefix.
func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) error {
	if callback.Message == nil {
		b.answerCallback(callback.ID, "")
		return nil
	}
	chatID := callback.Message.Chat.ID

	if !b.allowInteraction(callback.From.ID, chatID) {
		b.answerCallback(callback.ID, consts.MsgPrivateClone)
		return nil
	}

	data := callback.Data
	switch {
	case strings.HasPrefix(data, "get_"):
		return b.handleRetrieveCallback(callback, strings.TrimPrefix(data, "get_"))
	case strings.HasPrefix(data, "del_"):
		return b.handleDeleteCallback(callback, strings.TrimPrefix(data, "del_"))
	case strings.HasPrefix(data, "link_"):
		return b.handleLinkCallback(callback, strings.TrimPrefix(data, "link_"))
	case strings.HasPrefix(data, "retry_"):
		return b.handleRetryCallback(callback, strings.TrimPrefix(data, "retry_"))

	case strings.HasPrefix(data, "req_approve_"):
		return b.handleRequestResolution(callback, strings.TrimPrefix(data, "req_approve_"), true)
	case strings.HasPrefix(data, "req_deny_"):
		return b.handleRequestResolution(callback, strings.TrimPrefix(data, "req_deny_"), false)

	case data == "batch_new":
		return b.handleBatchNew(callback)
	case data == "batch_done":
		return b.handleBatchDone(callback)
	case data == "batch_cancel":
		return b.handleBatchCancel(callback)

	case strings.HasPrefix(data, "clone_"):
		return b.handleCloneCallback(callback, strings.TrimPrefix(data, "clone_"))

	case data == "menu_settings":
		b.answerCallback(callback.ID, "")
		return b.showSettingsMenu(chatID, callback.From.ID)
	case data == "menu_search":
		b.answerCallback(callback.ID, "")
		b.sendText(chatID, "🔍 Use /search <term> to find stored files!")
		return nil
	case data == "menu_tutorial":
		b.answerCallback(callback.ID, "")
		b.sendText(chatID, "📖 Send me any file and I'll store it and hand you a shareable link. Links look like https://t.me/"+b.scope.BotName+"?start=file_<id>")
		return nil
	case data == "menu_broadcast":
		b.answerCallback(callback.ID, "")
		b.sendText(chatID, "📢 Use /broadcast <message> to reach everyone.")
		return nil

	case strings.HasPrefix(data, "set_"), strings.HasPrefix(data, "chan_"):
		return b.handleSettingsCallback(callback)
	}

	logger.Debug("Unhandled callback", logger.Fields{"data": data})
	b.answerCallback(callback.ID, "")
	return nil
}

func (b *Bot) handleRetrieveCallback(callback *tgbotapi.CallbackQuery, fileID string) error {
	chatID := callback.Message.Chat.ID

	rec, ok := b.meta.FindFileByID(context.Background(), fileID)
	if !ok {
		b.answerCallback(callback.ID, consts.MsgNotFound)
		return nil
	}

	if err := b.relayStored(chatID, rec.ChatID, rec.MessageID); err != nil {
		logger.Error("Failed to relay file from callback", logger.Fields{
			"file_id": fileID,
			"error":   err.Error(),
		})
		b.answerCallback(callback.ID, consts.MsgNotFound)
		return nil
	}

	metrics.FilesRelayed.Inc()
	b.answerCallback(callback.ID, "📦 Sent!")
	return nil
}

// handleDeleteCallback removes the record; deleting the backing channel
// message is best-effort and its failure is reported but not blocking.
func (b *Bot) handleDeleteCallback(callback *tgbotapi.CallbackQuery, fileID string) error {
	ctx := context.Background()

	rec, found := b.meta.FindFileByID(ctx, fileID)
	if !found {
		b.answerCallback(callback.ID, consts.MsgNotFound)
		return nil
	}

	if !b.isAdmin(callback.From.ID) && rec.UploaderID != callback.From.ID {
		b.answerCallback(callback.ID, consts.MsgAdminsOnly)
		return nil
	}

	if _, ok := b.meta.DeleteFile(ctx, fileID); !ok {
		b.answerCallback(callback.ID, "⚠️ Failed to delete record.")
		return nil
	}

	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(rec.ChatID, rec.MessageID)); err != nil {
		logger.Warn("Record removed but backing message survived", logger.Fields{
			"file_id":    fileID,
			"chat_id":    rec.ChatID,
			"message_id": rec.MessageID,
			"error":      err.Error(),
		})
		b.answerCallback(callback.ID, "🗑 Record removed; stored copy could not be deleted.")
		return nil
	}

	b.answerCallback(callback.ID, "🗑 Deleted!")
	return nil
}

func (b *Bot) handleLinkCallback(callback *tgbotapi.CallbackQuery, fileID string) error {
	rec, ok := b.meta.FindFileByID(context.Background(), fileID)
	if !ok {
		b.answerCallback(callback.ID, consts.MsgNotFound)
		return nil
	}

	link := b.fileLink(context.Background(), callback.From.ID, rec.ID)
	b.answerCallback(callback.ID, "")
	b.sendText(callback.Message.Chat.ID, fmt.Sprintf("✅ Shareable link for '%s':\n%s 🔗", rec.FileName, link))
	return nil
}

// handleRetryCallback re-runs a suggested alternate query.
func (b *Bot) handleRetryCallback(callback *tgbotapi.CallbackQuery, query string) error {
	chatID := callback.Message.Chat.ID

	matches := b.meta.FindFilesBySubstring(context.Background(), query)
	if len(matches) == 0 {
		b.answerCallback(callback.ID, "Still nothing. 😅")
		return nil
	}

	b.answerCallback(callback.ID, "")
	b.sendWithMarkup(chatID,
		fmt.Sprintf("🔍 Found %d file(s) for %q:", len(matches), query),
		tgbotapi.NewInlineKeyboardMarkup(matchRows(matches)...))
	return nil
}
