package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/Telebots-07/Pk-s-bot/internal/consts"
	"github.com/Telebots-07/Pk-s-bot/internal/logger"
	"github.com/Telebots-07/Pk-s-bot/internal/session"
	"github.com/Telebots-07/Pk-s-bot/internal/store"
)

// handleBatchCommand enters batch-building mode from the /batch command.
func (b *Bot) handleBatchCommand(message *tgbotapi.Message) error {
	if !b.isAdmin(message.From.ID) {
		b.sendText(message.Chat.ID, consts.MsgAdminsOnly)
		return nil
	}
	b.askBatchName(message.Chat.ID, message.From.ID)
	return nil
}

func (b *Bot) handleBatchNew(callback *tgbotapi.CallbackQuery) error {
	if !b.isAdmin(callback.From.ID) {
		b.answerCallback(callback.ID, consts.MsgAdminsOnly)
		return nil
	}
	b.answerCallback(callback.ID, "")
	b.askBatchName(callback.Message.Chat.ID, callback.From.ID)
	return nil
}

func (b *Bot) askBatchName(chatID, userID int64) {
	b.sessions.Begin(userID, session.AwaitingBatchName)
	b.sendWithMarkup(chatID,
		"📦 Send a name for the new batch! (e.g., 'Movie Collection') 📋",
		tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(consts.ButtonCancel, "batch_cancel"),
		)))
}

// handleBatchName creates the batch and flips the admin into file-collecting
// mode; every upload from here until Done joins the batch.
func (b *Bot) handleBatchName(message *tgbotapi.Message) error {
	name := message.Text
	batch := store.Batch{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   message.From.ID,
		CreatedAt: time.Now().UTC(),
	}

	if !b.meta.SaveBatch(context.Background(), batch) {
		b.sessions.Clear(message.From.ID)
		b.sendText(message.Chat.ID, "⚠️ Failed to create batch! Try again! 😅")
		return nil
	}

	b.sessions.BeginWithPayload(message.From.ID, session.AwaitingBatchFiles,
		map[string]string{"batch_id": batch.ID})

	b.sendWithMarkup(message.Chat.ID,
		fmt.Sprintf("✅ Batch '%s' created! 🎉\nNow upload files — each one joins the batch. Tap Done when finished! 📤", name),
		tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(consts.ButtonDone, "batch_done"),
			tgbotapi.NewInlineKeyboardButtonData(consts.ButtonCancel, "batch_cancel"),
		)))

	logger.Info("Batch created", logger.Fields{
		"batch_id": batch.ID,
		"owner_id": batch.OwnerID,
	})
	return nil
}

// handleBatchDone finalizes the batch; its file list stops growing and the
// shareable link is handed out.
func (b *Bot) handleBatchDone(callback *tgbotapi.CallbackQuery) error {
	ctx := context.Background()
	userID := callback.From.ID

	st := b.sessions.Current(userID)
	batchID := st.Payload["batch_id"]
	if st.Awaiting != session.AwaitingBatchFiles || batchID == "" {
		b.answerCallback(callback.ID, "⚠️ No batch in progress!")
		return nil
	}

	batch, ok := b.meta.FindBatch(ctx, batchID)
	if !ok {
		b.sessions.Clear(userID)
		b.answerCallback(callback.ID, consts.MsgBatchNotFound)
		return nil
	}
	if len(batch.FileIDs) == 0 {
		b.answerCallback(callback.ID, "⚠️ Upload at least one file first!")
		return nil
	}

	if !b.meta.FinalizeBatch(ctx, batchID) {
		b.answerCallback(callback.ID, "⚠️ Failed to finalize batch!")
		return nil
	}
	b.sessions.Clear(userID)

	b.answerCallback(callback.ID, "")
	b.sendText(callback.Message.Chat.ID, fmt.Sprintf(
		"✅ Batch '%s' sealed with %d file(s)! 📦\n🔗 %s",
		batch.Name, len(batch.FileIDs), b.deepLink(consts.LinkPrefixBatch, batch.ID)))
	return nil
}

func (b *Bot) handleBatchCancel(callback *tgbotapi.CallbackQuery) error {
	st := b.sessions.Current(callback.From.ID)
	if st.Awaiting != session.AwaitingBatchName && st.Awaiting != session.AwaitingBatchFiles {
		b.answerCallback(callback.ID, "⚠️ No batch action to cancel!")
		return nil
	}

	b.sessions.Clear(callback.From.ID)
	b.answerCallback(callback.ID, "✅ Batch action cancelled!")
	return nil
}
