package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Telebots-07/Pk-s-bot/internal/clone"
	"github.com/Telebots-07/Pk-s-bot/internal/consts"
	"github.com/Telebots-07/Pk-s-bot/internal/logger"
	"github.com/Telebots-07/Pk-s-bot/internal/session"
	"github.com/Telebots-07/Pk-s-bot/internal/store"
)

// handleCloneCallback drives the two-step clone menu (visibility, then
// usage) before the token is requested. Clone management lives on the main
// bot only.
func (b *Bot) handleCloneCallback(callback *tgbotapi.CallbackQuery, action string) error {
	chatID := callback.Message.Chat.ID
	userID := callback.From.ID

	if !b.scope.Main || b.orchestrator == nil {
		b.answerCallback(callback.ID, consts.MsgMainBotOnly)
		return nil
	}

	switch action {
	case "new":
		if !b.isAdmin(userID) {
			b.answerCallback(callback.ID, consts.MsgAdminsOnly)
			return nil
		}
		b.sessions.Begin(userID, session.AwaitingCloneVisibility)
		b.answerCallback(callback.ID, "")
		b.sendWithMarkup(chatID, "🤖 Should the new bot be public or private?",
			tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(consts.ButtonVisibilityPublic, "clone_vis_public"),
				tgbotapi.NewInlineKeyboardButtonData(consts.ButtonVisibilityPrivate, "clone_vis_private"),
			), tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(consts.ButtonCancel, "clone_cancel"),
			)))
		return nil

	case "vis_public", "vis_private":
		st := b.sessions.Current(userID)
		if st.Awaiting != session.AwaitingCloneVisibility {
			b.answerCallback(callback.ID, "⚠️ Start over with Create Clone Bot!")
			return nil
		}
		visibility := store.VisibilityPublic
		if action == "vis_private" {
			visibility = store.VisibilityPrivate
		}
		st.Payload["visibility"] = visibility
		b.sessions.Advance(userID, session.AwaitingCloneUsage)

		b.answerCallback(callback.ID, "")
		b.sendWithMarkup(chatID, "🧰 What is the new bot for?",
			tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(consts.ButtonUsageGeneral, "clone_use_general"),
				tgbotapi.NewInlineKeyboardButtonData(consts.ButtonUsageFileStore, "clone_use_filestore"),
			), tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(consts.ButtonCancel, "clone_cancel"),
			)))
		return nil

	case "use_general", "use_filestore":
		st := b.sessions.Current(userID)
		if st.Awaiting != session.AwaitingCloneUsage {
			b.answerCallback(callback.ID, "⚠️ Start over with Create Clone Bot!")
			return nil
		}
		usage := store.UsageGeneral
		if action == "use_filestore" {
			usage = store.UsageFileStore
		}
		st.Payload["usage"] = usage
		b.sessions.Advance(userID, session.AwaitingCloneToken)

		b.answerCallback(callback.ID, "")
		b.sendWithMarkup(chatID, consts.MsgCloneAskToken,
			tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(consts.ButtonCancel, "clone_cancel"),
			)))
		return nil

	case "cancel":
		b.sessions.Clear(userID)
		b.answerCallback(callback.ID, "✅ Clone creation cancelled!")
		return nil

	case "list":
		if !b.isAdmin(userID) {
			b.answerCallback(callback.ID, consts.MsgAdminsOnly)
			return nil
		}
		b.answerCallback(callback.ID, "")
		return b.listClones(chatID)
	}

	b.answerCallback(callback.ID, "")
	return nil
}

func (b *Bot) listClones(chatID int64) error {
	clones := b.orchestrator.Clones(context.Background())
	if len(clones) == 0 {
		b.sendText(chatID, "⚠️ No cloned bots found! Create one first! 😅")
		return nil
	}

	var sb strings.Builder
	sb.WriteString("🤖 Cloned Bots:\n\n")
	for _, c := range clones {
		tail := c.Token
		if len(tail) > 4 {
			tail = tail[len(tail)-4:]
		}
		fmt.Fprintf(&sb, "🔑 @%s — %s/%s, token ending %s\n", c.Username, c.Visibility, c.Usage, tail)
	}
	b.sendText(chatID, sb.String())
	return nil
}

// handleCloneToken runs the admin-supplied token through the orchestrator
// and reports the failure class in plain words.
func (b *Bot) handleCloneToken(message *tgbotapi.Message, st *session.State) error {
	userID := message.From.ID
	token := strings.TrimSpace(message.Text)

	visibility := st.Payload["visibility"]
	usage := st.Payload["usage"]
	b.sessions.Clear(userID)

	_, err := b.orchestrator.Register(context.Background(), token, visibility, usage, userID)
	switch {
	case err == nil:
		b.sendText(message.Chat.ID, consts.MsgCloneStarted)
	case errors.Is(err, clone.ErrBadFormat):
		b.sendText(message.Chat.ID, consts.MsgCloneBadFormat)
	case errors.Is(err, clone.ErrUnauthorized):
		b.sendText(message.Chat.ID, consts.MsgCloneBadToken)
	case errors.Is(err, clone.ErrNetwork):
		b.sendText(message.Chat.ID, consts.MsgCloneNetFailure)
	case errors.Is(err, store.ErrDuplicateToken):
		b.sendText(message.Chat.ID, consts.MsgCloneDuplicate)
	default:
		logger.Error("Clone registration failed", logger.Fields{
			"error": err.Error(),
		})
		b.sendText(message.Chat.ID, consts.MsgCloneStartFailure)
	}
	return nil
}
