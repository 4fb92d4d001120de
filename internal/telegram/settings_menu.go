package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Telebots-07/Pk-s-bot/internal/consts"
	"github.com/Telebots-07/Pk-s-bot/internal/logger"
	"github.com/Telebots-07/Pk-s-bot/internal/session"
	"github.com/Telebots-07/Pk-s-bot/internal/store"
)

// showSettingsMenu renders the admin settings menu.
func (b *Bot) showSettingsMenu(chatID, userID int64) error {
	if !b.isAdmin(userID) {
		b.sendText(chatID, consts.MsgAdminsOnly)
		logger.Warn("Unauthorized settings access", logger.Fields{
			"user_id": userID,
		})
		return nil
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add Channel", "chan_add"),
			tgbotapi.NewInlineKeyboardButtonData("➖ Remove Channel", "chan_remove"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Welcome Message", "set_welcome"),
			tgbotapi.NewInlineKeyboardButtonData("👥 Group Link", "set_grouplink"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Custom Caption", "set_caption"),
			tgbotapi.NewInlineKeyboardButtonData("🔘 Custom Buttons", "set_buttons"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔗 Shortener", "set_shortener"),
		),
	)
	b.sendWithMarkup(chatID, "⚙️ Settings Menu:", markup)
	return nil
}

// handleSettingsCallback flips the admin into the matching awaiting-input
// state; the actual value arrives as the next private message.
func (b *Bot) handleSettingsCallback(callback *tgbotapi.CallbackQuery) error {
	chatID := callback.Message.Chat.ID
	userID := callback.From.ID

	if !b.isAdmin(userID) {
		b.answerCallback(callback.ID, consts.MsgAdminsOnly)
		return nil
	}

	prompts := map[string]struct {
		state  session.Awaiting
		prompt string
	}{
		"chan_add":      {session.AwaitingChannelAdd, "➕ Send the channel id to add as a storage destination (e.g., -1001234567890)"},
		"chan_remove":   {session.AwaitingChannelRemove, "➖ Send the channel id to remove"},
		"set_welcome":   {session.AwaitingWelcome, "💬 Send the new welcome message"},
		"set_grouplink": {session.AwaitingGroupLink, "👥 Send the new request-group link"},
		"set_caption": {session.AwaitingCaption, "📝 Send the caption template. Placeholders: " +
			"{filename} {date} {size} {file_id} {user_id} {file_link}"},
		"set_buttons": {session.AwaitingButtons, "🔘 Send button specs, one per line: text | url-or-callback. " +
			"{file_link} and {file_id} are substituted."},
		"set_shortener": {session.AwaitingShortenerKey, "🔗 Send: <name> <api_key> (gplinks, modijiurl or bitly)"},
	}

	entry, ok := prompts[callback.Data]
	if !ok {
		b.answerCallback(callback.ID, "")
		return nil
	}

	b.sessions.Begin(userID, entry.state)
	b.answerCallback(callback.ID, "")
	b.sendText(chatID, entry.prompt)
	return nil
}

// handleAwaitingInput consumes the next private message from a user who is
// mid-conversation. Settings mutations stay admin-gated even here.
func (b *Bot) handleAwaitingInput(message *tgbotapi.Message, st *session.State) error {
	ctx := context.Background()
	userID := message.From.ID
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch st.Awaiting {
	case session.AwaitingBatchName:
		if !b.isAdmin(userID) {
			b.sessions.Clear(userID)
			b.sendText(chatID, consts.MsgAdminsOnly)
			return nil
		}
		return b.handleBatchName(message)

	case session.AwaitingBatchFiles:
		// Text while collecting batch files is just chatter; uploads are
		// what count.
		return nil

	case session.AwaitingCloneToken:
		if !b.isAdmin(userID) {
			b.sessions.Clear(userID)
			b.sendText(chatID, consts.MsgAdminsOnly)
			return nil
		}
		return b.handleCloneToken(message, st)

	case session.AwaitingWelcome:
		return b.applySetting(ctx, message, consts.KeyWelcomeMessage, text, "✅ Welcome message updated! 🎉")

	case session.AwaitingGroupLink:
		return b.applySetting(ctx, message, consts.KeyGroupLink, text, "✅ Group link updated! 🎉")

	case session.AwaitingCaption:
		return b.applySetting(ctx, message, consts.KeyCustomCaption, text, "✅ Caption template updated! 🎉")

	case session.AwaitingButtons:
		specs, skipped := parseButtonSpecs(text)
		b.sessions.Clear(userID)
		if !b.isAdmin(userID) {
			b.sendText(chatID, consts.MsgAdminsOnly)
			return nil
		}
		if !b.settings.Set(ctx, consts.KeyCustomButtons, specs) {
			b.sendText(chatID, "⚠️ Failed to save buttons! Try again! 😅")
			return nil
		}
		reply := fmt.Sprintf("✅ Saved %d button(s)! 🎉", len(specs))
		if skipped > 0 {
			reply += fmt.Sprintf(" (%d malformed line(s) skipped)", skipped)
		}
		b.sendText(chatID, reply)
		return nil

	case session.AwaitingShortenerKey:
		b.sessions.Clear(userID)
		if !b.isAdmin(userID) {
			b.sendText(chatID, consts.MsgAdminsOnly)
			return nil
		}
		parts := strings.Fields(text)
		if len(parts) != 2 {
			b.sendText(chatID, "Usage: <name> <api_key>")
			return nil
		}
		cfg := store.ShortenerConfig{Name: parts[0], APIKey: parts[1]}
		if !b.settings.Set(ctx, consts.KeyShortener, cfg) {
			b.sendText(chatID, "⚠️ Failed to save shortener! Try again! 😅")
			return nil
		}
		b.sendText(chatID, fmt.Sprintf("✅ Shortener %s configured! 🎉", cfg.Name))
		return nil

	case session.AwaitingChannelAdd, session.AwaitingChannelRemove:
		adding := st.Awaiting == session.AwaitingChannelAdd
		b.sessions.Clear(userID)
		if !b.isAdmin(userID) {
			b.sendText(chatID, consts.MsgAdminsOnly)
			return nil
		}
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			b.sendText(chatID, "⚠️ That is not a channel id! Expected something like -1001234567890. 😅")
			return nil
		}
		return b.updateChannelList(ctx, chatID, id, adding)
	}

	return nil
}

func (b *Bot) applySetting(ctx context.Context, message *tgbotapi.Message, key, value, okMsg string) error {
	userID := message.From.ID
	b.sessions.Clear(userID)

	if !b.isAdmin(userID) {
		b.sendText(message.Chat.ID, consts.MsgAdminsOnly)
		return nil
	}
	if !b.settings.Set(ctx, key, value) {
		b.sendText(message.Chat.ID, "⚠️ Failed to save setting! Try again! 😅")
		return nil
	}
	b.sendText(message.Chat.ID, okMsg)
	return nil
}

func (b *Bot) updateChannelList(ctx context.Context, chatID, channelID int64, adding bool) error {
	channels := store.GetInt64s(ctx, b.settings, consts.KeyStoreChannels, nil)

	if adding {
		for _, c := range channels {
			if c == channelID {
				b.sendText(chatID, "⚠️ Channel already in the list! 😅")
				return nil
			}
		}
		channels = append(channels, channelID)
	} else {
		kept := channels[:0]
		for _, c := range channels {
			if c != channelID {
				kept = append(kept, c)
			}
		}
		if len(kept) == len(channels) {
			b.sendText(chatID, "⚠️ Channel not in the list! 😅")
			return nil
		}
		channels = kept
	}

	if !b.settings.Set(ctx, consts.KeyStoreChannels, channels) {
		b.sendText(chatID, "⚠️ Failed to update channel list! Try again! 😅")
		return nil
	}
	b.sendText(chatID, fmt.Sprintf("✅ Channel list updated (%d configured)! 🎉", len(channels)))
	return nil
}

// parseButtonSpecs reads "text | target" lines. A target that looks like a
// URL becomes a URL button; anything else is callback data. Malformed lines
// are skipped, not fatal.
func parseButtonSpecs(input string) (specs []store.ButtonSpec, skipped int) {
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		if len(parts) != 2 {
			skipped++
			continue
		}
		text := strings.TrimSpace(parts[0])
		target := strings.TrimSpace(parts[1])
		if text == "" || target == "" {
			skipped++
			continue
		}

		spec := store.ButtonSpec{Text: text}
		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") ||
			strings.Contains(target, consts.PlaceholderFileLink) {
			spec.URL = target
		} else {
			spec.CallbackData = target
		}
		specs = append(specs, spec)
	}
	return specs, skipped
}
