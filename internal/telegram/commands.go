package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Telebots-07/Pk-s-bot/internal/consts"
	"github.com/Telebots-07/Pk-s-bot/internal/logger"
	"github.com/Telebots-07/Pk-s-bot/internal/store"
)

// handleCommand routes slash commands.
func (b *Bot) handleCommand(message *tgbotapi.Message) error {
	switch message.Command() {
	case "start":
		if payload := strings.TrimSpace(message.CommandArguments()); payload != "" {
			return b.resolveDeepLink(message, payload)
		}
		return b.handleStart(message)
	case "help":
		return b.handleHelp(message)
	case "search":
		return b.handleSearch(message)
	case "genlink":
		return b.handleGenLink(message)
	case "batch":
		return b.handleBatchCommand(message)
	case "broadcast":
		return b.handleBroadcast(message)
	case "settings":
		return b.showSettingsMenu(message.Chat.ID, message.From.ID)
	default:
		b.sendText(message.Chat.ID, "⚠️ Unknown command! Try /help 😅")
		return nil
	}
}

// handleStart shows the main menu. Admins see the management rows.
func (b *Bot) handleStart(message *tgbotapi.Message) error {
	ctx := context.Background()
	welcome := store.GetString(ctx, b.settings, consts.KeyWelcomeMessage, consts.MsgWelcomeDefault)

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(consts.ButtonSearch, "menu_search"),
			tgbotapi.NewInlineKeyboardButtonData(consts.ButtonTutorial, "menu_tutorial"),
		),
	}

	if b.scope.Main {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(consts.ButtonClone, "clone_new"),
		))
	}

	if b.isAdmin(message.From.ID) {
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(consts.ButtonSettings, "menu_settings"),
				tgbotapi.NewInlineKeyboardButtonData(consts.ButtonBatch, "batch_new"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(consts.ButtonClones, "clone_list"),
				tgbotapi.NewInlineKeyboardButtonData(consts.ButtonBroadcast, "menu_broadcast"),
			),
		)
	}

	if link := store.GetString(ctx, b.settings, consts.KeyGroupLink, b.cfg.GroupLink); link != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("👥 Request Group", link),
		))
	}

	b.sendWithMarkup(message.Chat.ID, welcome, tgbotapi.NewInlineKeyboardMarkup(rows...))
	return nil
}

func (b *Bot) handleHelp(message *tgbotapi.Message) error {
	help := "📦 Send me a file to store it and get a shareable link.\n" +
		"🔗 /genlink — links for your recent files\n" +
		"🔍 /search <term> — find stored files\n" +
		"📦 /batch — build a multi-file link (admins)\n" +
		"📢 /broadcast <text> — message all users (admins)\n" +
		"⚙️ /settings — bot settings (admins)"
	b.sendText(message.Chat.ID, help)
	return nil
}

// handleSearch is the admin search path for private chats; group members
// just type their query as plain text.
func (b *Bot) handleSearch(message *tgbotapi.Message) error {
	query := strings.TrimSpace(message.CommandArguments())
	if query == "" {
		b.sendText(message.Chat.ID, "🔍 Please provide a search term! (e.g., /search movie)")
		return nil
	}

	if message.Chat.IsPrivate() && !b.isAdmin(message.From.ID) {
		b.sendText(message.Chat.ID, consts.MsgAdminsOnly)
		return nil
	}

	matches := b.meta.FindFilesBySubstring(context.Background(), query)
	if len(matches) == 0 {
		reply := fmt.Sprintf("⚠️ No files found for %q! Try another term! 😅", query)
		if s := suggestQuery(query, b.meta.FileNames(context.Background())); s != "" {
			reply += fmt.Sprintf("\n💡 Did you mean %q?", s)
		}
		b.sendText(message.Chat.ID, reply)
		return nil
	}

	b.sendWithMarkup(message.Chat.ID,
		fmt.Sprintf("🔍 Search results for %q:", query),
		tgbotapi.NewInlineKeyboardMarkup(matchRows(matches)...))
	return nil
}

// handleGenLink lists the sender's recent uploads for one-tap link creation.
func (b *Bot) handleGenLink(message *tgbotapi.Message) error {
	own := b.meta.FilesByUploader(context.Background(), message.From.ID, 5)
	if len(own) == 0 {
		b.sendText(message.Chat.ID, "⚠️ You haven't stored any files yet! Send a file first! 😅")
		return nil
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(own))
	for _, rec := range own {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔗 "+rec.FileName, "link_"+rec.ID),
		))
	}
	b.sendWithMarkup(message.Chat.ID,
		"🔗 Choose a file to generate a shareable link! 📦",
		tgbotapi.NewInlineKeyboardMarkup(rows...))
	return nil
}

// handleBroadcast relays the command's text to every known user.
func (b *Bot) handleBroadcast(message *tgbotapi.Message) error {
	if !b.isAdmin(message.From.ID) {
		b.sendText(message.Chat.ID, consts.MsgAdminsOnly)
		logger.Warn("Unauthorized broadcast attempt", logger.Fields{
			"user_id": message.From.ID,
		})
		return nil
	}

	text := strings.TrimSpace(message.CommandArguments())
	if text == "" {
		b.sendText(message.Chat.ID, consts.MsgBroadcastUsage)
		return nil
	}

	go b.broadcast(text, message.Chat.ID)
	return nil
}
