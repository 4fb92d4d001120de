package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arbovm/levenshtein"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/Telebots-07/Pk-s-bot/internal/consts"
	"github.com/Telebots-07/Pk-s-bot/internal/logger"
	"github.com/Telebots-07/Pk-s-bot/internal/metrics"
	"github.com/Telebots-07/Pk-s-bot/internal/store"
)

// parseDeepLink splits a /start payload into its prefix and id.
// Grammar: "<prefix>_<id>" with prefix in {file, batch, request, verify}.
func parseDeepLink(payload string) (prefix, id string, err error) {
	parts := strings.SplitN(payload, "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("malformed deep link payload %q", payload)
	}

	switch parts[0] {
	case consts.LinkPrefixFile, consts.LinkPrefixBatch, consts.LinkPrefixRequest, "verify":
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("unknown deep link prefix %q", parts[0])
	}
}

// resolveDeepLink relays the file or batch the payload points at.
func (b *Bot) resolveDeepLink(message *tgbotapi.Message, payload string) error {
	ctx := context.Background()
	chatID := message.Chat.ID

	prefix, id, err := parseDeepLink(payload)
	if err != nil {
		b.sendText(chatID, consts.MsgNotFound)
		return nil
	}

	switch prefix {
	case consts.LinkPrefixFile:
		rec, ok := b.meta.FindFileByID(ctx, id)
		if !ok {
			b.sendText(chatID, consts.MsgNotFound)
			return nil
		}
		if err := b.relayStored(chatID, rec.ChatID, rec.MessageID); err != nil {
			logger.Error("Failed to relay stored file", logger.Fields{
				"file_id": id,
				"error":   err.Error(),
			})
			b.sendText(chatID, consts.MsgNotFound)
			return nil
		}
		metrics.FilesRelayed.Inc()
		b.sendText(chatID, fmt.Sprintf("✅ Here's your file: %s 📦", rec.FileName))

	case consts.LinkPrefixBatch:
		return b.relayBatch(ctx, chatID, id)

	case consts.LinkPrefixRequest:
		req, ok := b.meta.FindRequest(ctx, id)
		if !ok {
			b.sendText(chatID, consts.MsgNotFound)
			return nil
		}
		b.sendText(chatID, fmt.Sprintf("📩 Request %q is %s.", req.Query, req.Status))

	case "verify":
		// Landing link of the shortener verification flow: the user proved
		// they sat through the ad page, so their links skip the shortener
		// for the next hour.
		b.sessions.Grant(message.From.ID, consts.VerificationGrant)
		b.sendText(chatID, "✅ Verified! Your links skip the shortener for 1 hour. 🎉")
	}

	return nil
}

// relayBatch forwards every constituent file in stored order. A missing
// constituent is logged and skipped, never fatal to the rest.
func (b *Bot) relayBatch(ctx context.Context, chatID int64, batchID string) error {
	batch, ok := b.meta.FindBatch(ctx, batchID)
	if !ok {
		b.sendText(chatID, consts.MsgBatchNotFound)
		return nil
	}

	relayed := 0
	for _, fileID := range batch.FileIDs {
		rec, ok := b.meta.FindFileByID(ctx, fileID)
		if !ok {
			logger.Warn("Batch constituent missing, skipping", logger.Fields{
				"batch_id": batchID,
				"file_id":  fileID,
			})
			continue
		}
		if err := b.relayStored(chatID, rec.ChatID, rec.MessageID); err != nil {
			logger.Warn("Failed to relay batch constituent, skipping", logger.Fields{
				"batch_id": batchID,
				"file_id":  fileID,
				"error":    err.Error(),
			})
			continue
		}
		relayed++
		metrics.FilesRelayed.Inc()
	}

	if relayed == 0 {
		b.sendText(chatID, consts.MsgBatchNotFound)
		return nil
	}
	b.sendText(chatID, fmt.Sprintf("✅ Here are your batch files! 📦 (%d of %d)", relayed, len(batch.FileIDs)))
	return nil
}

// handleFreeTextQuery treats group text as a retrieval request: matches are
// offered directly, a miss produces one alternate-query suggestion and
// escalates the request to the admins.
func (b *Bot) handleFreeTextQuery(message *tgbotapi.Message) error {
	ctx := context.Background()
	query := strings.TrimSpace(message.Text)
	chatID := message.Chat.ID

	matches := b.meta.FindFilesBySubstring(ctx, query)
	if len(matches) > 0 {
		b.sendWithMarkup(chatID,
			fmt.Sprintf("🔍 Found %d file(s) for %q:", len(matches), query),
			tgbotapi.NewInlineKeyboardMarkup(matchRows(matches)...))
		return nil
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	reply := fmt.Sprintf("⚠️ No files found for %q! 😅", query)
	if suggestion := suggestQuery(query, b.meta.FileNames(ctx)); suggestion != "" {
		reply += fmt.Sprintf("\n💡 Did you mean %q?", suggestion)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔁 Try "+suggestion, "retry_"+truncateCallbackData(suggestion)),
		))
	}

	req := store.Request{
		ID:          uuid.NewString(),
		Query:       query,
		RequesterID: message.From.ID,
		Status:      store.RequestPending,
		CreatedAt:   time.Now().UTC(),
	}
	if b.meta.SaveRequest(ctx, req) {
		reply += "\n" + consts.MsgRequestSent
		b.notifyAdminsOfRequest(req)
	}

	if len(rows) > 0 {
		b.sendWithMarkup(chatID, reply, tgbotapi.NewInlineKeyboardMarkup(rows...))
	} else {
		b.sendText(chatID, reply)
	}
	return nil
}

// matchRows renders search hits as Retrieve/Delete pairs.
func matchRows(matches []store.FileRecord) [][]tgbotapi.InlineKeyboardButton {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(matches))
	for _, rec := range matches {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📄 "+rec.FileName, "get_"+rec.ID),
			tgbotapi.NewInlineKeyboardButtonData(consts.ButtonDelete, "del_"+rec.ID),
		))
	}
	return rows
}

// suggestQuery picks the stored filename closest to the failed query by edit
// distance. Ties keep the earliest stored name; wildly distant names are not
// offered at all.
func suggestQuery(query string, names []string) string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(names) == 0 {
		return ""
	}

	best, bestDist := "", -1
	for _, name := range names {
		d := levenshtein.Distance(query, strings.ToLower(name))
		if bestDist == -1 || d < bestDist {
			best, bestDist = name, d
		}
	}

	// A distance beyond the query's own length means nothing is close.
	if bestDist > len(query) {
		return ""
	}
	return best
}

// truncateCallbackData keeps callback payloads inside Telegram's 64-byte cap.
func truncateCallbackData(s string) string {
	const max = 56 // leaves room for the action prefix
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// notifyAdminsOfRequest broadcasts a pending request to every admin with
// Approve/Deny affordances.
func (b *Bot) notifyAdminsOfRequest(req store.Request) {
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(consts.ButtonApprove, "req_approve_"+req.ID),
		tgbotapi.NewInlineKeyboardButtonData(consts.ButtonDeny, "req_deny_"+req.ID),
	))
	text := fmt.Sprintf("📩 New request from user %d:\n\n%s", req.RequesterID, req.Query)

	for _, adminID := range b.cfg.AdminIDs {
		b.sendWithMarkup(adminID, text, markup)
	}
}

// handleRequestResolution runs an admin's Approve or Deny click. Both
// transitions are terminal; a repeat click has no further effect.
func (b *Bot) handleRequestResolution(callback *tgbotapi.CallbackQuery, requestID string, approve bool) error {
	ctx := context.Background()

	if !b.isAdmin(callback.From.ID) {
		b.answerCallback(callback.ID, consts.MsgAdminsOnly)
		return nil
	}

	if !approve {
		req, ok := b.meta.ResolveRequest(ctx, requestID, store.RequestDenied)
		if !ok {
			b.answerCallback(callback.ID, "Already handled.")
			return nil
		}
		metrics.RequestsByOutcome.WithLabelValues(store.RequestDenied).Inc()
		b.answerCallback(callback.ID, "Denied.")
		b.sendText(req.RequesterID, consts.MsgRequestDenied)
		return nil
	}

	req, ok := b.meta.FindRequest(ctx, requestID)
	if !ok {
		b.answerCallback(callback.ID, "Request not found.")
		return nil
	}
	if req.Resolved() {
		b.answerCallback(callback.ID, "Already handled.")
		return nil
	}

	// Approval re-runs the match; the first hit goes back to the requester.
	matches := b.meta.FindFilesBySubstring(ctx, req.Query)
	status := store.RequestApproved
	if len(matches) == 0 {
		status = store.RequestNoMatch
	}

	if _, ok := b.meta.ResolveRequest(ctx, requestID, status); !ok {
		b.answerCallback(callback.ID, "Already handled.")
		return nil
	}
	metrics.RequestsByOutcome.WithLabelValues(status).Inc()

	if status == store.RequestNoMatch {
		b.answerCallback(callback.ID, "Approved, but no file matches anymore.")
		b.sendText(req.RequesterID, consts.MsgRequestNoMatch)
		return nil
	}

	rec := matches[0]
	if err := b.relayStored(req.RequesterID, rec.ChatID, rec.MessageID); err != nil {
		logger.Error("Failed to relay approved request", logger.Fields{
			"request_id": requestID,
			"file_id":    rec.ID,
			"error":      err.Error(),
		})
		b.sendText(req.RequesterID, consts.MsgRequestNoMatch)
		b.answerCallback(callback.ID, "Approved, but relay failed.")
		return nil
	}

	metrics.FilesRelayed.Inc()
	b.answerCallback(callback.ID, "Approved.")
	b.sendText(req.RequesterID, consts.MsgRequestApproved)
	return nil
}
