package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/Telebots-07/Pk-s-bot/internal/consts"
	"github.com/Telebots-07/Pk-s-bot/internal/logger"
	"github.com/Telebots-07/Pk-s-bot/internal/metrics"
	"github.com/Telebots-07/Pk-s-bot/internal/session"
	"github.com/Telebots-07/Pk-s-bot/internal/shortener"
	"github.com/Telebots-07/Pk-s-bot/internal/store"
)

// Ingestion pipeline stages, in order. A failure at any stage exits the
// pipeline; completed stages are not rolled back.
const (
	stageReceived       = "received"
	stageSizeChecked    = "size_checked"
	stageRelayed        = "relayed"
	stageCaptioned      = "captioned"
	stageMetadataStored = "metadata_stored"
	stageAcknowledged   = "acknowledged"
)

// attachment is the uploadable part of an inbound message.
type attachment struct {
	fileID   string
	fileName string
	size     int64
}

func extractAttachment(message *tgbotapi.Message) (attachment, bool) {
	switch {
	case message.Document != nil:
		name := message.Document.FileName
		if name == "" {
			name = "Document"
		}
		return attachment{message.Document.FileID, name, int64(message.Document.FileSize)}, true
	case len(message.Photo) > 0:
		// Highest resolution rendition is last.
		photo := message.Photo[len(message.Photo)-1]
		return attachment{photo.FileID, "Photo", int64(photo.FileSize)}, true
	case message.Video != nil:
		name := message.Video.FileName
		if name == "" {
			name = "Video"
		}
		return attachment{message.Video.FileID, name, int64(message.Video.FileSize)}, true
	case message.Audio != nil:
		name := message.Audio.FileName
		if name == "" {
			name = "Audio"
		}
		return attachment{message.Audio.FileID, name, int64(message.Audio.FileSize)}, true
	}
	return attachment{}, false
}

// ingestFile walks one upload through the pipeline:
// RECEIVED -> SIZE_CHECKED -> RELAYED -> CAPTIONED -> METADATA_STORED -> ACKNOWLEDGED.
func (b *Bot) ingestFile(message *tgbotapi.Message) error {
	ctx := context.Background()
	uploaderID := message.From.ID

	att, ok := extractAttachment(message)
	if !ok {
		b.failIngest(message.Chat.ID, stageReceived, consts.MsgUnsupportedFile)
		return nil
	}

	if att.size > consts.MaxFileSizeBytes {
		// No relay, no metadata for oversized uploads.
		b.failIngest(message.Chat.ID, stageSizeChecked, consts.MsgFileTooLarge)
		return nil
	}

	// Destination is always the first configured storage channel; this
	// pipeline never rotates or load-balances.
	channels := store.GetInt64s(ctx, b.settings, consts.KeyStoreChannels, nil)
	if len(channels) == 0 {
		b.failIngest(message.Chat.ID, stageRelayed, consts.MsgNoStoreChannel)
		return nil
	}
	dest := channels[0]

	forwarded, err := b.rateLimitedSend(dest, tgbotapi.NewForward(dest, message.Chat.ID, message.MessageID))
	if err != nil {
		logger.Error("Failed to relay file to storage channel", logger.Fields{
			"dest":     dest,
			"uploader": uploaderID,
			"error":    err.Error(),
		})
		b.failIngest(message.Chat.ID, stageRelayed, consts.MsgRelayFailed)
		return nil
	}

	rec := store.FileRecord{
		ID:         uuid.NewString(),
		FileName:   att.fileName,
		ChatID:     dest,
		MessageID:  forwarded.MessageID,
		SizeBytes:  att.size,
		UploaderID: uploaderID,
		CreatedAt:  time.Now().UTC(),
	}

	fileLink := b.fileLink(ctx, uploaderID, rec.ID)

	caption := formatCaption(
		store.GetString(ctx, b.settings, consts.KeyCustomCaption, ""),
		rec, fileLink,
	)

	var buttonSpecs []store.ButtonSpec
	b.settings.Get(ctx, consts.KeyCustomButtons, &buttonSpecs)
	custom := buildButtons(buttonSpecs, fileLink, rec.ID)

	if !b.meta.StoreFile(ctx, rec) {
		// The file sits in the channel but will never match a search.
		// That is a different failure than the relay itself, tell the
		// uploader which one happened.
		b.failIngest(message.Chat.ID, stageMetadataStored, consts.MsgMetadataWarn)
		return nil
	}

	// A batch-building admin gets the upload appended to their open batch.
	batchNote := b.maybeAppendToBatch(ctx, uploaderID, rec.ID)

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(consts.ButtonRetrieve, "get_"+rec.ID),
			tgbotapi.NewInlineKeyboardButtonData(consts.ButtonDelete, "del_"+rec.ID),
		),
	}
	for _, btn := range custom {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn))
	}

	ack := fmt.Sprintf("✅ File '%s' stored! 📦\n%s\n🔗 %s%s", rec.FileName, caption, fileLink, batchNote)
	b.sendWithMarkup(message.Chat.ID, ack, tgbotapi.NewInlineKeyboardMarkup(rows...))

	metrics.FilesIngested.Inc()
	logger.Info("File ingested", logger.Fields{
		"file_id":  rec.ID,
		"filename": rec.FileName,
		"size":     rec.SizeBytes,
		"uploader": uploaderID,
		"stage":    stageAcknowledged,
	})
	return nil
}

// fileLink builds the retrieval deep link, shortened through the configured
// service unless the uploader holds an unexpired verification grant. Both a
// missing shortener and a shortening failure fall back to the plain link.
func (b *Bot) fileLink(ctx context.Context, uploaderID int64, fileID string) string {
	link := b.deepLink(consts.LinkPrefixFile, fileID)

	if b.sessions.HasGrant(uploaderID) {
		return link
	}

	var cfg store.ShortenerConfig
	if !b.settings.Get(ctx, consts.KeyShortener, &cfg) || cfg.Name == "" {
		return link
	}

	short, err := shortener.NewClient(cfg.Name, cfg.APIKey).Shorten(ctx, link)
	if err != nil {
		logger.Warn("Link shortening failed, using plain link", logger.Fields{
			"shortener": cfg.Name,
			"error":     err.Error(),
		})
		return link
	}
	return short
}

func (b *Bot) maybeAppendToBatch(ctx context.Context, uploaderID int64, fileID string) string {
	st := b.sessions.Current(uploaderID)
	if st.Awaiting != session.AwaitingBatchFiles {
		return ""
	}
	batchID := st.Payload["batch_id"]
	if batchID == "" {
		return ""
	}

	if !b.meta.AppendToBatch(ctx, batchID, fileID) {
		logger.Warn("Failed to append file to batch", logger.Fields{
			"batch_id": batchID,
			"file_id":  fileID,
		})
		return ""
	}
	return "\n📦 Added to batch."
}

// failIngest reports a pipeline failure to the uploader and the metrics.
func (b *Bot) failIngest(chatID int64, stage, userMsg string) {
	metrics.IngestFailures.WithLabelValues(stage).Inc()
	logger.Warn("Ingestion failed", logger.Fields{
		"chat_id": chatID,
		"stage":   stage,
	})
	b.sendText(chatID, userMsg)
}
