package telegram

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Telebots-07/Pk-s-bot/internal/consts"
	"github.com/Telebots-07/Pk-s-bot/internal/session"
	"github.com/Telebots-07/Pk-s-bot/internal/store"
)

func configureStoreChannels(t *testing.T, b *Bot, channels ...int64) {
	t.Helper()
	require.True(t, b.settings.Set(context.Background(), consts.KeyStoreChannels, channels))
}

func TestIngestFile_HappyPath(t *testing.T) {
	b, api := newTestBot(t, 1)
	ctx := context.Background()
	configureStoreChannels(t, b, -1001, -1002)

	require.NoError(t, b.ingestFile(documentMessage(42, "movie.mp4", 50*1024*1024)))

	// Relayed to the first configured channel, never the second.
	fwds := api.forwardsTo(-1001)
	require.Len(t, fwds, 1)
	assert.Equal(t, int64(42), fwds[0].FromChatID)
	assert.Empty(t, api.forwardsTo(-1002))

	// The record is resolvable afterwards.
	matches := b.meta.FindFilesBySubstring(ctx, "movie")
	require.Len(t, matches, 1)
	rec := matches[0]
	assert.Equal(t, "movie.mp4", rec.FileName)
	assert.Equal(t, int64(-1001), rec.ChatID)
	assert.Equal(t, int64(42), rec.UploaderID)
	assert.Equal(t, int64(50*1024*1024), rec.SizeBytes)

	// The ack carries the deep link and the Retrieve/Delete buttons.
	assert.True(t, containsText(api.messagesTo(42), "https://t.me/clonerbot?start=file_"+rec.ID))
	markup := api.lastMarkupTo(t, 42)
	assert.True(t, markupHasCallback(markup, "get_"+rec.ID))
	assert.True(t, markupHasCallback(markup, "del_"+rec.ID))
}

func TestIngestFile_OversizeIsRejectedBeforeRelay(t *testing.T) {
	b, api := newTestBot(t, 1)
	configureStoreChannels(t, b, -1001)

	require.NoError(t, b.ingestFile(documentMessage(42, "huge.iso", consts.MaxFileSizeBytes+1)))

	assert.Empty(t, api.forwardsTo(-1001))
	assert.Empty(t, b.meta.FileNames(context.Background()))
	assert.True(t, containsText(api.messagesTo(42), consts.MsgFileTooLarge))
}

func TestIngestFile_NoStoreChannelConfigured(t *testing.T) {
	b, api := newTestBot(t, 1)

	require.NoError(t, b.ingestFile(documentMessage(42, "movie.mp4", 1024)))

	assert.Empty(t, b.meta.FileNames(context.Background()))
	assert.True(t, containsText(api.messagesTo(42), consts.MsgNoStoreChannel))
}

func TestIngestFile_NoAttachment(t *testing.T) {
	b, api := newTestBot(t, 1)
	configureStoreChannels(t, b, -1001)

	require.NoError(t, b.ingestFile(privateMessage(42, "just text")))

	assert.True(t, containsText(api.messagesTo(42), consts.MsgUnsupportedFile))
}

func TestIngestFile_RelayFailure(t *testing.T) {
	b, api := newTestBot(t, 1)
	configureStoreChannels(t, b, -1001)
	api.sendErr = assert.AnError

	require.NoError(t, b.ingestFile(documentMessage(42, "movie.mp4", 1024)))

	// No record for a file that never reached the channel.
	assert.Empty(t, b.meta.FileNames(context.Background()))
}

func TestIngestFile_CustomCaptionAndButtons(t *testing.T) {
	b, api := newTestBot(t, 1)
	ctx := context.Background()
	configureStoreChannels(t, b, -1001)
	require.True(t, b.settings.Set(ctx, consts.KeyCustomCaption, "{filename} ({size})"))
	require.True(t, b.settings.Set(ctx, consts.KeyCustomButtons, []store.ButtonSpec{
		{Text: "Open", URL: "{file_link}"},
	}))

	require.NoError(t, b.ingestFile(documentMessage(42, "movie.mp4", 2048)))

	assert.True(t, containsText(api.messagesTo(42), "movie.mp4 (2.00 KB)"))

	markup := api.lastMarkupTo(t, 42)
	foundURL := false
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.Text == "Open" && btn.URL != nil {
				foundURL = true
			}
		}
	}
	assert.True(t, foundURL, "custom URL button missing from ack")
}

func TestIngestFile_AppendsToOpenBatch(t *testing.T) {
	b, api := newTestBot(t, 1)
	ctx := context.Background()
	configureStoreChannels(t, b, -1001)

	require.True(t, b.meta.SaveBatch(ctx, store.Batch{ID: "b1", Name: "pack", OwnerID: 42}))
	b.sessions.BeginWithPayload(42, session.AwaitingBatchFiles, map[string]string{"batch_id": "b1"})

	require.NoError(t, b.ingestFile(documentMessage(42, "ep1.mkv", 1024)))
	require.NoError(t, b.ingestFile(documentMessage(42, "ep2.mkv", 1024)))

	batch, ok := b.meta.FindBatch(ctx, "b1")
	require.True(t, ok)
	require.Len(t, batch.FileIDs, 2)

	// Constituent order follows upload order.
	first, _ := b.meta.FindFileByID(ctx, batch.FileIDs[0])
	second, _ := b.meta.FindFileByID(ctx, batch.FileIDs[1])
	assert.Equal(t, "ep1.mkv", first.FileName)
	assert.Equal(t, "ep2.mkv", second.FileName)

	assert.True(t, containsText(api.messagesTo(42), "Added to batch"))
}

func TestExtractAttachment(t *testing.T) {
	t.Run("document", func(t *testing.T) {
		att, ok := extractAttachment(documentMessage(42, "a.bin", 10))
		require.True(t, ok)
		assert.Equal(t, "a.bin", att.fileName)
		assert.Equal(t, int64(10), att.size)
	})

	t.Run("photo picks highest resolution", func(t *testing.T) {
		msg := privateMessage(42, "")
		msg.Photo = []tgbotapi.PhotoSize{
			{FileID: "small", FileSize: 100},
			{FileID: "large", FileSize: 900},
		}
		att, ok := extractAttachment(msg)
		require.True(t, ok)
		assert.Equal(t, "large", att.fileID)
		assert.Equal(t, "Photo", att.fileName)
	})

	t.Run("video without filename", func(t *testing.T) {
		msg := privateMessage(42, "")
		msg.Video = &tgbotapi.Video{FileID: "v1", FileSize: 10}
		att, ok := extractAttachment(msg)
		require.True(t, ok)
		assert.Equal(t, "Video", att.fileName)
	})

	t.Run("plain text", func(t *testing.T) {
		_, ok := extractAttachment(privateMessage(42, "hello"))
		assert.False(t, ok)
	})
}
