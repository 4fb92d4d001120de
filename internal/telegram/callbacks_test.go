package telegram

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Telebots-07/Pk-s-bot/internal/store"
)

func storedFile(t *testing.T, b *Bot, id, name string, uploaderID int64) {
	t.Helper()
	require.True(t, b.meta.StoreFile(context.Background(), store.FileRecord{
		ID: id, FileName: name, ChatID: -1001, MessageID: 7, UploaderID: uploaderID,
	}))
}

func TestHandleCallback_Retrieve(t *testing.T) {
	b, api := newTestBot(t, 1)
	storedFile(t, b, "f1", "movie.mp4", 42)

	require.NoError(t, b.handleCallback(callbackFrom(99, 99, "get_f1")))

	fwds := api.forwardsTo(99)
	require.Len(t, fwds, 1)
	assert.Equal(t, 7, fwds[0].MessageID)
}

func TestHandleCallback_RetrieveUnknownFile(t *testing.T) {
	b, api := newTestBot(t, 1)

	require.NoError(t, b.handleCallback(callbackFrom(99, 99, "get_ghost")))
	assert.Empty(t, api.forwardsTo(99))
}

func TestHandleCallback_DeleteByUploader(t *testing.T) {
	b, api := newTestBot(t, 1)
	storedFile(t, b, "f1", "movie.mp4", 42)

	require.NoError(t, b.handleCallback(callbackFrom(42, 42, "del_f1")))

	_, ok := b.meta.FindFileByID(context.Background(), "f1")
	assert.False(t, ok)

	// The backing channel message is deleted best-effort.
	deleted := false
	api.mu.Lock()
	for _, r := range api.requests {
		if del, ok := r.(tgbotapi.DeleteMessageConfig); ok {
			assert.Equal(t, int64(-1001), del.ChatID)
			assert.Equal(t, 7, del.MessageID)
			deleted = true
		}
	}
	api.mu.Unlock()
	assert.True(t, deleted)
}

func TestHandleCallback_DeleteByAdmin(t *testing.T) {
	b, _ := newTestBot(t, 1)
	storedFile(t, b, "f1", "movie.mp4", 42)

	require.NoError(t, b.handleCallback(callbackFrom(1, 1, "del_f1")))

	_, ok := b.meta.FindFileByID(context.Background(), "f1")
	assert.False(t, ok)
}

func TestHandleCallback_DeleteByStrangerIsRefused(t *testing.T) {
	b, _ := newTestBot(t, 1)
	storedFile(t, b, "f1", "movie.mp4", 42)

	require.NoError(t, b.handleCallback(callbackFrom(99, 99, "del_f1")))

	_, ok := b.meta.FindFileByID(context.Background(), "f1")
	assert.True(t, ok, "record must survive an unauthorized delete")
}

func TestHandleCallback_LinkSendsDeepLink(t *testing.T) {
	b, api := newTestBot(t, 1)
	storedFile(t, b, "f1", "movie.mp4", 42)

	require.NoError(t, b.handleCallback(callbackFrom(42, 42, "link_f1")))

	assert.True(t, containsText(api.messagesTo(42), "https://t.me/clonerbot?start=file_f1"))
}

func TestHandleCallback_RetryRerunsQuery(t *testing.T) {
	b, api := newTestBot(t, 1)
	storedFile(t, b, "f1", "holiday.mp4", 42)

	require.NoError(t, b.handleCallback(callbackFrom(99, -500, "retry_holiday")))

	markup := api.lastMarkupTo(t, -500)
	assert.True(t, markupHasCallback(markup, "get_f1"))
}

func TestHandleCallback_PrivateCloneGate(t *testing.T) {
	b, api := newTestCloneBot(t, Scope{OwnerID: 7, Private: true, BotName: "clonedbot"})
	storedFile(t, b, "f1", "movie.mp4", 7)

	require.NoError(t, b.handleCallback(callbackFrom(8, 8, "get_f1")))
	assert.Empty(t, api.forwardsTo(8))
}
