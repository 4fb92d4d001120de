package telegram

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Telebots-07/Pk-s-bot/internal/config"
	"github.com/Telebots-07/Pk-s-bot/internal/consts"
	"github.com/Telebots-07/Pk-s-bot/internal/store"
)

func newTestCloneBot(t *testing.T, scope Scope) (*Bot, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	b := newBotWithAPI(api, &config.Config{AdminIDs: []int64{1}}, scope)

	main, _ := newTestBot(t, 1)
	b.meta = main.meta
	b.settings = main.settings

	t.Cleanup(b.sessions.Close)
	return b, api
}

func TestDeepLink(t *testing.T) {
	b, _ := newTestBot(t, 1)
	assert.Equal(t, "https://t.me/clonerbot?start=file_abc", b.deepLink(consts.LinkPrefixFile, "abc"))
	assert.Equal(t, "https://t.me/clonerbot?start=batch_b1", b.deepLink(consts.LinkPrefixBatch, "b1"))
}

func TestIsAdmin(t *testing.T) {
	t.Run("main bot uses the configured list", func(t *testing.T) {
		b, _ := newTestBot(t, 1, 2)
		assert.True(t, b.isAdmin(1))
		assert.True(t, b.isAdmin(2))
		assert.False(t, b.isAdmin(99))
	})

	t.Run("clone admits only its owner", func(t *testing.T) {
		b, _ := newTestCloneBot(t, Scope{OwnerID: 7, BotName: "clonedbot"})
		assert.True(t, b.isAdmin(7))
		assert.False(t, b.isAdmin(1)) // main-bot admin carries no weight here
	})
}

func TestAllowInteraction_PrivateClone(t *testing.T) {
	b, api := newTestCloneBot(t, Scope{OwnerID: 7, Private: true, BotName: "clonedbot"})

	assert.True(t, b.allowInteraction(7, 7))

	assert.False(t, b.allowInteraction(8, 8))
	assert.True(t, containsText(api.messagesTo(8), consts.MsgPrivateClone))
}

func TestAllowInteraction_PublicCloneAdmitsEveryone(t *testing.T) {
	b, _ := newTestCloneBot(t, Scope{OwnerID: 7, BotName: "clonedbot"})
	assert.True(t, b.allowInteraction(8, 8))
}

func TestHandleMessage_PrivateFreeTextIsIgnored(t *testing.T) {
	b, api := newTestBot(t, 1)

	require.NoError(t, b.handleMessage(privateMessage(99, "random chatter")))

	assert.Empty(t, api.messagesTo(99))
	// But the user is remembered for broadcasts.
	assert.Equal(t, []int64{99}, b.meta.KnownUsers(context.Background()))
}

func TestHandleMessage_GroupTextIsAQuery(t *testing.T) {
	b, api := newTestBot(t, 1)
	require.True(t, b.meta.StoreFile(context.Background(), store.FileRecord{ID: "f1", FileName: "holiday.mp4"}))

	require.NoError(t, b.handleMessage(groupMessage(99, -500, "holiday")))

	markup := api.lastMarkupTo(t, -500)
	assert.True(t, markupHasCallback(markup, "get_f1"))
	// Group members are not broadcast targets.
	assert.Empty(t, b.meta.KnownUsers(context.Background()))
}

func TestHandleMessage_StartDeepLinkRelaysFile(t *testing.T) {
	b, api := newTestBot(t, 1)
	ctx := context.Background()

	require.True(t, b.meta.StoreFile(ctx, store.FileRecord{
		ID: "abc", FileName: "movie.mp4", ChatID: -1001, MessageID: 5,
	}))

	msg := privateMessage(99, "/start file_abc")
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}}

	require.NoError(t, b.handleMessage(msg))

	fwds := api.forwardsTo(99)
	require.Len(t, fwds, 1)
	assert.Equal(t, 5, fwds[0].MessageID)
}

func TestHandleMessage_UploadRunsIngestion(t *testing.T) {
	b, _ := newTestBot(t, 1)
	configureStoreChannels(t, b, -1001)

	require.NoError(t, b.handleMessage(documentMessage(42, "movie.mp4", 1024)))

	assert.Equal(t, []string{"movie.mp4"}, b.meta.FileNames(context.Background()))
}

func TestHasAttachment(t *testing.T) {
	assert.True(t, hasAttachment(documentMessage(42, "a.bin", 1)))
	assert.False(t, hasAttachment(privateMessage(42, "text")))

	msg := privateMessage(42, "")
	msg.Audio = &tgbotapi.Audio{FileID: "a1"}
	assert.True(t, hasAttachment(msg))
}
