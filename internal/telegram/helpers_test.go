package telegram

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"github.com/Telebots-07/Pk-s-bot/internal/config"
	"github.com/Telebots-07/Pk-s-bot/internal/store"
)

// fakeAPI records outbound traffic instead of talking to Telegram.
type fakeAPI struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	nextID    int
	sendErr   error           // when set, every Send fails with it
	failChats map[int64]error // per-chat Send failures
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		if err, ok := f.failChats[msg.ChatID]; ok {
			return tgbotapi.Message{}, err
		}
	}
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetChat(tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error) {
	return tgbotapi.Chat{}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (f *fakeAPI) StopReceivingUpdates() {}

// messagesTo returns the text of every plain message sent to chatID.
func (f *fakeAPI) messagesTo(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var texts []string
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok && msg.ChatID == chatID {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

// forwardsTo returns every forward delivered to chatID, in send order.
func (f *fakeAPI) forwardsTo(chatID int64) []tgbotapi.ForwardConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var fwds []tgbotapi.ForwardConfig
	for _, c := range f.sent {
		if fwd, ok := c.(tgbotapi.ForwardConfig); ok && fwd.ChatID == chatID {
			fwds = append(fwds, fwd)
		}
	}
	return fwds
}

// lastMarkupTo returns the inline keyboard of the last message sent to chatID.
func (f *fakeAPI) lastMarkupTo(t *testing.T, chatID int64) tgbotapi.InlineKeyboardMarkup {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		msg, ok := f.sent[i].(tgbotapi.MessageConfig)
		if !ok || msg.ChatID != chatID {
			continue
		}
		markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		if !ok {
			continue
		}
		return markup
	}
	t.Fatalf("no message with markup sent to chat %d", chatID)
	return tgbotapi.InlineKeyboardMarkup{}
}

func containsText(texts []string, substr string) bool {
	for _, s := range texts {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func markupHasCallback(markup tgbotapi.InlineKeyboardMarkup, data string) bool {
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil && *btn.CallbackData == data {
				return true
			}
		}
	}
	return false
}

func newTestBot(t *testing.T, adminIDs ...int64) (*Bot, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	cfg := &config.Config{AdminIDs: adminIDs}
	b := newBotWithAPI(api, cfg, Scope{Main: true, BotName: "clonerbot"})

	fs, err := store.NewFileStore(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	b.BindStore(fs)

	t.Cleanup(b.sessions.Close)
	return b, api
}

func privateMessage(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: userID, Type: "private"},
		Text:      text,
	}
}

func groupMessage(userID, chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "supergroup"},
		Text:      text,
	}
}

func documentMessage(userID int64, name string, size int) *tgbotapi.Message {
	msg := privateMessage(userID, "")
	msg.Document = &tgbotapi.Document{FileID: "tg-" + name, FileName: name, FileSize: size}
	return msg
}

func callbackFrom(userID, chatID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: userID},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 1,
			Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		},
	}
}
