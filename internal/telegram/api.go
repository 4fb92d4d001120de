package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Telebots-07/Pk-s-bot/internal/clone"
)

// API is the slice of the Bot API client the handlers use. *tgbotapi.BotAPI
// satisfies it; tests install fakes.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// channelAPI adapts the bot client to the store.ChannelAPI surface the
// channel-log settings backend consumes.
type channelAPI struct {
	api API
}

func (c *channelAPI) SendText(ctx context.Context, chatID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableNotification = true
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (c *channelAPI) PinMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := c.api.Request(tgbotapi.PinChatMessageConfig{
		ChatID:              chatID,
		MessageID:           messageID,
		DisableNotification: true,
	})
	return err
}

func (c *channelAPI) PinnedText(ctx context.Context, chatID int64) (string, error) {
	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return "", err
	}
	if chat.PinnedMessage == nil {
		return "", nil
	}
	return chat.PinnedMessage.Text, nil
}

// TokenVerifier verifies clone tokens against the live bot identity
// endpoint, classifying failures into the orchestrator's error classes.
type TokenVerifier struct{}

func (TokenVerifier) Verify(ctx context.Context, token string) (string, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) && tgErr.Code == 401 {
			return "", clone.ErrUnauthorized
		}
		return "", clone.ErrNetwork
	}
	return api.Self.UserName, nil
}
