package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Telebots-07/Pk-s-bot/internal/logger"
)

// payloadTag marks the settings document among other messages in the channel.
const payloadTag = "settings"

// ChannelAPI is the slice of the messaging API the channel backend needs.
// *telegram.Bot provides the production implementation; tests supply fakes.
type ChannelAPI interface {
	SendText(ctx context.Context, chatID int64, text string) (messageID int, err error)
	PinMessage(ctx context.Context, chatID int64, messageID int) error
	PinnedText(ctx context.Context, chatID int64) (string, error)
}

// ChannelStore persists the settings document as a single JSON message inside
// a designated database channel. The current document is always the pinned
// message, so a read never scans history. Get and Set share one mutex held
// across the whole retry loop: a read must not observe a half-written
// document, and two writers must not interleave their read-modify-write.
type ChannelStore struct {
	api       ChannelAPI
	channelID int64
	mu        sync.Mutex
}

func NewChannelStore(api ChannelAPI, channelID int64) (*ChannelStore, error) {
	if channelID == 0 {
		return nil, fmt.Errorf("no database channel configured")
	}
	return &ChannelStore{api: api, channelID: channelID}, nil
}

var _ SettingsStore = (*ChannelStore)(nil)

// channelPayload is the wire shape of the pinned settings message.
type channelPayload struct {
	Type string                     `json:"type"`
	Data map[string]json.RawMessage `json:"data"`
}

func (c *ChannelStore) Get(ctx context.Context, key string, out interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.read(ctx)
	if err != nil {
		logger.Error("Failed to read settings from channel", logger.Fields{
			"channel_id": c.channelID,
			"key":        key,
			"error":      err.Error(),
		})
		return false
	}

	raw, ok := doc[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Error("Failed to decode setting", logger.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	return true
}

func (c *ChannelStore) Set(ctx context.Context, key string, value interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.read(ctx)
	if err != nil {
		logger.Error("Failed to read settings before channel write", logger.Fields{
			"channel_id": c.channelID,
			"error":      err.Error(),
		})
		return false
	}

	raw, err := json.Marshal(value)
	if err != nil {
		logger.Error("Failed to encode setting", logger.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	doc[key] = raw

	if err := c.write(ctx, doc); err != nil {
		logger.Error("Failed to write settings to channel", logger.Fields{
			"channel_id": c.channelID,
			"key":        key,
			"error":      err.Error(),
		})
		return false
	}
	return true
}

// read fetches and decodes the pinned settings document. A channel without a
// pinned settings message yields an empty document, not an error.
func (c *ChannelStore) read(ctx context.Context) (map[string]json.RawMessage, error) {
	var text string
	err := withRetry(ctx, "channel.read", func() error {
		var apiErr error
		text, apiErr = c.api.PinnedText(ctx, c.channelID)
		return apiErr
	})
	if err != nil {
		return nil, err
	}
	if text == "" {
		return map[string]json.RawMessage{}, nil
	}

	var payload channelPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil || payload.Type != payloadTag {
		// Somebody pinned an unrelated message; treat the document as empty
		// rather than failing every read.
		logger.Warn("Pinned message is not a settings document", logger.Fields{
			"channel_id": c.channelID,
		})
		return map[string]json.RawMessage{}, nil
	}
	if payload.Data == nil {
		payload.Data = map[string]json.RawMessage{}
	}
	return payload.Data, nil
}

// write sends the full document as a fresh message and re-pins it so the
// next read finds the current version.
func (c *ChannelStore) write(ctx context.Context, doc map[string]json.RawMessage) error {
	data, err := json.Marshal(channelPayload{Type: payloadTag, Data: doc})
	if err != nil {
		return err
	}

	return withRetry(ctx, "channel.write", func() error {
		msgID, apiErr := c.api.SendText(ctx, c.channelID, string(data))
		if apiErr != nil {
			return apiErr
		}
		return c.api.PinMessage(ctx, c.channelID, msgID)
	})
}
