package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/Telebots-07/Pk-s-bot/internal/clone"
	"github.com/Telebots-07/Pk-s-bot/internal/config"
	"github.com/Telebots-07/Pk-s-bot/internal/consts"
	"github.com/Telebots-07/Pk-s-bot/internal/logger"
	"github.com/Telebots-07/Pk-s-bot/internal/session"
	"github.com/Telebots-07/Pk-s-bot/internal/store"
)

// Scope describes which bot instance handlers run under. Clones share the
// main bot's store but carry their own access rules.
type Scope struct {
	Main    bool
	OwnerID int64
	Private bool
	Usage   string
	BotName string // username without @, used for deep links
}

// Bot is one dispatcher instance bound to a token: the main bot or a clone.
type Bot struct {
	api      API
	cfg      *config.Config
	scope    Scope
	settings store.SettingsStore
	meta     *store.Metadata
	sessions *session.Manager

	orchestrator *clone.Orchestrator // main bot only

	globalLimiter  *rate.Limiter
	userLimiters   map[int64]*rate.Limiter
	userLimitersMu sync.RWMutex

	pool *dispatcher
}

// NewBot builds the main bot. The settings backend may need the bot's own
// API (channel backend), so the store is wired after the client exists via
// BindStore.
func NewBot(cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	b := newBotWithAPI(api, cfg, Scope{Main: true, BotName: api.Self.UserName})
	return b, nil
}

// NewCloneBot builds a dispatcher for a registered clone, sharing the main
// bot's store and session manager.
func NewCloneBot(reg store.CloneRegistration, cfg *config.Config, meta *store.Metadata) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(reg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create clone bot: %w", err)
	}

	b := newBotWithAPI(api, cfg, Scope{
		OwnerID: reg.OwnerID,
		Private: reg.IsPrivate(),
		Usage:   reg.Usage,
		BotName: api.Self.UserName,
	})
	b.meta = meta
	b.settings = meta.Settings()
	return b, nil
}

func newBotWithAPI(api API, cfg *config.Config, scope Scope) *Bot {
	return &Bot{
		api:           api,
		cfg:           cfg,
		scope:         scope,
		sessions:      session.NewManager(),
		globalLimiter: rate.NewLimiter(rate.Limit(30), 30), // Telegram's global ceiling
		userLimiters:  make(map[int64]*rate.Limiter),
	}
}

// BindStore attaches the settings backend and the metadata layer on top.
func (b *Bot) BindStore(settings store.SettingsStore) {
	b.settings = settings
	b.meta = store.NewMetadata(settings)
}

// ChannelAPI exposes the adapter the channel-log backend needs.
func (b *Bot) ChannelAPI() store.ChannelAPI {
	return &channelAPI{api: b.api}
}

// SetOrchestrator wires the clone orchestrator (main bot only).
func (b *Bot) SetOrchestrator(o *clone.Orchestrator) {
	b.orchestrator = o
}

// Metadata returns the record layer, for wiring the orchestrator.
func (b *Bot) Metadata() *store.Metadata {
	return b.meta
}

// Start runs the update loop until the API channel closes. Updates are fed
// to the dispatcher's worker pool; handling order within a worker follows
// receipt order per chat only as far as Telegram delivers it.
func (b *Bot) Start() error {
	if b.settings == nil || b.meta == nil {
		return fmt.Errorf("bot started without a bound store")
	}

	logger.Info("Bot authorized and starting", logger.Fields{
		"username": b.scope.BotName,
		"main":     b.scope.Main,
	})

	b.pool = newDispatcher(b, defaultDispatcherConfig())
	b.pool.start()

	if b.scope.Main {
		logger.SetErrorRelay(func(msg string) {
			b.logToChannel("🚨 " + msg)
		})
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query"}

	for update := range b.api.GetUpdatesChan(u) {
		if update.CallbackQuery != nil {
			if err := b.pool.submitCallback(update.CallbackQuery); err != nil {
				logger.Error("Dropping callback", logger.Fields{
					"error":       err.Error(),
					"callback_id": update.CallbackQuery.ID,
				})
			}
			continue
		}
		if update.Message == nil {
			continue
		}
		if err := b.pool.submitMessage(update.Message); err != nil {
			logger.Error("Dropping message", logger.Fields{
				"error":   err.Error(),
				"chat_id": update.Message.Chat.ID,
			})
		}
	}

	return nil
}

// Stop shuts the update stream and drains the worker pool.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	if b.pool != nil {
		b.pool.stop()
	}
	b.sessions.Close()
}

// handleMessage is the per-message entry point run by pool workers.
func (b *Bot) handleMessage(message *tgbotapi.Message) error {
	if message.From == nil {
		return nil
	}

	if !b.allowInteraction(message.From.ID, message.Chat.ID) {
		return nil
	}

	if message.Chat.IsPrivate() {
		b.meta.RememberUser(context.Background(), message.Chat.ID)
	}

	if hasAttachment(message) {
		return b.ingestFile(message)
	}

	if message.IsCommand() {
		return b.handleCommand(message)
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		return nil
	}

	// Group chats treat every line of text as a file request. In private
	// chats free text only matters while the user is mid-conversation;
	// anything else is deliberately ignored.
	if message.Chat.IsGroup() || message.Chat.IsSuperGroup() {
		return b.handleFreeTextQuery(message)
	}

	if st := b.sessions.Current(message.From.ID); st.Awaiting != session.AwaitingNothing {
		return b.handleAwaitingInput(message, st)
	}

	return nil
}

// allowInteraction enforces the private-clone access rule: on a private
// clone every interaction from anybody but the owner is refused.
func (b *Bot) allowInteraction(userID, chatID int64) bool {
	if !b.scope.Private || userID == b.scope.OwnerID {
		return true
	}

	logger.Warn("Denied interaction on private clone", logger.Fields{
		"user_id": userID,
		"bot":     b.scope.BotName,
	})
	b.sendText(chatID, consts.MsgPrivateClone)
	return false
}

// isAdmin reports whether the user may run admin actions on this instance.
// On clones the owner is the sole admin.
func (b *Bot) isAdmin(userID int64) bool {
	if b.scope.Main {
		return b.cfg.IsAdmin(userID)
	}
	return userID == b.scope.OwnerID
}

// deepLink builds the shareable t.me link for a payload.
func (b *Bot) deepLink(prefix, id string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s_%s", b.scope.BotName, prefix, id)
}

func hasAttachment(message *tgbotapi.Message) bool {
	return message.Document != nil || len(message.Photo) > 0 ||
		message.Video != nil || message.Audio != nil
}
