package main

import (
	"context"
	"log"

	"github.com/Telebots-07/Pk-s-bot/internal/clone"
	"github.com/Telebots-07/Pk-s-bot/internal/config"
	"github.com/Telebots-07/Pk-s-bot/internal/logger"
	"github.com/Telebots-07/Pk-s-bot/internal/metrics"
	"github.com/Telebots-07/Pk-s-bot/internal/store"
	"github.com/Telebots-07/Pk-s-bot/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Info("Cloner bot is starting", logger.Fields{
		"log_level": cfg.LogLevel,
		"backend":   cfg.StoreBackend,
		"admins":    len(cfg.AdminIDs),
	})

	bot, err := telegram.NewBot(cfg)
	if err != nil {
		logger.Error("Failed to create Telegram bot", logger.Fields{
			"error": err.Error(),
		})
		log.Fatalf("Failed to create Telegram bot: %v", err)
	}

	settings, err := buildSettingsStore(cfg, bot)
	if err != nil {
		logger.Error("Failed to initialize settings store", logger.Fields{
			"backend": cfg.StoreBackend,
			"error":   err.Error(),
		})
		log.Fatalf("Failed to initialize settings store: %v", err)
	}
	bot.BindStore(settings)

	// Clones share the main bot's store; each one runs its own dispatcher.
	orchestrator := clone.NewOrchestrator(bot.Metadata(), telegram.TokenVerifier{},
		func(reg store.CloneRegistration) error {
			cloneBot, err := telegram.NewCloneBot(reg, cfg, bot.Metadata())
			if err != nil {
				return err
			}
			defer cloneBot.Stop()
			return cloneBot.Start()
		})
	bot.SetOrchestrator(orchestrator)
	orchestrator.StartAll(context.Background())

	metrics.Serve(cfg.MetricsAddr)

	logger.InfoMsg("📦 Ready to store files and hand out links!")

	defer bot.Stop()
	if err := bot.Start(); err != nil {
		logger.Error("Bot error", logger.Fields{
			"error": err.Error(),
		})
	}
}

func buildSettingsStore(cfg *config.Config, bot *telegram.Bot) (store.SettingsStore, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return store.NewPostgresStore(cfg.PostgreDSN)
	case config.BackendChannel:
		return store.NewChannelStore(bot.ChannelAPI(), cfg.DBChannelID)
	default:
		return store.NewFileStore(cfg.SettingsFile)
	}
}
