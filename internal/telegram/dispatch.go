package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Telebots-07/Pk-s-bot/internal/logger"
)

// dispatcher fans updates out to a bounded worker pool so one slow backend
// call cannot stall the whole update stream.
type dispatcher struct {
	bot       *Bot
	messages  chan *tgbotapi.Message
	callbacks chan *tgbotapi.CallbackQuery
	workers   int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type dispatcherConfig struct {
	Workers       int
	MessageQueue  int
	CallbackQueue int
}

func defaultDispatcherConfig() dispatcherConfig {
	return dispatcherConfig{
		Workers:       8,
		MessageQueue:  128,
		CallbackQueue: 64,
	}
}

func newDispatcher(bot *Bot, cfg dispatcherConfig) *dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &dispatcher{
		bot:       bot,
		messages:  make(chan *tgbotapi.Message, cfg.MessageQueue),
		callbacks: make(chan *tgbotapi.CallbackQuery, cfg.CallbackQueue),
		workers:   cfg.Workers,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (d *dispatcher) start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	logger.Info("Dispatcher started", logger.Fields{
		"workers": d.workers,
	})
}

// stop drains the queues and waits for workers, giving up after a timeout.
func (d *dispatcher) stop() {
	close(d.messages)
	close(d.callbacks)
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.InfoMsg("Dispatcher stopped")
	case <-time.After(30 * time.Second):
		logger.WarnMsg("Dispatcher shutdown timed out")
	}
}

func (d *dispatcher) submitMessage(m *tgbotapi.Message) error {
	select {
	case d.messages <- m:
		return nil
	case <-d.ctx.Done():
		return fmt.Errorf("dispatcher is shutting down")
	default:
		return fmt.Errorf("message queue full")
	}
}

func (d *dispatcher) submitCallback(c *tgbotapi.CallbackQuery) error {
	select {
	case d.callbacks <- c:
		return nil
	case <-d.ctx.Done():
		return fmt.Errorf("dispatcher is shutting down")
	default:
		return fmt.Errorf("callback queue full")
	}
}

// worker consumes both queues until they close. A panic in a handler is
// contained to the update that caused it.
func (d *dispatcher) worker(id int) {
	defer d.wg.Done()

	messages, callbacks := d.messages, d.callbacks
	for messages != nil || callbacks != nil {
		select {
		case m, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			d.run(func() error { return d.bot.handleMessage(m) }, m.Chat.ID)
		case c, ok := <-callbacks:
			if !ok {
				callbacks = nil
				continue
			}
			var chatID int64
			if c.Message != nil {
				chatID = c.Message.Chat.ID
			}
			d.run(func() error { return d.bot.handleCallback(c) }, chatID)
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *dispatcher) run(fn func() error, chatID int64) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Handler panic recovered", logger.Fields{
				"chat_id": chatID,
				"panic":   r,
			})
		}
	}()

	if err := fn(); err != nil {
		logger.Error("Handler error", logger.Fields{
			"chat_id": chatID,
			"error":   err.Error(),
		})
	}
}
