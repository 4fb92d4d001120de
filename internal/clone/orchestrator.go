package clone

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Telebots-07/Pk-s-bot/internal/logger"
	"github.com/Telebots-07/Pk-s-bot/internal/metrics"
	"github.com/Telebots-07/Pk-s-bot/internal/store"
)

// Registration failure classes. Each maps to a distinct admin-facing message.
var (
	ErrBadFormat    = errors.New("malformed bot token")
	ErrUnauthorized = errors.New("token invalid or revoked")
	ErrNetwork      = errors.New("could not verify token")
)

// Verifier checks a token against the bot identity endpoint and returns the
// bot's username. The production implementation lives in the telegram
// package; tests supply fakes.
type Verifier interface {
	Verify(ctx context.Context, token string) (username string, err error)
}

// Runner starts an independent dispatcher for a registered clone. Injected
// from main so this package stays free of bot wiring.
type Runner func(reg store.CloneRegistration) error

// Orchestrator validates clone tokens, persists registrations and supervises
// the dispatcher of every clone. All clones share the main bot's store.
type Orchestrator struct {
	meta     *store.Metadata
	verifier Verifier
	runner   Runner

	mu      sync.Mutex
	running map[string]struct{} // keyed by token
}

func NewOrchestrator(meta *store.Metadata, verifier Verifier, runner Runner) *Orchestrator {
	return &Orchestrator{
		meta:     meta,
		verifier: verifier,
		runner:   runner,
		running:  make(map[string]struct{}),
	}
}

// ValidateFormat rejects tokens that cannot possibly be bot tokens before
// any network call: the id and secret halves separated by exactly one colon.
func ValidateFormat(token string) error {
	parts := strings.Split(strings.TrimSpace(token), ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ErrBadFormat
	}
	return nil
}

// Register validates the token, persists a registration and starts the
// clone's dispatcher. On any failure the registry is left unchanged.
func (o *Orchestrator) Register(ctx context.Context, token, visibility, usage string, ownerID int64) (store.CloneRegistration, error) {
	if err := ValidateFormat(token); err != nil {
		return store.CloneRegistration{}, err
	}

	username, err := o.verifier.Verify(ctx, token)
	if err != nil {
		return store.CloneRegistration{}, err
	}

	reg := store.CloneRegistration{
		Token:      token,
		Username:   username,
		Visibility: visibility,
		OwnerID:    ownerID,
		Usage:      usage,
		CreatedAt:  time.Now().UTC(),
	}

	if err := o.meta.SaveClone(ctx, reg); err != nil {
		return store.CloneRegistration{}, err
	}

	logger.Info("Clone registered", logger.Fields{
		"username":   username,
		"visibility": visibility,
		"usage":      usage,
		"owner_id":   ownerID,
	})

	if err := o.Start(reg); err != nil {
		// Registration stands; the clone can be restarted on next boot.
		return reg, fmt.Errorf("clone registered but failed to start: %w", err)
	}
	return reg, nil
}

// Start launches the clone's dispatcher in its own goroutine. Starting an
// already-running clone is a no-op.
func (o *Orchestrator) Start(reg store.CloneRegistration) error {
	o.mu.Lock()
	if _, ok := o.running[reg.Token]; ok {
		o.mu.Unlock()
		return nil
	}
	o.running[reg.Token] = struct{}{}
	o.mu.Unlock()

	if o.runner == nil {
		o.finish(reg.Token)
		return fmt.Errorf("no clone runner configured")
	}

	metrics.ClonesRunning.Inc()
	go func() {
		defer func() {
			metrics.ClonesRunning.Dec()
			o.finish(reg.Token)
			if r := recover(); r != nil {
				logger.Error("Clone dispatcher panic recovered", logger.Fields{
					"username": reg.Username,
					"panic":    r,
				})
			}
		}()

		if err := o.runner(reg); err != nil {
			logger.Error("Clone dispatcher exited with error", logger.Fields{
				"username": reg.Username,
				"error":    err.Error(),
			})
		}
	}()

	return nil
}

// StartAll boots the dispatcher of every persisted registration. Individual
// failures are logged and skipped so one bad token cannot block the rest.
func (o *Orchestrator) StartAll(ctx context.Context) {
	for _, reg := range o.meta.ListClones(ctx) {
		if err := o.Start(reg); err != nil {
			logger.Error("Failed to start clone", logger.Fields{
				"username": reg.Username,
				"error":    err.Error(),
			})
		}
	}
}

// Clones lists all persisted registrations.
func (o *Orchestrator) Clones(ctx context.Context) []store.CloneRegistration {
	return o.meta.ListClones(ctx)
}

func (o *Orchestrator) finish(token string) {
	o.mu.Lock()
	delete(o.running, token)
	o.mu.Unlock()
}
