package store

import (
	"context"
	"time"

	"github.com/Telebots-07/Pk-s-bot/internal/logger"
	"github.com/Telebots-07/Pk-s-bot/internal/metrics"
)

// SettingsStore is the shared mutable key-value document every bot process
// reads and writes. Values are arbitrary JSON-serializable shapes keyed by
// name; writes are last-writer-wins with no versioning.
type SettingsStore interface {
	// Get unmarshals the value stored under key into out and reports whether
	// a value was found. Absent keys and backend failures both leave out
	// untouched and return false so callers degrade to their default.
	Get(ctx context.Context, key string, out interface{}) bool

	// Set persists value under key, overwriting any previous value. Backend
	// failures are logged and reported as false, never raised.
	Set(ctx context.Context, key string, value interface{}) bool
}

// Bounded retry applied to transient backend failures. Vars so tests can
// shrink the pause.
var (
	retryAttempts = 3
	retryBackoff  = 2 * time.Second
)

// withRetry runs fn up to retryAttempts times with a fixed pause between
// tries, giving up early if the context is cancelled.
func withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		logger.Warn("Store operation failed", logger.Fields{
			"op":      op,
			"attempt": attempt,
			"error":   err.Error(),
		})

		if attempt == retryAttempts {
			break
		}

		select {
		case <-time.After(retryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	metrics.StoreFailures.WithLabelValues(op).Inc()
	return err
}

// GetString reads a string setting, returning def when absent or on failure.
func GetString(ctx context.Context, s SettingsStore, key, def string) string {
	var v string
	if s.Get(ctx, key, &v) && v != "" {
		return v
	}
	return def
}

// GetStrings reads a string-list setting, returning def when absent.
func GetStrings(ctx context.Context, s SettingsStore, key string, def []string) []string {
	var v []string
	if s.Get(ctx, key, &v) {
		return v
	}
	return def
}

// GetInt64s reads an id-list setting, returning def when absent.
func GetInt64s(ctx context.Context, s SettingsStore, key string, def []int64) []int64 {
	var v []int64
	if s.Get(ctx, key, &v) {
		return v
	}
	return def
}
