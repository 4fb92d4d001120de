package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Telebots-07/Pk-s-bot/internal/logger"
)

// FileStore keeps the full settings document in a single on-disk JSON object.
// Writes are whole-file overwrites through a temp-file rename. The mutex only
// serializes writers inside this process; concurrent processes sharing the
// file are not coordinated (documented limitation of this backend).
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

var _ SettingsStore = (*FileStore)(nil)

func (f *FileStore) Get(ctx context.Context, key string, out interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		logger.Error("Failed to read settings file", logger.Fields{
			"path":  f.path,
			"key":   key,
			"error": err.Error(),
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

func (f *FileStore) Set(ctx context.Context, key string, value interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		logger.Error("Failed to read settings file before write", logger.Fields{
			"path":  f.path,
			"error": err.Error(),
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

	if err := f.save(doc); err != nil {
		logger.Error("Failed to write settings file", logger.Fields{
			"path":  f.path,
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	return true
}

func (f *FileStore) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("settings file is corrupt: %w", err)
	}
	return doc, nil
}

func (f *FileStore) save(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
