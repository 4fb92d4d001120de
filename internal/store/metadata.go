package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Telebots-07/Pk-s-bot/internal/consts"
)

// ErrDuplicateToken is returned when registering a clone token twice.
var ErrDuplicateToken = errors.New("clone token already registered")

// Metadata layers the file/batch/request/clone records on top of a
// SettingsStore, so every backend gets the same record semantics for free.
// Records live as insertion-ordered JSON arrays under well-known settings
// keys, so every mutation is a read-modify-write of a whole array. The
// backend serializes each Get and Set individually but not the pair, and
// dispatcher workers mutate concurrently; mu spans the full cycle so two
// simultaneous writers cannot erase each other's records.
type Metadata struct {
	settings SettingsStore
	mu       sync.Mutex
}

func NewMetadata(s SettingsStore) *Metadata {
	return &Metadata{settings: s}
}

// Settings exposes the underlying store for plain key-value access.
func (m *Metadata) Settings() SettingsStore {
	return m.settings
}

// --- file records ---

// StoreFile persists one record. Idempotent under retry: a record with an
// already-known id replaces the original in place instead of duplicating it.
func (m *Metadata) StoreFile(ctx context.Context, rec FileRecord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	var files []FileRecord
	m.settings.Get(ctx, consts.KeyFiles, &files)

	replaced := false
	for i := range files {
		if files[i].ID == rec.ID {
			files[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		files = append(files, rec)
	}

	return m.settings.Set(ctx, consts.KeyFiles, files)
}

func (m *Metadata) FindFileByID(ctx context.Context, id string) (FileRecord, bool) {
	var files []FileRecord
	if !m.settings.Get(ctx, consts.KeyFiles, &files) {
		return FileRecord{}, false
	}
	for _, f := range files {
		if f.ID == id {
			return f, true
		}
	}
	return FileRecord{}, false
}

// FindFilesBySubstring matches the query case-insensitively against stored
// filenames. Results keep insertion order; there is no ranking.
func (m *Metadata) FindFilesBySubstring(ctx context.Context, query string) []FileRecord {
	var files []FileRecord
	if !m.settings.Get(ctx, consts.KeyFiles, &files) {
		return nil
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var matches []FileRecord
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.FileName), query) {
			matches = append(matches, f)
		}
	}
	return matches
}

// FilesByUploader returns the uploader's most recent records, newest last,
// capped at limit.
func (m *Metadata) FilesByUploader(ctx context.Context, uploaderID int64, limit int) []FileRecord {
	var files []FileRecord
	if !m.settings.Get(ctx, consts.KeyFiles, &files) {
		return nil
	}

	var own []FileRecord
	for _, f := range files {
		if f.UploaderID == uploaderID {
			own = append(own, f)
		}
	}
	if limit > 0 && len(own) > limit {
		own = own[len(own)-limit:]
	}
	return own
}

// FileNames lists every stored filename in insertion order.
func (m *Metadata) FileNames(ctx context.Context) []string {
	var files []FileRecord
	if !m.settings.Get(ctx, consts.KeyFiles, &files) {
		return nil
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.FileName)
	}
	return names
}

// DeleteFile removes the record and returns it so the caller can attempt a
// best-effort delete of the backing channel message.
func (m *Metadata) DeleteFile(ctx context.Context, id string) (FileRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var files []FileRecord
	if !m.settings.Get(ctx, consts.KeyFiles, &files) {
		return FileRecord{}, false
	}

	for i, f := range files {
		if f.ID == id {
			files = append(files[:i], files[i+1:]...)
			if !m.settings.Set(ctx, consts.KeyFiles, files) {
				return FileRecord{}, false
			}
			return f, true
		}
	}
	return FileRecord{}, false
}

// --- batches ---

func (m *Metadata) SaveBatch(ctx context.Context, b Batch) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveBatch(ctx, b)
}

// saveBatch upserts without taking mu; callers hold it.
func (m *Metadata) saveBatch(ctx context.Context, b Batch) bool {
	var batches []Batch
	m.settings.Get(ctx, consts.KeyBatches, &batches)

	replaced := false
	for i := range batches {
		if batches[i].ID == b.ID {
			batches[i] = b
			replaced = true
			break
		}
	}
	if !replaced {
		batches = append(batches, b)
	}

	return m.settings.Set(ctx, consts.KeyBatches, batches)
}

func (m *Metadata) FindBatch(ctx context.Context, id string) (Batch, bool) {
	var batches []Batch
	if !m.settings.Get(ctx, consts.KeyBatches, &batches) {
		return Batch{}, false
	}
	for _, b := range batches {
		if b.ID == id {
			return b, true
		}
	}
	return Batch{}, false
}

// AppendToBatch grows a batch while it is still being built. Appending to a
// finalized batch is refused.
func (m *Metadata) AppendToBatch(ctx context.Context, batchID, fileID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.FindBatch(ctx, batchID)
	if !ok || b.Final {
		return false
	}
	b.FileIDs = append(b.FileIDs, fileID)
	return m.saveBatch(ctx, b)
}

// FinalizeBatch marks the batch complete; its file list no longer grows.
func (m *Metadata) FinalizeBatch(ctx context.Context, batchID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.FindBatch(ctx, batchID)
	if !ok {
		return false
	}
	b.Final = true
	return m.saveBatch(ctx, b)
}

// --- requests ---

func (m *Metadata) SaveRequest(ctx context.Context, r Request) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveRequest(ctx, r)
}

// saveRequest upserts without taking mu; callers hold it.
func (m *Metadata) saveRequest(ctx context.Context, r Request) bool {
	var requests []Request
	m.settings.Get(ctx, consts.KeyRequests, &requests)

	replaced := false
	for i := range requests {
		if requests[i].ID == r.ID {
			requests[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		requests = append(requests, r)
	}

	return m.settings.Set(ctx, consts.KeyRequests, requests)
}

func (m *Metadata) FindRequest(ctx context.Context, id string) (Request, bool) {
	var requests []Request
	if !m.settings.Get(ctx, consts.KeyRequests, &requests) {
		return Request{}, false
	}
	for _, r := range requests {
		if r.ID == id {
			return r, true
		}
	}
	return Request{}, false
}

// ResolveRequest moves a pending request to a terminal status. Once resolved
// a request never transitions again; the stored request is returned either
// way so callers can tell a repeat click from a real resolution.
func (m *Metadata) ResolveRequest(ctx context.Context, id, status string) (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.FindRequest(ctx, id)
	if !ok {
		return Request{}, false
	}
	if r.Resolved() {
		return r, false
	}
	r.Status = status
	if !m.saveRequest(ctx, r) {
		return r, false
	}
	return r, true
}

// --- clone registrations ---

// SaveClone registers a cloned bot. Tokens are unique across registrations.
func (m *Metadata) SaveClone(ctx context.Context, reg CloneRegistration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var clones []CloneRegistration
	m.settings.Get(ctx, consts.KeyClonedBots, &clones)

	for _, c := range clones {
		if c.Token == reg.Token {
			return ErrDuplicateToken
		}
	}

	clones = append(clones, reg)
	if !m.settings.Set(ctx, consts.KeyClonedBots, clones) {
		return errors.New("failed to persist clone registration")
	}
	return nil
}

func (m *Metadata) ListClones(ctx context.Context) []CloneRegistration {
	var clones []CloneRegistration
	m.settings.Get(ctx, consts.KeyClonedBots, &clones)
	return clones
}

// --- known users (broadcast audience) ---

// RememberUser records a chat id so broadcasts can reach it later.
func (m *Metadata) RememberUser(ctx context.Context, uid int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var users []int64
	m.settings.Get(ctx, consts.KeyKnownUsers, &users)

	for _, u := range users {
		if u == uid {
			return
		}
	}
	users = append(users, uid)
	m.settings.Set(ctx, consts.KeyKnownUsers, users)
}

func (m *Metadata) KnownUsers(ctx context.Context) []int64 {
	var users []int64
	m.settings.Get(ctx, consts.KeyKnownUsers, &users)
	return users
}
