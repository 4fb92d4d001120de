package session

import (
	"sync"
	"time"
)

// Awaiting enumerates the multi-step conversation states a user can be in.
type Awaiting int

const (
	AwaitingNothing Awaiting = iota
	AwaitingCloneVisibility
	AwaitingCloneUsage
	AwaitingCloneToken
	AwaitingBatchName
	AwaitingBatchFiles
	AwaitingCaption
	AwaitingButtons
	AwaitingWelcome
	AwaitingGroupLink
	AwaitingShortenerKey
	AwaitingChannelAdd
	AwaitingChannelRemove
)

// State is the per-user finite-state record for pending admin input.
// Payload carries step data (batch id being built, chosen clone visibility).
type State struct {
	Awaiting Awaiting
	Payload  map[string]string
	expires  time.Time
}

// Manager keeps conversation state and short-lived verification grants keyed
// by user id. Entries expire; a background sweeper reclaims them.
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*State
	grants map[int64]time.Time

	ttl  time.Duration
	done chan struct{}
}

const (
	defaultStateTTL = 15 * time.Minute
	sweepInterval   = time.Minute
)

func NewManager() *Manager {
	return NewManagerWithTTL(defaultStateTTL)
}

func NewManagerWithTTL(ttl time.Duration) *Manager {
	m := &Manager{
		states: make(map[int64]*State),
		grants: make(map[int64]time.Time),
		ttl:    ttl,
		done:   make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *Manager) Close() {
	close(m.done)
}

// Begin puts the user into a conversation state, replacing any previous one.
func (m *Manager) Begin(uid int64, a Awaiting) {
	m.BeginWithPayload(uid, a, nil)
}

func (m *Manager) BeginWithPayload(uid int64, a Awaiting, payload map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if payload == nil {
		payload = make(map[string]string)
	}
	m.states[uid] = &State{
		Awaiting: a,
		Payload:  payload,
		expires:  time.Now().Add(m.ttl),
	}
}

// Advance keeps the payload but moves the user to the next state.
func (m *Manager) Advance(uid int64, a Awaiting) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[uid]; ok {
		st.Awaiting = a
		st.expires = time.Now().Add(m.ttl)
	}
}

// Current returns the user's live state, or AwaitingNothing when expired.
func (m *Manager) Current(uid int64) *State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[uid]
	if !ok || time.Now().After(st.expires) {
		return &State{Awaiting: AwaitingNothing, Payload: map[string]string{}}
	}
	return st
}

// Clear ends the user's conversation state.
func (m *Manager) Clear(uid int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, uid)
}

// Grant records a verification grant; while it lasts the user's links are
// not run through the shortener.
func (m *Manager) Grant(uid int64, validity time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants[uid] = time.Now().Add(validity)
}

// HasGrant reports whether the user holds an unexpired verification grant.
func (m *Manager) HasGrant(uid int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	until, ok := m.grants[uid]
	return ok && time.Now().Before(until)
}

func (m *Manager) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for uid, st := range m.states {
				if now.After(st.expires) {
					delete(m.states, uid)
				}
			}
			for uid, until := range m.grants {
				if now.After(until) {
					delete(m.grants, uid)
				}
			}
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}
