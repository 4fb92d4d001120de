package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManager_BeginAndCurrent(t *testing.T) {
	m := NewManager()
	defer m.Close()

	m.Begin(42, AwaitingBatchName)

	st := m.Current(42)
	assert.Equal(t, AwaitingBatchName, st.Awaiting)

	assert.Equal(t, AwaitingNothing, m.Current(99).Awaiting)
}

func TestManager_AdvanceKeepsPayload(t *testing.T) {
	m := NewManager()
	defer m.Close()

	m.BeginWithPayload(42, AwaitingCloneVisibility, map[string]string{"visibility": "private"})
	m.Advance(42, AwaitingCloneToken)

	st := m.Current(42)
	assert.Equal(t, AwaitingCloneToken, st.Awaiting)
	assert.Equal(t, "private", st.Payload["visibility"])
}

func TestManager_Clear(t *testing.T) {
	m := NewManager()
	defer m.Close()

	m.Begin(42, AwaitingWelcome)
	m.Clear(42)

	assert.Equal(t, AwaitingNothing, m.Current(42).Awaiting)
}

func TestManager_StateExpires(t *testing.T) {
	m := NewManagerWithTTL(10 * time.Millisecond)
	defer m.Close()

	m.Begin(42, AwaitingCaption)
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, AwaitingNothing, m.Current(42).Awaiting)
}

func TestManager_BeginReplacesPreviousState(t *testing.T) {
	m := NewManager()
	defer m.Close()

	m.BeginWithPayload(42, AwaitingBatchFiles, map[string]string{"batch_id": "b1"})
	m.Begin(42, AwaitingWelcome)

	st := m.Current(42)
	assert.Equal(t, AwaitingWelcome, st.Awaiting)
	assert.Empty(t, st.Payload)
}

func TestManager_Grants(t *testing.T) {
	m := NewManager()
	defer m.Close()

	assert.False(t, m.HasGrant(42))

	m.Grant(42, time.Hour)
	assert.True(t, m.HasGrant(42))
	assert.False(t, m.HasGrant(99))
}

func TestManager_GrantExpires(t *testing.T) {
	m := NewManager()
	defer m.Close()

	m.Grant(42, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	assert.False(t, m.HasGrant(42))
}
