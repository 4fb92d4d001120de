package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChannel simulates the database channel: one pinned message, optional
// injected failures.
type fakeChannel struct {
	mu        sync.Mutex
	messages  map[int]string
	pinnedID  int
	nextID    int
	sendErrs  int
	pinErrs   int
	readErrs  int
	sendCalls int
	readCalls int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{messages: map[int]string{}}
}

func (f *fakeChannel) SendText(_ context.Context, _ int64, text string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	if f.sendErrs > 0 {
		f.sendErrs--
		return 0, errors.New("telegram: flood wait")
	}
	f.nextID++
	f.messages[f.nextID] = text
	return f.nextID, nil
}

func (f *fakeChannel) PinMessage(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pinErrs > 0 {
		f.pinErrs--
		return errors.New("telegram: not enough rights")
	}
	f.pinnedID = messageID
	return nil
}

func (f *fakeChannel) PinnedText(_ context.Context, _ int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls++
	if f.readErrs > 0 {
		f.readErrs--
		return "", errors.New("telegram: bad gateway")
	}
	return f.messages[f.pinnedID], nil
}

func fastRetries(t *testing.T) {
	t.Helper()
	old := retryBackoff
	retryBackoff = 5 * time.Millisecond
	t.Cleanup(func() { retryBackoff = old })
}

func TestChannelStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ch := newFakeChannel()
	cs, err := NewChannelStore(ch, -1001)
	require.NoError(t, err)

	require.True(t, cs.Set(ctx, "welcome_message", "hey there"))
	require.True(t, cs.Set(ctx, "store_channels", []int64{-1002, -1003}))

	assert.Equal(t, "hey there", GetString(ctx, cs, "welcome_message", ""))
	assert.Equal(t, []int64{-1002, -1003}, GetInt64s(ctx, cs, "store_channels", nil))
}

func TestChannelStore_EmptyChannelReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	cs, err := NewChannelStore(newFakeChannel(), -1001)
	require.NoError(t, err)

	var v string
	assert.False(t, cs.Get(ctx, "anything", &v))
}

func TestChannelStore_UnrelatedPinnedMessageIsIgnored(t *testing.T) {
	ctx := context.Background()
	ch := newFakeChannel()
	ch.messages[1] = "pinned announcement, not settings"
	ch.pinnedID = 1
	ch.nextID = 1
	cs, err := NewChannelStore(ch, -1001)
	require.NoError(t, err)

	var v string
	assert.False(t, cs.Get(ctx, "welcome_message", &v))

	// A write replaces the pin with a proper settings document.
	require.True(t, cs.Set(ctx, "welcome_message", "hi"))
	assert.Equal(t, "hi", GetString(ctx, cs, "welcome_message", ""))
}

func TestChannelStore_RetriesTransientSendFailure(t *testing.T) {
	fastRetries(t)
	ctx := context.Background()
	ch := newFakeChannel()
	ch.sendErrs = 2
	cs, err := NewChannelStore(ch, -1001)
	require.NoError(t, err)

	require.True(t, cs.Set(ctx, "k", "v"))
	assert.Equal(t, 3, ch.sendCalls)
	assert.Equal(t, "v", GetString(ctx, cs, "k", ""))
}

func TestChannelStore_GivesUpAfterRetriesExhausted(t *testing.T) {
	fastRetries(t)
	ctx := context.Background()
	ch := newFakeChannel()
	ch.readErrs = retryAttempts
	cs, err := NewChannelStore(ch, -1001)
	require.NoError(t, err)

	// Get degrades to "absent"; Set reports failure. No panic either way.
	var v string
	assert.False(t, cs.Get(ctx, "k", &v))
	ch.readErrs = retryAttempts
	assert.False(t, cs.Set(ctx, "k", "v"))
}

func TestChannelStore_PinFailureFailsTheWrite(t *testing.T) {
	fastRetries(t)
	ctx := context.Background()
	ch := newFakeChannel()
	ch.pinErrs = retryAttempts
	cs, err := NewChannelStore(ch, -1001)
	require.NoError(t, err)

	assert.False(t, cs.Set(ctx, "k", "v"))
}

func TestChannelStore_ConcurrentWritersDoNotLoseKeys(t *testing.T) {
	ctx := context.Background()
	ch := newFakeChannel()
	cs, err := NewChannelStore(ch, -1001)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.True(t, cs.Set(ctx, fmt.Sprintf("key_%d", i), i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		var v int
		require.True(t, cs.Get(ctx, fmt.Sprintf("key_%d", i), &v))
		assert.Equal(t, i, v)
	}
}

func TestChannelStore_RequiresChannelID(t *testing.T) {
	_, err := NewChannelStore(newFakeChannel(), 0)
	assert.Error(t, err)
}
