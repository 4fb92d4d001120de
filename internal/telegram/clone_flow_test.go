package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Telebots-07/Pk-s-bot/internal/clone"
	"github.com/Telebots-07/Pk-s-bot/internal/consts"
	"github.com/Telebots-07/Pk-s-bot/internal/session"
	"github.com/Telebots-07/Pk-s-bot/internal/store"
)

type stubVerifier struct {
	username string
	err      error
}

func (s stubVerifier) Verify(context.Context, string) (string, error) {
	return s.username, s.err
}

func wireOrchestrator(b *Bot, v clone.Verifier) {
	b.SetOrchestrator(clone.NewOrchestrator(b.meta, v, func(store.CloneRegistration) error {
		return nil
	}))
}

func TestCloneFlow_EndToEnd(t *testing.T) {
	b, api := newTestBot(t, 1)
	wireOrchestrator(b, stubVerifier{username: "clonedbot"})

	require.NoError(t, b.handleCloneCallback(callbackFrom(1, 1, "clone_new"), "new"))
	require.Equal(t, session.AwaitingCloneVisibility, b.sessions.Current(1).Awaiting)

	require.NoError(t, b.handleCloneCallback(callbackFrom(1, 1, "clone_vis_private"), "vis_private"))
	require.Equal(t, session.AwaitingCloneUsage, b.sessions.Current(1).Awaiting)

	require.NoError(t, b.handleCloneCallback(callbackFrom(1, 1, "clone_use_filestore"), "use_filestore"))
	st := b.sessions.Current(1)
	require.Equal(t, session.AwaitingCloneToken, st.Awaiting)

	require.NoError(t, b.handleCloneToken(privateMessage(1, "1234567:AAEabc"), st))

	clones := b.meta.ListClones(context.Background())
	require.Len(t, clones, 1)
	assert.Equal(t, "clonedbot", clones[0].Username)
	assert.Equal(t, store.VisibilityPrivate, clones[0].Visibility)
	assert.Equal(t, store.UsageFileStore, clones[0].Usage)
	assert.Equal(t, int64(1), clones[0].OwnerID)

	assert.True(t, containsText(api.messagesTo(1), consts.MsgCloneStarted))
	assert.Equal(t, session.AwaitingNothing, b.sessions.Current(1).Awaiting)
}

func TestCloneToken_FailureClasses(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		verifier stubVerifier
		wantMsg  string
	}{
		{"bad format", "no-colon-here", stubVerifier{}, consts.MsgCloneBadFormat},
		{"revoked token", "1234567:AAEabc", stubVerifier{err: clone.ErrUnauthorized}, consts.MsgCloneBadToken},
		{"network failure", "1234567:AAEabc", stubVerifier{err: clone.ErrNetwork}, consts.MsgCloneNetFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, api := newTestBot(t, 1)
			wireOrchestrator(b, tt.verifier)

			b.sessions.BeginWithPayload(1, session.AwaitingCloneToken, map[string]string{
				"visibility": store.VisibilityPublic,
				"usage":      store.UsageGeneral,
			})
			require.NoError(t, b.handleCloneToken(privateMessage(1, tt.token), b.sessions.Current(1)))

			assert.True(t, containsText(api.messagesTo(1), tt.wantMsg))
			assert.Empty(t, b.meta.ListClones(context.Background()))
		})
	}
}

func TestCloneToken_DuplicateToken(t *testing.T) {
	b, api := newTestBot(t, 1)
	wireOrchestrator(b, stubVerifier{username: "clonedbot"})

	payload := map[string]string{"visibility": store.VisibilityPublic, "usage": store.UsageGeneral}
	b.sessions.BeginWithPayload(1, session.AwaitingCloneToken, payload)
	require.NoError(t, b.handleCloneToken(privateMessage(1, "1234567:AAEabc"), b.sessions.Current(1)))

	b.sessions.BeginWithPayload(1, session.AwaitingCloneToken, payload)
	require.NoError(t, b.handleCloneToken(privateMessage(1, "1234567:AAEabc"), b.sessions.Current(1)))

	assert.True(t, containsText(api.messagesTo(1), consts.MsgCloneDuplicate))
	assert.Len(t, b.meta.ListClones(context.Background()), 1)
}

func TestCloneCallback_NonAdminCannotCreate(t *testing.T) {
	b, _ := newTestBot(t, 1)
	wireOrchestrator(b, stubVerifier{username: "clonedbot"})

	require.NoError(t, b.handleCloneCallback(callbackFrom(99, 99, "clone_new"), "new"))
	assert.Equal(t, session.AwaitingNothing, b.sessions.Current(99).Awaiting)
}

func TestCloneCallback_SkippedStepIsRejected(t *testing.T) {
	b, _ := newTestBot(t, 1)
	wireOrchestrator(b, stubVerifier{username: "clonedbot"})

	// Visibility click without starting the flow.
	require.NoError(t, b.handleCloneCallback(callbackFrom(1, 1, "clone_vis_public"), "vis_public"))
	assert.Equal(t, session.AwaitingNothing, b.sessions.Current(1).Awaiting)
}

func TestCloneCallback_RequiresOrchestrator(t *testing.T) {
	b, _ := newTestBot(t, 1) // no orchestrator wired
	require.NoError(t, b.handleCloneCallback(callbackFrom(1, 1, "clone_new"), "new"))
	assert.Equal(t, session.AwaitingNothing, b.sessions.Current(1).Awaiting)
}
