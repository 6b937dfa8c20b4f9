package serve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everydev1618/gochat"
	"github.com/everydev1618/gochat/dsl"
)

const counterScript = `module "counter"

Step welcome
  Speak "Hi! Say add or name."
  Listen
  Case "add" -> goto add
  Case "name" -> goto askName
  Default -> goto fallback

Step add
  Lock "counter"
  Speak "Added."
  goto welcome

Step askName
  Speak "What is your name?"
  Listen assign name
  Speak "Nice to meet you, {name}."
  goto welcome

Step fallback
  Speak "Sorry?"
  goto welcome

Step goodbye
  Speak "Bye!"
  Exit
`

func newTestManager(t *testing.T, cfg ManagerConfig) *SessionManager {
	t.Helper()
	script, err := dsl.Parse(counterScript)
	require.NoError(t, err)

	m := NewSessionManager(cfg)
	m.SetScript(script)
	t.Cleanup(func() {
		for _, s := range m.List() {
			m.Close(s.ID)
		}
	})
	return m
}

func TestSessionConversation(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	ctx := context.Background()

	greeting, err := m.Create(ctx, "")
	require.NoError(t, err)
	assert.Len(t, greeting.SessionID, 8)
	assert.Equal(t, []string{"Hi! Say add or name."}, greeting.Said)
	assert.False(t, greeting.Ended)

	id := greeting.SessionID

	reply, err := m.Send(ctx, id, "name")
	require.NoError(t, err)
	assert.Equal(t, []string{"What is your name?"}, reply.Said)

	reply, err = m.Send(ctx, id, "Ada")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nice to meet you, Ada.", "Hi! Say add or name."}, reply.Said)

	reply, err = m.Send(ctx, id, "what?")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sorry?", "Hi! Say add or name."}, reply.Said)

	sess, err := m.Get(id)
	require.NoError(t, err)
	snap := sess.Snapshot()
	assert.Equal(t, "welcome", snap.CurrentStep)
	assert.Equal(t, "Ada", snap.Variables["name"])

	reply, err = m.Send(ctx, id, "exit")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bye!"}, reply.Said)
	assert.True(t, reply.Ended)

	_, err = m.Send(ctx, id, "hello?")
	assert.ErrorIs(t, err, chat.ErrSessionClosed)
}

func TestSessionsAreIsolated(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	ctx := context.Background()

	a, err := m.Create(ctx, "counter")
	require.NoError(t, err)
	b, err := m.Create(ctx, "counter")
	require.NoError(t, err)
	assert.NotEqual(t, a.SessionID, b.SessionID)

	_, err = m.Send(ctx, a.SessionID, "add")
	require.NoError(t, err)

	sa, _ := m.Get(a.SessionID)
	sb, _ := m.Get(b.SessionID)
	assert.Equal(t, []string{"counter"}, sa.Snapshot().Locks)
	assert.Empty(t, sb.Snapshot().Locks)
}

func TestSnapshotDuringIdleTimeout(t *testing.T) {
	m := newTestManager(t, ManagerConfig{IdleTimeout: 20 * time.Millisecond})

	greeting, err := m.Create(context.Background(), "")
	require.NoError(t, err)
	sess, err := m.Get(greeting.SessionID)
	require.NoError(t, err)

	// The engine runs goodbye on its own goroutine while we keep reading.
	deadline := time.Now().Add(5 * time.Second)
	for !sess.Ended() {
		require.True(t, time.Now().Before(deadline), "session did not time out")
		snap := sess.Snapshot()
		_ = snap.Variables["name"]
		_ = len(snap.Transcript)
	}

	snap := sess.Snapshot()
	assert.Equal(t, "goodbye", snap.CurrentStep)
	require.NotEmpty(t, snap.Transcript)
	assert.Equal(t, "Bye!", snap.Transcript[len(snap.Transcript)-1].Text)
}

func TestSessionUnknownModule(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	_, err := m.Create(context.Background(), "banking")
	assert.ErrorIs(t, err, chat.ErrNotConfigured)
}

func TestSessionNotFound(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	_, err := m.Send(context.Background(), "nope", "hi")
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)
	assert.ErrorIs(t, m.Close("nope"), chat.ErrSessionNotFound)
}

func TestSessionClose(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	reply, err := m.Create(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, m.Close(reply.SessionID))
	assert.Empty(t, m.List())

	_, err = m.Get(reply.SessionID)
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)
}

func TestSessionInputTimeoutEndsConversation(t *testing.T) {
	m := newTestManager(t, ManagerConfig{IdleTimeout: 50 * time.Millisecond})
	reply, err := m.Create(context.Background(), "")
	require.NoError(t, err)

	sess, err := m.Get(reply.SessionID)
	require.NoError(t, err)
	require.Eventually(t, sess.Ended, 2*time.Second, 10*time.Millisecond)

	stale := m.CleanupIdle(time.Hour)
	assert.Equal(t, []string{reply.SessionID}, stale)
	assert.Empty(t, m.List())
}

func TestCleanupIdleKeepsActiveSessions(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	reply, err := m.Create(context.Background(), "")
	require.NoError(t, err)

	assert.Empty(t, m.CleanupIdle(time.Hour))
	assert.Len(t, m.List(), 1)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, []string{reply.SessionID}, m.CleanupIdle(time.Millisecond))
}

func TestSetScriptKeepsRunningSessions(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	ctx := context.Background()

	old, err := m.Create(ctx, "")
	require.NoError(t, err)

	updated, err := dsl.Parse(`module "counter"
Step welcome
  Speak "Welcome back."
  Listen
  Default -> goto welcome
`)
	require.NoError(t, err)
	m.SetScript(updated)

	fresh, err := m.Create(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Welcome back."}, fresh.Said)

	reply, err := m.Send(ctx, old.SessionID, "add")
	require.NoError(t, err)
	assert.Equal(t, []string{"Added.", "Hi! Say add or name."}, reply.Said)
}

func TestObserverAndOnCreate(t *testing.T) {
	var created []string
	events := make(chan chat.Event, 64)
	m := newTestManager(t, ManagerConfig{
		OnCreate: func(s *Session) { created = append(created, s.ID) },
		Observer: func(ev chat.Event) { events <- ev },
	})

	reply, err := m.Create(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{reply.SessionID}, created)

	var saw bool
	for len(events) > 0 {
		ev := <-events
		assert.Equal(t, reply.SessionID, ev.SessionID)
		if ev.Type == chat.EventBotSaid {
			saw = true
		}
	}
	assert.True(t, saw)
}
