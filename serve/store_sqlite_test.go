package serve

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreTranscripts(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Init())

	start := time.Now().Add(-time.Minute)
	require.NoError(t, s.InsertSession(SessionRecord{ID: "abc12345", Module: "medical", StartedAt: start}))
	require.NoError(t, s.InsertSession(SessionRecord{ID: "def67890", Module: "ecommerce", StartedAt: time.Now()}))

	require.NoError(t, s.InsertMessage(TranscriptMessage{SessionID: "abc12345", Role: "assistant", Step: "welcome", Content: "Hello"}))
	require.NoError(t, s.InsertMessage(TranscriptMessage{SessionID: "abc12345", Role: "user", Step: "welcome", Content: "register"}))
	require.NoError(t, s.InsertMessage(TranscriptMessage{SessionID: "def67890", Role: "assistant", Content: "Hi"}))

	msgs, err := s.ListMessages("abc12345")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hello", msgs[0].Content)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "welcome", msgs[1].Step)

	require.NoError(t, s.EndSession("abc12345", time.Now(), ""))

	sessions, err := s.ListSessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "def67890", sessions[0].ID)
	assert.Nil(t, sessions[0].EndedAt)
	assert.NotNil(t, sessions[1].EndedAt)

	require.NoError(t, s.InsertEvent(StoreEvent{Type: "action_failed", SessionID: "abc12345", Step: "buy", Action: "DBQuery", Error: "boom", Timestamp: time.Now()}))
	events, err := s.ListEvents(5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "DBQuery", events[0].Action)
}
