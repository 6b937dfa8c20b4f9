package serve

import "time"

// Store persists sessions and their transcripts for historical queries.
type Store interface {
	// Init creates tables if they don't exist.
	Init() error

	// Close closes the store.
	Close() error

	// InsertSession records a new session.
	InsertSession(s SessionRecord) error

	// EndSession marks a session finished.
	EndSession(id string, endedAt time.Time, errMsg string) error

	// ListSessions returns recent sessions, newest first.
	ListSessions(limit int) ([]SessionRecord, error)

	// InsertMessage appends a transcript entry.
	InsertMessage(m TranscriptMessage) error

	// ListMessages returns a session's transcript, oldest first.
	ListMessages(sessionID string) ([]TranscriptMessage, error)

	// InsertEvent records an engine event.
	InsertEvent(e StoreEvent) error

	// ListEvents returns recent events, newest first.
	ListEvents(limit int) ([]StoreEvent, error)
}

// SessionRecord is a persisted session.
type SessionRecord struct {
	ID        string     `json:"id"`
	Module    string     `json:"module"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// TranscriptMessage is one persisted utterance.
type TranscriptMessage struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Step      string    `json:"step"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// StoreEvent is a persisted engine event.
type StoreEvent struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Step      string    `json:"step"`
	Action    string    `json:"action,omitempty"`
	Target    string    `json:"target,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
