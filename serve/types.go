package serve

import "time"

// --- API Request/Response Types ---

// CreateSessionRequest starts a conversation.
type CreateSessionRequest struct {
	Module string `json:"module,omitempty"`
}

// SendMessageRequest delivers one utterance.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// SessionResponse is the API representation of a session.
type SessionResponse struct {
	ID          string    `json:"id"`
	Module      string    `json:"module"`
	CurrentStep string    `json:"current_step,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastActive  time.Time `json:"last_active"`
	Ended       bool      `json:"ended"`
}

// SessionDetailResponse includes the in-memory transcript and variables.
type SessionDetailResponse struct {
	SessionResponse
	Variables map[string]string `json:"variables,omitempty"`
	Locks     []string          `json:"locks,omitempty"`
}

// TranscriptResponse is a persisted session transcript.
type TranscriptResponse struct {
	SessionID string              `json:"session_id"`
	Messages  []TranscriptMessage `json:"messages"`
}

// StatsResponse contains aggregate service figures.
type StatsResponse struct {
	ActiveSessions int      `json:"active_sessions"`
	Modules        []string `json:"modules"`
	Uptime         string   `json:"uptime"`
}

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
