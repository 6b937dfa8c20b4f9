package chat

import "time"

// Event is emitted by a running conversation engine.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Module    string    `json:"module,omitempty"`
	Step      string    `json:"step,omitempty"`
	Action    string    `json:"action,omitempty"`
	Target    string    `json:"target,omitempty"`
	Text      string    `json:"text,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType identifies the kind of event.
type EventType string

const (
	EventStepEntered        EventType = "step_entered"
	EventBotSaid            EventType = "bot_said"
	EventUserSaid           EventType = "user_said"
	EventTransition         EventType = "transition"
	EventActionFailed       EventType = "action_failed"
	EventCollaboratorFailed EventType = "collaborator_failed"
	EventLockContended      EventType = "lock_contended"
	EventSessionEnded       EventType = "session_ended"
)

// Observer receives engine events. It is called synchronously from the
// engine goroutine and must not block.
type Observer func(Event)
