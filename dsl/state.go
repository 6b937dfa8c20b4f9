package dsl

import (
	"maps"
	"time"

	chat "github.com/everydev1618/gochat"
)

// ExecutionState is the mutable state of one conversation. It belongs to a
// single engine and is never shared between sessions.
type ExecutionState struct {
	CurrentStep string
	Variables   map[string]any
	Locks       map[string]bool
	Transcript  []chat.Utterance
	Running     bool
}

// NewExecutionState returns a state positioned at the start step.
func NewExecutionState() *ExecutionState {
	return &ExecutionState{
		CurrentStep: StartStep,
		Variables:   make(map[string]any),
		Locks:       make(map[string]bool),
		Running:     true,
	}
}

// Lock marks resource as held and reports whether it already was.
func (s *ExecutionState) Lock(resource string) (alreadyHeld bool) {
	alreadyHeld = s.Locks[resource]
	s.Locks[resource] = true
	return alreadyHeld
}

// Unlock releases resource. Releasing an unheld resource is a no-op.
func (s *ExecutionState) Unlock(resource string) (wasHeld bool) {
	wasHeld = s.Locks[resource]
	delete(s.Locks, resource)
	return wasHeld
}

// Append records an utterance in the transcript.
func (s *ExecutionState) Append(role chat.Role, text string) {
	s.Transcript = append(s.Transcript, chat.Utterance{Role: role, Text: text, At: time.Now()})
}

// Last returns the most recent utterance.
func (s *ExecutionState) Last() (chat.Utterance, bool) {
	if len(s.Transcript) == 0 {
		return chat.Utterance{}, false
	}
	return s.Transcript[len(s.Transcript)-1], true
}

// Recent returns a copy of the last n transcript entries.
func (s *ExecutionState) Recent(n int) []chat.Utterance {
	start := 0
	if n > 0 && len(s.Transcript) > n {
		start = len(s.Transcript) - n
	}
	out := make([]chat.Utterance, len(s.Transcript)-start)
	copy(out, s.Transcript[start:])
	return out
}

// Snapshot returns a copy of the variable table.
func (s *ExecutionState) Snapshot() map[string]any {
	return maps.Clone(s.Variables)
}
