package chat

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrStepNotFound is returned when the engine is asked to run a step the script does not define.
	ErrStepNotFound = errors.New("step not found")

	// ErrInputClosed signals the input side of a conversation has ended.
	ErrInputClosed = errors.New("input closed")

	// ErrInputTimeout signals no input arrived before the idle deadline.
	ErrInputTimeout = errors.New("input timed out")

	// ErrNoUserInput is reported when an AI reply is requested before the user said anything.
	ErrNoUserInput = errors.New("no user input to reply to")

	// ErrNotConfigured is reported when an action needs a collaborator that was not supplied.
	ErrNotConfigured = errors.New("collaborator not configured")

	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed is returned when talking to a session that already ended.
	ErrSessionClosed = errors.New("session closed")
)

// ActionError wraps a failure raised while executing a single action.
// The engine recovers from it by transferring to the fallback step.
type ActionError struct {
	Step   string
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("step %s: action %s: %v", e.Step, e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// CollaboratorError wraps a failure of an external collaborator
// (classifier, reply generator, store). These degrade, they never halt a session.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
