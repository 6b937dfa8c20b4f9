package chat

import (
	"context"
	"time"
)

// Role identifies who authored an utterance.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Utterance is one transcript entry.
type Utterance struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Channel is the input/output side of a conversation.
//
// ReadLine blocks until the user supplies one line. Implementations return
// ErrInputClosed or ErrInputTimeout when no more input will arrive.
type Channel interface {
	ReadLine(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
}

// UnknownLabel is what a classifier returns when no label fits.
const UnknownLabel = "unknown"

// Classifier maps an utterance onto one of a restricted set of labels.
type Classifier interface {
	Classify(ctx context.Context, utterance string, labels []string) (string, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, utterance string, labels []string) (string, error)

func (f ClassifierFunc) Classify(ctx context.Context, utterance string, labels []string) (string, error) {
	return f(ctx, utterance, labels)
}

// ReplyContext is the conversation state handed to a Replier.
type ReplyContext struct {
	Module      string
	CurrentStep string
	Transcript  []Utterance
	Variables   map[string]any
}

// Replier produces a free-form answer to the latest user utterance.
type Replier interface {
	Reply(ctx context.Context, utterance string, rc ReplyContext) (string, error)
}

// ReplierFunc adapts a function to the Replier interface.
type ReplierFunc func(ctx context.Context, utterance string, rc ReplyContext) (string, error)

func (f ReplierFunc) Reply(ctx context.Context, utterance string, rc ReplyContext) (string, error) {
	return f(ctx, utterance, rc)
}

// Row is a single result row, columns in select order.
type Row []any

// Store is the persistent store collaborator.
//
// QueryRow returns the first row of the result, or nil with a nil error when
// the query matched nothing. Statements are executed verbatim.
type Store interface {
	QueryRow(ctx context.Context, query string) (Row, error)
	Exec(ctx context.Context, stmt string) error
}
