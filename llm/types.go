package llm

import "context"

// LLM is the interface for language model backends.
type LLM interface {
	// Generate sends a request and returns the complete response.
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Request is a single completion request.
type Request struct {
	// System is the system prompt. Optional.
	System string

	// Messages is the conversation, oldest first.
	Messages []Message

	// Temperature overrides the backend default when non-nil.
	Temperature *float64

	// MaxTokens caps the response length. Zero uses the backend default.
	MaxTokens int
}

// Message represents a conversation message.
type Message struct {
	Role    Role
	Content string
}

// Role identifies the message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response is the response from an LLM call.
type Response struct {
	// Content is the text response
	Content string

	// Token counts
	InputTokens  int
	OutputTokens int

	// Latency in milliseconds
	LatencyMs int64

	// StopReason indicates why generation stopped
	StopReason StopReason
}

// StopReason indicates why the LLM stopped generating.
type StopReason string

const (
	StopReasonEnd      StopReason = "end_turn"
	StopReasonLength   StopReason = "max_tokens"
	StopReasonStop     StopReason = "stop_sequence"
	StopReasonFiltered StopReason = "content_filter"
)

// Float returns a pointer to f, for Request.Temperature.
func Float(f float64) *float64 {
	return &f
}

// DefaultMaxTokens is used when a request does not set MaxTokens.
const DefaultMaxTokens = 1024
