package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Default OpenAI configuration values
const (
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOpenAITimeout = 30 * time.Second
)

// OpenAILLM is an LLM implementation using an OpenAI-compatible chat
// completions endpoint.
type OpenAILLM struct {
	client openai.Client
	model  string
}

// OpenAIConfig configures the OpenAI client.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	HTTPClient *http.Client
}

// NewOpenAI creates a new OpenAI-compatible client. An empty APIKey falls
// back to OPENAI_API_KEY.
func NewOpenAI(cfg OpenAIConfig) *OpenAILLM {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultOpenAITimeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAILLM{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Generate sends a request and returns the complete response.
func (o *OpenAILLM) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: o.buildMessages(req),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: no choices returned")
	}

	choice := completion.Choices[0]
	resp := &Response{
		Content:      choice.Message.Content,
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
		LatencyMs:    time.Since(start).Milliseconds(),
	}

	switch choice.FinishReason {
	case "stop":
		resp.StopReason = StopReasonEnd
	case "length":
		resp.StopReason = StopReasonLength
	case "content_filter":
		resp.StopReason = StopReasonFiltered
	}

	return resp, nil
}

func (o *OpenAILLM) buildMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}
