package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/everydev1618/gochat"
	"github.com/everydev1618/gochat/dsl"
)

// DefaultReplyTemperature is the sampling temperature for free-form replies.
const DefaultReplyTemperature = 0.7

// DefaultPrompts are the built-in system prompts, keyed by module name.
// The "default" entry is used for modules without a prompt of their own.
var DefaultPrompts = map[string]string{
	"medical": `You are the customer service assistant of a smart hospital. Provide professional, friendly health consultation.

Guidelines:
1. Be accurate: give correct medical information and health advice.
2. Be warm and considerate.
3. Stay within bounds: offer health advice and general medical knowledge only. Never diagnose or prescribe.
4. For specific symptoms, recommend seeing a doctor.`,

	"ecommerce": `You are the customer service assistant of an online store. Provide enthusiastic, professional shopping support.

Guidelines:
1. Describe products accurately.
2. Help with orders, complaints and refunds.
3. Recommend related products where it helps the customer.
4. Handle feedback honestly and never overstate claims.`,

	"default": `You are a professional customer service assistant. Use the conversation context to give accurate, friendly help.

Guidelines:
1. Understand what the user actually needs.
2. Answer from what you know and say so when you don't.
3. Stay patient and polite.`,
}

// ReplyGenerator produces free-form replies with an LLM.
type ReplyGenerator struct {
	LLM         LLM
	Prompts     map[string]string
	Temperature float64
}

// NewReplyGenerator creates a reply generator. Entries in prompts override
// DefaultPrompts for the same module.
func NewReplyGenerator(l LLM, prompts map[string]string) *ReplyGenerator {
	merged := make(map[string]string, len(DefaultPrompts)+len(prompts))
	for k, v := range DefaultPrompts {
		merged[k] = v
	}
	for k, v := range prompts {
		merged[strings.ToLower(k)] = v
	}
	return &ReplyGenerator{LLM: l, Prompts: merged, Temperature: DefaultReplyTemperature}
}

// Reply answers utterance given the conversation so far.
func (g *ReplyGenerator) Reply(ctx context.Context, utterance string, rc chat.ReplyContext) (string, error) {
	if g.LLM == nil {
		return "", chat.ErrNotConfigured
	}

	resp, err := g.LLM.Generate(ctx, Request{
		System:      g.systemPrompt(rc),
		Messages:    buildTurns(utterance, rc.Transcript),
		Temperature: Float(g.Temperature),
		MaxTokens:   DefaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	return strings.TrimSpace(resp.Content), nil
}

func (g *ReplyGenerator) systemPrompt(rc chat.ReplyContext) string {
	prompt, ok := g.Prompts[strings.ToLower(rc.Module)]
	if !ok {
		prompt = g.Prompts["default"]
	}
	if len(rc.Variables) == 0 {
		return prompt
	}

	names := make([]string, 0, len(rc.Variables))
	for name := range rc.Variables {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n\nKnown facts about this conversation:\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "- %s: %s\n", name, dsl.FormatValue(rc.Variables[name]))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// buildTurns converts the transcript into chat turns ending with utterance.
// The transcript usually already ends with utterance; it is not repeated.
func buildTurns(utterance string, transcript []chat.Utterance) []Message {
	msgs := make([]Message, 0, len(transcript)+1)
	for _, u := range transcript {
		role := RoleUser
		if u.Role == chat.RoleAssistant {
			role = RoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: u.Text})
	}

	// Anthropic rejects a conversation that opens with an assistant turn.
	for len(msgs) > 0 && msgs[0].Role == RoleAssistant {
		msgs = msgs[1:]
	}

	if n := len(msgs); n == 0 || msgs[n-1].Role != RoleUser || msgs[n-1].Content != utterance {
		msgs = append(msgs, Message{Role: RoleUser, Content: utterance})
	}
	return msgs
}
