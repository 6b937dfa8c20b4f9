package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/everydev1618/gochat"
)

// DefaultIntentTemperature keeps label selection close to deterministic.
const DefaultIntentTemperature = 0.1

const intentPrompt = `Analyze the user's intent and choose the single best match from the candidate labels.

Candidate labels: %s

User input: %q

Rules:
1. Answer with exactly one candidate label, spelled as listed.
2. If nothing matches, answer "unknown".
3. Answer with the label only. No explanation, punctuation or whitespace.

Examples:
"I'd like to book a doctor" -> register
"what's the weather today" -> unknown`

// IntentClassifier classifies utterances with an LLM.
type IntentClassifier struct {
	LLM         LLM
	Temperature float64
}

// NewIntentClassifier creates a classifier using the default temperature.
func NewIntentClassifier(l LLM) *IntentClassifier {
	return &IntentClassifier{LLM: l, Temperature: DefaultIntentTemperature}
}

// Classify returns one of labels, or chat.UnknownLabel when the model's
// answer is not in the label set.
func (c *IntentClassifier) Classify(ctx context.Context, utterance string, labels []string) (string, error) {
	if c.LLM == nil {
		return chat.UnknownLabel, chat.ErrNotConfigured
	}
	if len(labels) == 0 {
		return chat.UnknownLabel, nil
	}

	resp, err := c.LLM.Generate(ctx, Request{
		Messages: []Message{{
			Role:    RoleUser,
			Content: fmt.Sprintf(intentPrompt, strings.Join(labels, ", "), utterance),
		}},
		Temperature: Float(c.Temperature),
		MaxTokens:   32,
	})
	if err != nil {
		return chat.UnknownLabel, fmt.Errorf("classify intent: %w", err)
	}

	return matchLabel(resp.Content, labels), nil
}

func matchLabel(answer string, labels []string) string {
	answer = strings.Trim(strings.TrimSpace(answer), "\"'`.")
	answer = strings.TrimSpace(answer)
	for _, l := range labels {
		if answer == l {
			return l
		}
	}
	return chat.UnknownLabel
}
