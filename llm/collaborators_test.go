package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everydev1618/gochat"
)

type fakeLLM struct {
	reply string
	err   error
	reqs  []Request
}

func (f *fakeLLM) Generate(ctx context.Context, req Request) (*Response, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Content: f.reply}, nil
}

func TestIntentClassifier(t *testing.T) {
	labels := []string{"register", "checkup"}

	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"exact", "register", "register"},
		{"quoted", " \"checkup\"\n", "checkup"},
		{"not a label", "weather", chat.UnknownLabel},
		{"unknown", "unknown", chat.UnknownLabel},
		{"case differs", "Register", chat.UnknownLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeLLM{reply: tt.reply}
			got, err := NewIntentClassifier(f).Classify(context.Background(), "I want to see a doctor", labels)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			require.Len(t, f.reqs, 1)
			assert.InDelta(t, DefaultIntentTemperature, *f.reqs[0].Temperature, 1e-9)
			assert.Contains(t, f.reqs[0].Messages[0].Content, "register, checkup")
		})
	}
}

func TestIntentClassifierError(t *testing.T) {
	f := &fakeLLM{err: errors.New("down")}
	got, err := NewIntentClassifier(f).Classify(context.Background(), "hi", []string{"a"})
	assert.Error(t, err)
	assert.Equal(t, chat.UnknownLabel, got)
}

func TestIntentClassifierNoLabels(t *testing.T) {
	f := &fakeLLM{reply: "a"}
	got, err := NewIntentClassifier(f).Classify(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, chat.UnknownLabel, got)
	assert.Empty(t, f.reqs)
}

func TestReplyGeneratorPromptAndTurns(t *testing.T) {
	f := &fakeLLM{reply: "  Please drink water.  "}
	g := NewReplyGenerator(f, nil)

	rc := chat.ReplyContext{
		Module:      "Medical",
		CurrentStep: "regAI",
		Transcript: []chat.Utterance{
			{Role: chat.RoleAssistant, Text: "Hello"},
			{Role: chat.RoleUser, Text: "ai"},
			{Role: chat.RoleAssistant, Text: "Ask me anything"},
			{Role: chat.RoleUser, Text: "I have a cold"},
		},
		Variables: map[string]any{"name": "Li", "age": int64(30)},
	}

	got, err := g.Reply(context.Background(), "I have a cold", rc)
	require.NoError(t, err)
	assert.Equal(t, "Please drink water.", got)

	require.Len(t, f.reqs, 1)
	req := f.reqs[0]
	assert.Contains(t, req.System, "smart hospital")
	assert.Contains(t, req.System, "- age: 30\n- name: Li")
	assert.InDelta(t, DefaultReplyTemperature, *req.Temperature, 1e-9)

	require.Len(t, req.Messages, 3)
	assert.Equal(t, Message{Role: RoleUser, Content: "ai"}, req.Messages[0])
	assert.Equal(t, Message{Role: RoleUser, Content: "I have a cold"}, req.Messages[2])
}

func TestReplyGeneratorPromptOverride(t *testing.T) {
	f := &fakeLLM{reply: "ok"}
	g := NewReplyGenerator(f, map[string]string{"Bank": "You are a bank teller."})

	_, err := g.Reply(context.Background(), "balance?", chat.ReplyContext{Module: "bank"})
	require.NoError(t, err)
	assert.Equal(t, "You are a bank teller.", f.reqs[0].System)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "balance?"}}, f.reqs[0].Messages)

	_, err = g.Reply(context.Background(), "hi", chat.ReplyContext{Module: "other"})
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompts["default"], f.reqs[1].System)
}

func TestReplyGeneratorError(t *testing.T) {
	g := NewReplyGenerator(&fakeLLM{err: errors.New("timeout")}, nil)
	_, err := g.Reply(context.Background(), "hi", chat.ReplyContext{})
	assert.Error(t, err)

	var nilGen ReplyGenerator
	_, err = nilGen.Reply(context.Background(), "hi", chat.ReplyContext{})
	assert.ErrorIs(t, err, chat.ErrNotConfigured)
}
