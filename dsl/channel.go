package dsl

import (
	"context"
	"sync"

	chat "github.com/everydev1618/gochat"
)

// ScriptedChannel is a chat.Channel fed from a fixed list of lines. Once the
// lines run out ReadLine returns chat.ErrInputClosed. It is meant for tests
// and batch runs.
type ScriptedChannel struct {
	mu     sync.Mutex
	inputs []string
	said   []string
}

// NewScriptedChannel returns a channel that will answer with inputs in order.
func NewScriptedChannel(inputs ...string) *ScriptedChannel {
	return &ScriptedChannel{inputs: inputs}
}

func (c *ScriptedChannel) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inputs) == 0 {
		return "", chat.ErrInputClosed
	}
	line := c.inputs[0]
	c.inputs = c.inputs[1:]
	return line, nil
}

func (c *ScriptedChannel) Write(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.said = append(c.said, text)
	return nil
}

// Said returns everything written so far.
func (c *ScriptedChannel) Said() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.said...)
}
