package serve

import (
	"context"
	"sync"
	"time"

	"github.com/everydev1618/gochat"
)

// turn is the bot output produced between two reads of user input.
type turn struct {
	said  []string
	ended bool
}

// queueChannel connects an engine goroutine to HTTP callers. Each ReadLine
// hands the output collected since the previous read to whoever is waiting
// in Send, then blocks for the next line.
type queueChannel struct {
	in   chan string
	out  chan turn
	idle time.Duration

	// waiting runs on the engine goroutine each time it stops for input.
	waiting func()

	mu      sync.Mutex
	pending []string
}

func newQueueChannel(idle time.Duration) *queueChannel {
	return &queueChannel{
		in:   make(chan string),
		out:  make(chan turn, 1),
		idle: idle,
	}
}

func (c *queueChannel) ReadLine(ctx context.Context) (string, error) {
	if c.waiting != nil {
		c.waiting()
	}
	select {
	case c.out <- turn{said: c.drain()}:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	var timeout <-chan time.Time
	if c.idle > 0 {
		timer := time.NewTimer(c.idle)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case line := <-c.in:
		return line, nil
	case <-timeout:
		return "", chat.ErrInputTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *queueChannel) Write(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, text)
	return nil
}

// finish publishes the final output. Nobody may be listening any more, so it
// never blocks.
func (c *queueChannel) finish() {
	select {
	case c.out <- turn{said: c.drain(), ended: true}:
	default:
	}
}

func (c *queueChannel) drain() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	said := c.pending
	c.pending = nil
	return said
}
