package serve

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/everydev1618/gochat"
)

const (
	maxSubscribers   = 50
	subscriberBuffer = 64
)

// ErrTooManySubscribers is returned when the broker is at capacity.
var ErrTooManySubscribers = errors.New("too many subscribers")

// EventFilter selects the events a subscriber receives. Zero fields match
// everything.
type EventFilter struct {
	SessionID string
	Types     []chat.EventType
}

func (f EventFilter) match(ev chat.Event) bool {
	if f.SessionID != "" && ev.SessionID != f.SessionID {
		return false
	}
	return len(f.Types) == 0 || slices.Contains(f.Types, ev.Type)
}

// Subscription is one live event feed.
type Subscription struct {
	Events <-chan chat.Event

	filter  EventFilter
	ch      chan chat.Event
	dropped atomic.Int64
}

// Dropped reports how many events were discarded because the subscriber
// fell behind.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

// EventBroker fans engine events out to subscribers. A subscription scoped
// to one session is closed after that session's session_ended event.
type EventBroker struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewEventBroker creates an empty broker.
func NewEventBroker() *EventBroker {
	return &EventBroker{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a feed for events matching filter.
func (b *EventBroker) Subscribe(filter EventFilter) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.subs) >= maxSubscribers {
		return nil, ErrTooManySubscribers
	}
	ch := make(chan chat.Event, subscriberBuffer)
	sub := &Subscription{Events: ch, filter: filter, ch: ch}
	b.subs[sub] = struct{}{}
	return sub, nil
}

// Unsubscribe removes sub. It is safe to call more than once.
func (b *EventBroker) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remove(sub)
}

func (b *EventBroker) remove(sub *Subscription) {
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Len returns the number of live subscriptions.
func (b *EventBroker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription.
func (b *EventBroker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		b.remove(sub)
	}
}

// Publish delivers ev to matching subscribers without blocking; a full
// subscriber misses the event.
func (b *EventBroker) Publish(ev chat.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		if !sub.filter.match(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			sub.dropped.Add(1)
		}
		if sub.filter.SessionID != "" && ev.Type == chat.EventSessionEnded {
			b.remove(sub)
		}
	}
}
