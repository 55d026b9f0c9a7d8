// Package bus is the in-process pub/sub channel between the poller,
// the daemon state machine, and the WebSocket broadcast layer.
package bus

import (
	"strings"
	"sync"
	"time"
)

// Event is a domain event: a chat.db change notification or a daemon
// status transition.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Subscription receives events whose Kind starts with the subscribed
// namespace prefix. Close it when done.
type Subscription struct {
	C         <-chan Event
	ch        chan Event
	namespace string
	cancel    func()
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.cancel()
}

// Bus fans events out to subscribers. Delivery is non-blocking: a
// subscriber with a full buffer misses the event, which is acceptable
// because a notification only ever means "re-query fresh state".
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*Subscription
	next int
}

func New() *Bus {
	return &Bus{subs: make(map[int]*Subscription)}
}

// Publish delivers evt to every subscription whose namespace prefixes
// evt.Kind.
func (b *Bus) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !strings.HasPrefix(evt.Kind, sub.namespace) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// Subscribe registers a buffered subscription for a namespace prefix.
func (b *Bus) Subscribe(namespace string, bufSize int) *Subscription {
	ch := make(chan Event, bufSize)
	sub := &Subscription{C: ch, ch: ch, namespace: namespace}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	sub.cancel = func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
	return sub
}
