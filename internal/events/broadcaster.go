package events

import (
	"sync"
	"time"
)

// Subscriber represents a channel that receives events.
type Subscriber chan Event

// Broadcaster fans status events out to WebSocket subscribers and keeps a
// small ring of recent events so a client that connects mid-run still sees
// the progress so far.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]struct{}
	recent      []Event
	recentCap   int
}

func NewBroadcaster(recentCap int) *Broadcaster {
	if recentCap <= 0 {
		recentCap = 64
	}
	return &Broadcaster{
		subscribers: make(map[Subscriber]struct{}),
		recentCap:   recentCap,
	}
}

// Subscribe adds a new subscriber and returns its channel. The channel is
// buffered so Publish never blocks on a slow client.
func (b *Broadcaster) Subscribe() Subscriber {
	ch := make(Subscriber, 64)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	if _, ok := b.subscribers[sub]; ok {
		delete(b.subscribers, sub)
		close(sub)
	}
	b.mu.Unlock()
}

// Publish stamps the event and sends it to all subscribers. If a subscriber's
// buffer is full the event is dropped for that subscriber.
func (b *Broadcaster) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.Lock()
	b.recent = append(b.recent, e)
	if len(b.recent) > b.recentCap {
		b.recent = b.recent[len(b.recent)-b.recentCap:]
	}
	for sub := range b.subscribers {
		select {
		case sub <- e:
		default:
		}
	}
	b.mu.Unlock()
}

// Recent returns a copy of the buffered events, oldest first.
func (b *Broadcaster) Recent() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Event, len(b.recent))
	copy(out, b.recent)
	return out
}

// Reset drops the recent-event buffer. Called at the start of a new run so
// replayed history never mixes two runs.
func (b *Broadcaster) Reset() {
	b.mu.Lock()
	b.recent = nil
	b.mu.Unlock()
}

// SubscriberCount returns the current number of subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
