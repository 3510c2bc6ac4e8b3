package scan

import (
	"sync"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// EventStatus and EventCount discriminate Event payloads.
const (
	EventStatus = "status"
	EventCount  = "count"
)

// Event is one publisher update, ready for streaming to subscribers.
type Event struct {
	Kind   string           `json:"kind"`
	Key    string           `json:"key"`
	Status types.ScanStatus `json:"status,omitempty"`
	Count  int              `json:"count,omitempty"`
}

// BroadcastPublisher fans publisher updates out to subscribers over
// channels, for SSE streams and other live consumers. Sends never block:
// a subscriber that falls behind its channel buffer drops events.
type BroadcastPublisher struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroadcastPublisher creates a publisher with no subscribers.
func NewBroadcastPublisher() *BroadcastPublisher {
	return &BroadcastPublisher{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber. The returned cancel func removes
// the subscription and closes the channel; it is safe to call twice.
func (b *BroadcastPublisher) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (b *BroadcastPublisher) PublishStatus(key types.PageKey, status types.ScanStatus) {
	b.broadcast(Event{Kind: EventStatus, Key: key.String(), Status: status})
}

func (b *BroadcastPublisher) PublishCount(key types.PageKey, count int) {
	b.broadcast(Event{Kind: EventCount, Key: key.String(), Count: count})
}

func (b *BroadcastPublisher) broadcast(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Publishers combines several publishers into one that forwards every
// update to each of them in order.
func Publishers(ps ...Publisher) Publisher {
	return multiPublisher(ps)
}

type multiPublisher []Publisher

func (m multiPublisher) PublishStatus(key types.PageKey, status types.ScanStatus) {
	for _, p := range m {
		p.PublishStatus(key, status)
	}
}

func (m multiPublisher) PublishCount(key types.PageKey, count int) {
	for _, p := range m {
		p.PublishCount(key, count)
	}
}
