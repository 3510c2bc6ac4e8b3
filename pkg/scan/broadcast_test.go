package scan

import (
	"testing"
	"time"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, ch <-chan Event, n int) []Event {
	t.Helper()
	events := make([]Event, 0, n)
	for len(events) < n {
		select {
		case ev := <-ch:
			events = append(events, ev)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d of %d events", len(events), n)
		}
	}
	return events
}

func TestBroadcastDeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcastPublisher()
	key := types.PageKey{TabID: 3, URL: "https://example.com/"}

	ch1, cancel1 := b.Subscribe()
	defer cancel1()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()

	b.PublishStatus(key, types.StatusScanning)
	b.PublishCount(key, 7)

	for _, ch := range []<-chan Event{ch1, ch2} {
		events := collect(t, ch, 2)
		assert.Equal(t, EventStatus, events[0].Kind)
		assert.Equal(t, types.StatusScanning, events[0].Status)
		assert.Equal(t, EventCount, events[1].Kind)
		assert.Equal(t, 7, events[1].Count)
		assert.Equal(t, key.String(), events[1].Key)
	}
}

func TestBroadcastCancelStopsDelivery(t *testing.T) {
	b := NewBroadcastPublisher()
	key := types.PageKey{TabID: types.NoTab, URL: "https://example.com/"}

	ch, cancel := b.Subscribe()
	cancel()
	cancel() // second call is a no-op

	b.PublishCount(key, 1)

	_, open := <-ch
	assert.False(t, open)
}

func TestBroadcastSlowSubscriberDropsEvents(t *testing.T) {
	b := NewBroadcastPublisher()
	key := types.PageKey{TabID: types.NoTab, URL: "https://example.com/"}

	ch, cancel := b.Subscribe()
	defer cancel()

	// Overflow the channel buffer; publishing must not block.
	for i := 0; i < 100; i++ {
		b.PublishCount(key, i)
	}

	events := collect(t, ch, cap(ch))
	require.Len(t, events, cap(ch))
	assert.Equal(t, 0, events[0].Count)
}

func TestPublishersForwardsToAll(t *testing.T) {
	key := types.PageKey{TabID: 1, URL: "https://example.com/"}
	a := newRecordPublisher()
	b := newRecordPublisher()

	p := Publishers(a, b)
	p.PublishStatus(key, types.StatusComplete)
	p.PublishCount(key, 4)

	for _, r := range []*recordPublisher{a, b} {
		assert.Equal(t, []types.ScanStatus{types.StatusComplete}, r.statusesFor(key))
		assert.Equal(t, []int{4}, r.countsFor(key))
	}
}
