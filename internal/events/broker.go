// Package events fans out export lifecycle events to server-sent event
// subscribers.
package events

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

const subscriberBufSize = 64

const (
	KindExportCreated = "export.created"
	KindExportDeleted = "export.deleted"
	KindPrefsUpdated  = "prefs.updated"
)

// Event is one SSE message. Data is JSON text.
type Event struct {
	Kind string
	Data string
}

// Broker delivers published events to every subscriber.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]chan Event
	nextID      atomic.Int64
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[int64]chan Event),
	}
}

// Subscribe registers a subscriber. Its channel is buffered and events are
// dropped when it is full.
func (b *Broker) Subscribe() (int64, <-chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish encodes v as JSON and sends it to all subscribers without blocking.
// A nil Broker discards events.
func (b *Broker) Publish(kind string, v any) {
	if b == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("event encode failed", "kind", kind, "error", err)
		return
	}
	evt := Event{Kind: kind, Data: string(data)}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			slog.Debug("event dropped for slow subscriber", "kind", kind, "subscriber", id)
		}
	}
}

// ClientCount returns the number of active subscribers.
func (b *Broker) ClientCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
