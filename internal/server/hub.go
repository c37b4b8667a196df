package server

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/wesm/claudesessions/internal/watch"
)

const defaultSubscriberBuffer = 64

// Hub fans change events out to every connected subscriber.
// Delivery is at-most-once: a subscriber whose buffer is full
// misses the event, and nothing is replayed on reconnect.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]chan watch.Event
	buffer int
	closed bool
}

// NewHub returns a Hub whose subscribers each buffer up to
// buffer events.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[string]chan watch.Event),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. The channel is closed by
// Unsubscribe or Close. After Close it returns an already-closed
// channel.
func (h *Hub) Subscribe() (string, <-chan watch.Event) {
	id := uuid.NewString()
	ch := make(chan watch.Event, h.buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes the subscriber and closes its channel.
// Unknown ids are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev watch.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("events: subscriber %s full, dropping %s", id, ev.Kind)
		}
	}
}

// Close disconnects every subscriber. Later Subscribe calls get
// closed channels and Publish becomes a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
