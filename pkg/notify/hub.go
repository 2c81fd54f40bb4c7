package notify

import (
	"sync"
)

const subscriberBuffer = 16

// ActionResync marks a change that stands in for a dropped backlog. It has no
// booking id, so every subscriber rechecks whatever it watches.
const ActionResync = "resync"

// Hub fans changes out to in-process subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Change]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Change]struct{})}
}

func (h *Hub) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Broadcast never blocks. When a subscriber's buffer is full its backlog is
// replaced by a single resync change, so no subscriber misses a change
// without being told to re-read.
func (h *Hub) Broadcast(change Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- change:
		default:
			coalesce(ch, change)
		}
	}
}

// coalesce empties ch and leaves one resync in it. Callers hold h.mu, so no
// other sender can refill ch in between.
func coalesce(ch chan Change, dropped Change) {
	for drained := false; !drained; {
		select {
		case <-ch:
		default:
			drained = true
		}
	}
	ch <- Change{Action: ActionResync, At: dropped.At}
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
