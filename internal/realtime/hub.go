package realtime

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Hub is an in-process publish/subscribe fan-out.  A subscriber whose
// buffer is full misses the change; publishers never block.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]*Subscription
	nextID  uint64
	buffer  int
	closed  bool
	dropped atomic.Uint64
}

// NewHub returns a hub whose subscribers buffer up to buffer changes.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[uint64]*Subscription), buffer: buffer}
}

// Subscription receives the changes matching any of its filters.
type Subscription struct {
	id      uint64
	hub     *Hub
	ch      chan Change
	mu      sync.RWMutex
	filters []Filter
	once    sync.Once
}

// Subscribe registers a subscription.  On a closed hub the returned
// subscription's channel is already closed.
func (h *Hub) Subscribe(filters ...Filter) *Subscription {
	s := &Subscription{hub: h, ch: make(chan Change, h.buffer), filters: append([]Filter(nil), filters...)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		s.once.Do(func() { close(s.ch) })
		return s
	}
	h.nextID++
	s.id = h.nextID
	h.subs[s.id] = s
	return s
}

// C delivers matching changes until the subscription or hub is closed.
func (s *Subscription) C() <-chan Change { return s.ch }

// Add extends the subscription with another filter.
func (s *Subscription) Add(f Filter) {
	s.mu.Lock()
	s.filters = append(s.filters, f)
	s.mu.Unlock()
}

// Filters returns a copy of the current filters.
func (s *Subscription) Filters() []Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Filter(nil), s.filters...)
}

func (s *Subscription) matches(c Change) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.filters {
		if f.Matches(c) {
			return true
		}
	}
	return false
}

// Close unsubscribes and closes C.  It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	delete(s.hub.subs, s.id)
	s.hub.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}

// Broadcast delivers c to every matching subscriber and returns how many
// received it.
func (h *Hub) Broadcast(c Change) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0
	}
	n := 0
	for _, s := range h.subs {
		if !s.matches(c) {
			continue
		}
		select {
		case s.ch <- c:
			n++
		default:
			h.dropped.Add(1)
		}
	}
	return n
}

// Publish implements Publisher for a single instance.
func (h *Hub) Publish(_ context.Context, c Change) error {
	h.Broadcast(c)
	return nil
}

// Dropped is the number of deliveries skipped because a subscriber was full.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Len is the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscription.  Later Broadcasts are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, s := range h.subs {
		delete(h.subs, id)
		s.once.Do(func() { close(s.ch) })
	}
}
