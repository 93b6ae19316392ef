package events

import "sync"

// history keeps the last cap(ring) events.
type history struct {
	mu   sync.Mutex
	ring []Event
	next int
	full bool
}

func newHistory(size int) *history {
	return &history{ring: make([]Event, size)}
}

func (h *history) add(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ring[h.next] = e
	h.next++
	if h.next == len(h.ring) {
		h.next = 0
		h.full = true
	}
}

// last returns up to n events, oldest first.
func (h *history) last(n int) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := h.next
	if h.full {
		kept = len(h.ring)
	}
	n = min(n, kept)
	if n <= 0 {
		return nil
	}
	out := make([]Event, 0, n)
	for i := h.next - n; i < h.next; i++ {
		out = append(out, h.ring[(i+len(h.ring))%len(h.ring)])
	}
	return out
}

func (h *history) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next, h.full = 0, false
}
