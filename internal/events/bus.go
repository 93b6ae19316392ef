package events

import (
	"slices"
	"sync"
)

// Subscriber receives delivered events on the bus goroutine.
type Subscriber func(Event)

type subscription struct {
	id      int
	types   []EventType
	handler Subscriber
}

func (s *subscription) wants(t EventType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// Bus fans events out to subscribers. A single goroutine delivers events in
// publish order; handlers run on it and must not block.
type Bus struct {
	queue   chan Event
	history *history
	done    chan struct{}

	mu     sync.RWMutex
	subs   []*subscription // replaced on change, never mutated
	nextID int
	closed bool
}

// NewBus starts a bus that queues up to bufferSize undelivered events and
// remembers as many delivered ones.
func NewBus(bufferSize int) *Bus {
	bufferSize = max(bufferSize, 1)
	b := &Bus{
		queue:   make(chan Event, bufferSize),
		history: newHistory(bufferSize),
		done:    make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Bus) run() {
	defer close(b.done)
	for e := range b.queue {
		b.history.add(e)

		b.mu.RLock()
		subs := b.subs
		b.mu.RUnlock()
		for _, s := range subs {
			if s.wants(e.Type) {
				s.handler(e)
			}
		}
	}
}

// Publish queues e for delivery. It never blocks: when the queue is full or
// the bus is closed the event is dropped.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.queue <- e:
	default:
	}
}

// Subscribe registers handler for the given types, or for every type when
// none are given. The returned func unsubscribes.
func (b *Bus) Subscribe(handler Subscriber, types ...EventType) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs = append(slices.Clip(b.subs), &subscription{id: id, types: types, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs = slices.DeleteFunc(slices.Clone(b.subs), func(s *subscription) bool { return s.id == id })
	}
}

// SubscribeChan is Subscribe onto a buffered channel. Events that find the
// channel full are dropped. The returned func unsubscribes and closes it.
func (b *Bus) SubscribeChan(bufSize int, types ...EventType) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)
	var (
		mu     sync.Mutex
		closed bool
	)
	unsubscribe := b.Subscribe(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- e:
		default:
		}
	}, types...)

	return ch, func() {
		unsubscribe()
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}
}

// History returns up to limit of the most recently delivered events.
func (b *Bus) History(limit int) []Event {
	return b.history.last(limit)
}

// Close stops accepting events and returns once the queued ones have been
// delivered. It is safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()
	<-b.done
}
