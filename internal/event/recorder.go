package event

import (
	"context"
	"sync"
)

// RingRecorder keeps the most recent events in a fixed-size ring, backing
// the events API endpoint. Safe for concurrent use.
type RingRecorder struct {
	mu     sync.RWMutex
	events []DomainEvent
	next   int
	full   bool
}

// NewRingRecorder creates a recorder holding at most size events.
func NewRingRecorder(size int) *RingRecorder {
	if size < 1 {
		size = 128
	}
	return &RingRecorder{events: make([]DomainEvent, size)}
}

// HandleEvent records the event, overwriting the oldest when full. It
// satisfies the eventbus handler contract and never fails.
func (r *RingRecorder) HandleEvent(_ context.Context, evt DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[r.next] = evt
	r.next++
	if r.next == len(r.events) {
		r.next = 0
		r.full = true
	}
	return nil
}

// Recent returns the recorded events, newest first.
func (r *RingRecorder) Recent() []DomainEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := r.next
	if r.full {
		count = len(r.events)
	}

	out := make([]DomainEvent, 0, count)
	for i := 1; i <= count; i++ {
		idx := (r.next - i + len(r.events)) % len(r.events)
		out = append(out, r.events[idx])
	}
	return out
}
