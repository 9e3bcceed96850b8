// Package eventbus provides an in-process pub/sub bus for engine events.
// Publishers never block; subscribers process events asynchronously on a
// single consumer goroutine.
package eventbus

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/matthewbaird/tapestry/internal/event"
)

// Handler processes an engine event. Implementations must be safe for
// concurrent calls from different goroutines.
type Handler interface {
	HandleEvent(ctx context.Context, evt event.DomainEvent) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt event.DomainEvent) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	return f(ctx, evt)
}

type subscription struct {
	name    string
	handler Handler
}

// Bus is a simple in-process event bus. Published events land on a buffered
// queue and a single consumer goroutine fans each one out to every
// subscriber, which serialises event processing.
type Bus struct {
	mu   sync.RWMutex
	subs []subscription

	queue   chan event.DomainEvent
	stop    chan struct{}
	done    chan struct{}
	log     *zap.Logger
	started atomic.Bool

	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a Bus whose queue holds bufSize events.
func New(bufSize int, log *zap.Logger) *Bus {
	if bufSize < 1 {
		bufSize = 256
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		queue: make(chan event.DomainEvent, bufSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		log:   log,
	}
}

// Subscribe registers a named handler. Must be called before Start.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{name: name, handler: h})
}

// Publish queues an event. Non-blocking: if the queue is full, or the bus
// is stopped, the event is dropped with a warning.
func (b *Bus) Publish(_ context.Context, evt event.DomainEvent) {
	select {
	case <-b.stop:
		b.log.Warn("bus stopped, dropping event",
			zap.String("event_type", evt.EventType),
			zap.String("event_id", evt.ID))
		return
	default:
	}
	select {
	case b.queue <- evt:
	default:
		b.log.Warn("event queue full, dropping event",
			zap.String("event_type", evt.EventType),
			zap.String("event_id", evt.ID))
	}
}

// Start launches the consumer goroutine. It runs until the context is
// cancelled or Stop is called, draining queued events before exiting.
// Subsequent calls are no-ops.
func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		b.started.Store(true)
		go b.consume(ctx)
	})
}

// Stop signals the consumer and waits for it to drain and finish. Safe to
// call more than once, and before Start.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
	})
	if b.started.Load() {
		<-b.done
	}
}

func (b *Bus) consume(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case evt := <-b.queue:
			b.dispatch(ctx, evt)
		case <-ctx.Done():
			b.drain(ctx)
			return
		case <-b.stop:
			b.drain(ctx)
			return
		}
	}
}

func (b *Bus) drain(ctx context.Context) {
	for {
		select {
		case evt := <-b.queue:
			b.dispatch(ctx, evt)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, evt event.DomainEvent) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler.HandleEvent(ctx, evt); err != nil {
			b.log.Warn("event handler failed",
				zap.String("handler", s.name),
				zap.String("event_type", evt.EventType),
				zap.Error(err))
		}
	}
}
