package event

import (
	"bitwise74/docs-api/internal/metrics"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// Handler processes one event. Delivery is at-least-once so handlers have
// to be idempotent
type Handler func(ctx context.Context, e Event) error

type subscription struct {
	name string
	fn   Handler
}

// Bus runs subscribed handlers on a bounded pool of workers. Every flushed
// outbox becomes one batch whose events are handled in publish order
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]subscription

	batches chan []Event
	pending atomic.Int64
}

var (
	defaultBus  *Bus
	defaultOnce sync.Once
)

// Init configures the process wide bus. Calls after the first one, and after
// Default, have no effect
func Init(workers, queueSize int) *Bus {
	defaultOnce.Do(func() {
		defaultBus = New(workers, queueSize)
	})

	return defaultBus
}

// Default returns the process wide bus
func Default() *Bus {
	return Init(4, 64)
}

func New(workers, queueSize int) *Bus {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	b := &Bus{
		handlers: make(map[Type][]subscription),
		batches:  make(chan []Event, queueSize),
	}

	zap.L().Debug("Starting event workers", zap.Int("workers", workers), zap.Int("queue_size", queueSize))
	for range workers {
		go b.worker()
	}

	return b
}

// Subscribe registers h for every event of type t
func (b *Bus) Subscribe(t Type, name string, h Handler) {
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], subscription{name: name, fn: h})
	b.mu.Unlock()
}

// Flush hands every event buffered in o to the workers. It never blocks the
// caller, a full queue is waited on in the background
func (b *Bus) Flush(o *Outbox) {
	if o == nil {
		return
	}

	events := o.take()
	if len(events) == 0 {
		return
	}

	b.pending.Add(1)

	select {
	case b.batches <- events:
	default:
		metrics.EventQueueFull.Inc()
		zap.L().Warn("Event queue full, waiting in the background", zap.Int("events", len(events)))
		go func() { b.batches <- events }()
	}
}

func (b *Bus) worker() {
	for batch := range b.batches {
		b.dispatch(batch)
		b.pending.Add(-1)
	}
}

func (b *Bus) dispatch(batch []Event) {
	defer release(batch)

	for _, e := range batch {
		b.mu.RLock()
		subs := b.handlers[e.Type()]
		b.mu.RUnlock()

		metrics.EventsDispatched.WithLabelValues(string(e.Type())).Inc()

		for _, s := range subs {
			b.run(s, e)
		}
	}
}

// run isolates one handler, an error or a panic is logged and the next
// handler still runs
func (b *Bus) run(s subscription, e Event) {
	var err error

	recovered := panics.Try(func() {
		err = s.fn(context.Background(), e)
	})
	if recovered != nil {
		err = fmt.Errorf("handler panicked, %w", recovered.AsError())
	}

	if err != nil {
		metrics.EventHandlerFailures.WithLabelValues(s.name).Inc()
		zap.L().Error("Event handler failed",
			zap.String("handler", s.name),
			zap.String("event", string(e.Type())),
			zap.String("user_id", e.Actor()),
			zap.Error(err))
	}
}

// Drain waits until every flushed batch has been handled
func (b *Bus) Drain(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for b.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}
