package event

import (
	"context"
	"sync"
)

// Outbox buffers the events of one operation until it has committed
type Outbox struct {
	mu     sync.Mutex
	events []Event
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Emit(e Event) {
	o.mu.Lock()
	o.events = append(o.events, e)
	o.mu.Unlock()
}

// Events returns a copy of the buffered events
func (o *Outbox) Events() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]Event(nil), o.events...)
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.events)
}

func (o *Outbox) take() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()

	events := o.events
	o.events = nil
	return events
}

// Discard drops every buffered event without publishing it. Used when the
// operation that emitted them failed
func (o *Outbox) Discard() {
	release(o.take())
}

type outboxKey struct{}

func WithOutbox(ctx context.Context, o *Outbox) context.Context {
	return context.WithValue(ctx, outboxKey{}, o)
}

// OutboxFrom returns the outbox carried by ctx or nil
func OutboxFrom(ctx context.Context) *Outbox {
	o, _ := ctx.Value(outboxKey{}).(*Outbox)
	return o
}
