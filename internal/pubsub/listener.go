package pubsub

import "context"

// Listener reads events from a broker subscription one at a time.
type Listener[T any] struct {
	ctx context.Context
	ch  <-chan Event[T]
}

// NewListener subscribes to broker. The subscription ends with ctx.
func NewListener[T any](ctx context.Context, broker *Broker[T], opts ...SubscribeOption) *Listener[T] {
	return &Listener[T]{
		ctx: ctx,
		ch:  broker.Subscribe(ctx, opts...),
	}
}

// Next blocks until the next event arrives. It returns false once the context
// is cancelled or the subscription is closed.
func (l *Listener[T]) Next() (Event[T], bool) {
	select {
	case <-l.ctx.Done():
		return Event[T]{}, false
	case event, ok := <-l.ch:
		return event, ok
	}
}

// Each calls fn for every event until the listener ends or fn returns false.
func (l *Listener[T]) Each(fn func(Event[T]) bool) {
	for {
		event, ok := l.Next()
		if !ok || !fn(event) {
			return
		}
	}
}
