// Package pubsub provides a generic publish/subscribe event system used to
// announce plugin state changes and log lines.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	CreatedEvent  EventType = "created"  // something was loaded or added
	UpdatedEvent  EventType = "updated"  // state of an existing entity changed
	DeletedEvent  EventType = "deleted"  // something was removed
	ReloadedEvent EventType = "reloaded" // a whole set was rebuilt
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context, opts ...SubscribeOption) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
