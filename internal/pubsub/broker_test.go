package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "timeout waiting for event")
		return Event[T]{}
	}
}

func TestBroker_Subscribe(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)
	broker.Publish(UpdatedEvent, "media-menu")

	event := receive(t, ch)
	require.Equal(t, "media-menu", event.Payload)
	require.Equal(t, UpdatedEvent, event.Type)
	require.False(t, event.Timestamp.IsZero())
}

func TestBroker_MultipleSubscribers(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx := context.Background()
	chans := []<-chan Event[int]{broker.Subscribe(ctx), broker.Subscribe(ctx), broker.Subscribe(ctx)}
	require.Equal(t, 3, broker.SubscriberCount())

	broker.Publish(CreatedEvent, 42)

	for _, ch := range chans {
		event := receive(t, ch)
		require.Equal(t, 42, event.Payload)
		require.Equal(t, CreatedEvent, event.Type)
	}
}

func TestBroker_WithTypesFilters(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ch := broker.Subscribe(context.Background(), WithTypes(DeletedEvent, ReloadedEvent))

	broker.Publish(CreatedEvent, "skipped")
	broker.Publish(UpdatedEvent, "skipped")
	broker.Publish(DeletedEvent, "removed")
	broker.Publish(ReloadedEvent, "all")

	require.Equal(t, "removed", receive(t, ch).Payload)
	require.Equal(t, "all", receive(t, ch).Payload)
	require.Empty(t, ch)
}

func TestBroker_ContextCancellation(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.SubscriberCount())

	cancel()
	require.Eventually(t, func() bool { return broker.SubscriberCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-ch
	require.False(t, ok, "channel should be closed")
}

func TestBroker_PublishNeverBlocks(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()

	ch := broker.Subscribe(context.Background())
	broker.Publish(UpdatedEvent, 1)

	done := make(chan struct{})
	go func() {
		broker.Publish(UpdatedEvent, 2)
		broker.Publish(UpdatedEvent, 3)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "Publish blocked")
	}
	require.Equal(t, 1, (<-ch).Payload)
}

func TestBroker_Close(t *testing.T) {
	broker := NewBroker[string]()
	ctx := context.Background()
	ch1 := broker.Subscribe(ctx)
	ch2 := broker.Subscribe(ctx)

	broker.Close()
	broker.Close()

	_, ok1 := <-ch1
	_, ok2 := <-ch2
	require.False(t, ok1)
	require.False(t, ok2)
	require.Equal(t, 0, broker.SubscriberCount())

	_, ok3 := <-broker.Subscribe(ctx)
	require.False(t, ok3, "subscribing to a closed broker yields a closed channel")

	broker.Publish(UpdatedEvent, "ignored")
}

func TestListener_Next(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	listener := NewListener(ctx, broker)

	broker.Publish(CreatedEvent, 1)
	broker.Publish(DeletedEvent, 2)

	event, ok := listener.Next()
	require.True(t, ok)
	require.Equal(t, 1, event.Payload)

	event, ok = listener.Next()
	require.True(t, ok)
	require.Equal(t, DeletedEvent, event.Type)

	cancel()
	_, ok = listener.Next()
	require.False(t, ok)
}

func TestListener_Each(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	listener := NewListener(context.Background(), broker, WithTypes(UpdatedEvent))
	for i := 1; i <= 5; i++ {
		broker.Publish(UpdatedEvent, i)
	}

	var got []int
	listener.Each(func(e Event[int]) bool {
		got = append(got, e.Payload)
		return len(got) < 3
	})
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestListener_EndsWhenBrokerCloses(t *testing.T) {
	broker := NewBroker[int]()
	listener := NewListener(context.Background(), broker)

	broker.Close()

	_, ok := listener.Next()
	require.False(t, ok)
}
