package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aescanero/smrepo/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan ports.Event, 2)
	handler := func(ctx context.Context, ev ports.Event) error {
		received <- ev
		return nil
	}
	require.NoError(t, bus.Subscribe(ctx, ports.TopicSubmodels, handler))
	require.NoError(t, bus.Subscribe(ctx, ports.TopicSubmodels, handler))

	ev := ports.Event{ID: "e1", Type: ports.EventTypeSubmodelCreated, SubmodelID: "sm"}
	require.NoError(t, bus.Publish(context.Background(), ports.TopicSubmodels, ev))

	for i := 0; i < 2; i++ {
		select {
		case got := <-received:
			assert.Equal(t, ev, got)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestPublishIgnoresOtherTopics(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan ports.Event, 1)
	require.NoError(t, bus.Subscribe(ctx, "other", func(ctx context.Context, ev ports.Event) error {
		received <- ev
		return nil
	}))

	require.NoError(t, bus.Publish(context.Background(), ports.TopicSubmodels, ports.Event{ID: "e1"}))

	select {
	case <-received:
		t.Fatal("unexpected delivery")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	noop := func(context.Context, ports.Event) error { return nil }
	require.NoError(t, bus.Subscribe(ctx, ports.TopicSubmodels, noop))
	require.NoError(t, bus.Subscribe(context.Background(), ports.TopicSubmodels, noop))
	assert.Equal(t, 2, bus.SubscriberCount(ports.TopicSubmodels))

	cancel()
	assert.Eventually(t, func() bool {
		return bus.SubscriberCount(ports.TopicSubmodels) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestUnsubscribeAndClose(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	noop := func(context.Context, ports.Event) error { return nil }

	require.NoError(t, bus.Subscribe(context.Background(), "a", noop))
	require.NoError(t, bus.Subscribe(context.Background(), "b", noop))

	require.NoError(t, bus.Unsubscribe(context.Background(), "a"))
	assert.Equal(t, 0, bus.SubscriberCount("a"))
	assert.Equal(t, 1, bus.SubscriberCount("b"))

	require.NoError(t, bus.Close())
	assert.Equal(t, 0, bus.SubscriberCount("b"))
}

func TestPublishPreservesOrderPerSubscriber(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const pairs = 2000
	received := make(chan ports.Event, 2*pairs)
	require.NoError(t, bus.Subscribe(ctx, ports.TopicSubmodels, func(_ context.Context, ev ports.Event) error {
		received <- ev
		return nil
	}))

	for i := 0; i < pairs; i++ {
		id := fmt.Sprintf("sm-%d", i)
		require.NoError(t, bus.Publish(ctx, ports.TopicSubmodels, ports.Event{Type: ports.EventTypeSubmodelCreated, SubmodelID: id}))
		require.NoError(t, bus.Publish(ctx, ports.TopicSubmodels, ports.Event{Type: ports.EventTypeSubmodelDeleted, SubmodelID: id}))
	}

	for i := 0; i < pairs; i++ {
		id := fmt.Sprintf("sm-%d", i)
		for _, want := range []ports.EventType{ports.EventTypeSubmodelCreated, ports.EventTypeSubmodelDeleted} {
			select {
			case got := <-received:
				require.Equal(t, id, got.SubmodelID)
				require.Equal(t, want, got.Type)
			case <-time.After(time.Second):
				t.Fatalf("event %s for %s not delivered", want, id)
			}
		}
	}
}

func TestPublishDoesNotBlockOnEndedSubscriber(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	block := make(chan struct{})
	defer close(block)
	require.NoError(t, bus.Subscribe(ctx, ports.TopicSubmodels, func(context.Context, ports.Event) error {
		<-block
		return nil
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2*queueSize; i++ {
			_ = bus.Publish(context.Background(), ports.TopicSubmodels, ports.Event{ID: fmt.Sprint(i)})
		}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on an ended subscriber")
	}
}
