package memory

import (
	"context"
	"sync"

	"github.com/aescanero/smrepo/pkg/ports"
	"go.uber.org/zap"
)

// queueSize is the per-subscription backlog before Publish waits
const queueSize = 64

type subscription struct {
	id     uint64
	topic  string
	queue  chan ports.Event
	ctx    context.Context
	cancel context.CancelFunc
}

// InMemoryEventBus implements EventBus using in-process handlers.
// Each subscription receives events in publish order.
type InMemoryEventBus struct {
	subscribers map[string][]*subscription
	nextID      uint64
	logger      *zap.Logger
	mu          sync.RWMutex
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make(map[string][]*subscription),
		logger:      logger,
	}
}

// Publish queues an event for every subscriber of a topic. It waits while
// a subscriber's queue is full, until that subscriber ends or ctx is done.
func (e *InMemoryEventBus) Publish(ctx context.Context, topic string, event ports.Event) error {
	e.mu.RLock()
	subs := make([]*subscription, len(e.subscribers[topic]))
	copy(subs, e.subscribers[topic])
	e.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.queue <- event:
		case <-sub.ctx.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// Subscribe registers handler on topic until ctx is cancelled.
// The handler is called from a single goroutine per subscription.
func (e *InMemoryEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		topic:  topic,
		queue:  make(chan ports.Event, queueSize),
		ctx:    subCtx,
		cancel: cancel,
	}

	e.mu.Lock()
	e.nextID++
	sub.id = e.nextID
	e.subscribers[topic] = append(e.subscribers[topic], sub)
	e.mu.Unlock()

	go e.deliver(sub, handler)

	return nil
}

// deliver drains the subscription queue until the subscription ends
func (e *InMemoryEventBus) deliver(sub *subscription, handler ports.EventHandler) {
	defer e.unsubscribe(sub.topic, sub.id)

	for {
		select {
		case <-sub.ctx.Done():
			return
		case event := <-sub.queue:
			if err := handler(sub.ctx, event); err != nil {
				e.logger.Debug("event handler error",
					zap.String("topic", sub.topic),
					zap.String("event_id", event.ID),
					zap.Error(err))
			}
		}
	}
}

// Unsubscribe removes all subscriptions from a topic
func (e *InMemoryEventBus) Unsubscribe(ctx context.Context, topic string) error {
	e.mu.Lock()
	subs := e.subscribers[topic]
	delete(e.subscribers, topic)
	e.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
	}
	return nil
}

// Close removes all subscriptions
func (e *InMemoryEventBus) Close() error {
	e.mu.Lock()
	all := e.subscribers
	e.subscribers = make(map[string][]*subscription)
	e.mu.Unlock()

	for _, subs := range all {
		for _, sub := range subs {
			sub.cancel()
		}
	}
	return nil
}

// SubscriberCount returns the number of active subscriptions on topic
func (e *InMemoryEventBus) SubscriberCount(topic string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.subscribers[topic])
}

func (e *InMemoryEventBus) unsubscribe(topic string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.subscribers[topic]
	for i, s := range subs {
		if s.id == id {
			e.subscribers[topic] = append(subs[:i:i], subs[i+1:]...)
			if len(e.subscribers[topic]) == 0 {
				delete(e.subscribers, topic)
			}
			break
		}
	}
}
