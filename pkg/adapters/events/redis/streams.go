package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aescanero/smrepo/pkg/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamsEventBus implements EventBus using Redis Streams.
//
// With a consumer group every event is handled by one subscriber of the
// group. Without one, every subscriber reads the stream from the moment it
// subscribed.
type StreamsEventBus struct {
	client        *redis.Client
	logger        *zap.Logger
	consumerGroup string
	consumerName  string
	maxLen        int64
	block         time.Duration

	mu      sync.Mutex
	nextID  uint64
	cancels map[string]map[uint64]context.CancelFunc
	wg      sync.WaitGroup
}

// Options configures a StreamsEventBus
type Options struct {
	// ConsumerGroup enables consumer-group delivery when set.
	ConsumerGroup string
	ConsumerName  string
	// MaxLen caps stream length (approximate trimming). Zero disables trimming.
	MaxLen int64
	// Block is how long a read waits for new entries.
	Block time.Duration
}

// NewStreamsEventBus creates a new Redis Streams event bus
func NewStreamsEventBus(client *redis.Client, opts Options, logger *zap.Logger) (*StreamsEventBus, error) {
	if opts.ConsumerGroup != "" && opts.ConsumerName == "" {
		return nil, fmt.Errorf("consumer name is required with consumer group %q", opts.ConsumerGroup)
	}
	if opts.Block <= 0 {
		opts.Block = time.Second
	}

	return &StreamsEventBus{
		client:        client,
		logger:        logger,
		consumerGroup: opts.ConsumerGroup,
		consumerName:  opts.ConsumerName,
		maxLen:        opts.MaxLen,
		block:         opts.Block,
		cancels:       make(map[string]map[uint64]context.CancelFunc),
	}, nil
}

// Publish publishes an event to the appropriate stream topic
func (e *StreamsEventBus) Publish(ctx context.Context, topic string, event ports.Event) error {
	streamKey := getStreamKey(topic)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}
	if e.maxLen > 0 {
		args.MaxLen = e.maxLen
		args.Approx = true
	}

	if _, err := e.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}

	e.logger.Debug("event published",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("topic", topic),
		zap.String("stream", streamKey))

	return nil
}

// Subscribe subscribes to events on a specific topic until ctx is cancelled
func (e *StreamsEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	streamKey := getStreamKey(topic)

	if e.consumerGroup != "" {
		err := e.client.XGroupCreateMkStream(ctx, streamKey, e.consumerGroup, "$").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("failed to create consumer group: %w", err)
		}
	}

	// Broadcast readers start after the newest entry at subscription time.
	lastID := "$"
	if e.consumerGroup == "" {
		id, err := e.lastEntryID(ctx, streamKey)
		if err != nil {
			return err
		}
		lastID = id
	}

	subCtx, cancel := context.WithCancel(ctx)
	id := e.track(topic, cancel)

	e.logger.Info("subscribed to event stream",
		zap.String("stream", streamKey),
		zap.String("topic", topic),
		zap.String("consumer_group", e.consumerGroup),
		zap.String("consumer", e.consumerName))

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.untrack(topic, id)
		if e.consumerGroup != "" {
			e.readGroup(subCtx, streamKey, handler)
		} else {
			e.readBroadcast(subCtx, streamKey, lastID, handler)
		}
	}()

	return nil
}

// track registers a subscription's cancel func and returns its id
func (e *StreamsEventBus) track(topic string, cancel context.CancelFunc) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	if e.cancels[topic] == nil {
		e.cancels[topic] = make(map[uint64]context.CancelFunc)
	}
	e.cancels[topic][e.nextID] = cancel
	return e.nextID
}

// untrack releases a subscription once its reader has exited
func (e *StreamsEventBus) untrack(topic string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cancel, ok := e.cancels[topic][id]; ok {
		cancel()
		delete(e.cancels[topic], id)
		if len(e.cancels[topic]) == 0 {
			delete(e.cancels, topic)
		}
	}
}

// SubscriberCount returns the number of active subscriptions on topic
func (e *StreamsEventBus) SubscriberCount(topic string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.cancels[topic])
}

// lastEntryID returns the id of the newest stream entry, or "0" for an empty stream
func (e *StreamsEventBus) lastEntryID(ctx context.Context, streamKey string) (string, error) {
	entries, err := e.client.XRevRangeN(ctx, streamKey, "+", "-", 1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to read stream tail: %w", err)
	}
	if len(entries) == 0 {
		return "0", nil
	}
	return entries[0].ID, nil
}

// readBroadcast reads every new entry of a stream
func (e *StreamsEventBus) readBroadcast(ctx context.Context, streamKey, lastID string, handler ports.EventHandler) {
	for ctx.Err() == nil {
		streams, err := e.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{streamKey, lastID},
			Count:   10,
			Block:   e.block,
		}).Result()
		if err != nil {
			if !e.handleReadError(ctx, streamKey, err) {
				return
			}
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				lastID = message.ID
				_ = e.processMessage(ctx, streamKey, message, handler)
			}
		}
	}
}

// readGroup reads entries assigned to this consumer
func (e *StreamsEventBus) readGroup(ctx context.Context, streamKey string, handler ports.EventHandler) {
	for ctx.Err() == nil {
		streams, err := e.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    e.consumerGroup,
			Consumer: e.consumerName,
			Streams:  []string{streamKey, ">"},
			Count:    10,
			Block:    e.block,
		}).Result()
		if err != nil {
			if !e.handleReadError(ctx, streamKey, err) {
				return
			}
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				if err := e.processMessage(ctx, streamKey, message, handler); err != nil {
					continue
				}
				if err := e.client.XAck(ctx, streamKey, e.consumerGroup, message.ID).Err(); err != nil {
					e.logger.Error("failed to acknowledge message",
						zap.String("stream", streamKey),
						zap.String("message_id", message.ID),
						zap.Error(err))
				}
			}
		}
	}
}

// handleReadError reports whether reading should continue
func (e *StreamsEventBus) handleReadError(ctx context.Context, streamKey string, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, redis.Nil) {
		return true
	}
	if errors.Is(err, redis.ErrClosed) {
		return false
	}

	e.logger.Error("failed to read from stream",
		zap.String("stream", streamKey),
		zap.Error(err))

	select {
	case <-ctx.Done():
		return false
	case <-time.After(time.Second):
		return true
	}
}

// processMessage decodes a stream entry and hands it to handler
func (e *StreamsEventBus) processMessage(ctx context.Context, streamKey string, message redis.XMessage, handler ports.EventHandler) error {
	data, ok := message.Values["data"].(string)
	if !ok {
		e.logger.Error("invalid message format",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID))
		return fmt.Errorf("invalid message format")
	}

	var event ports.Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		e.logger.Error("failed to unmarshal event",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID),
			zap.Error(err))
		return err
	}

	if err := handler(ctx, event); err != nil {
		e.logger.Error("handler error",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID),
			zap.Error(err))
		return err
	}

	return nil
}

// Unsubscribe stops all subscriptions on a topic
func (e *StreamsEventBus) Unsubscribe(ctx context.Context, topic string) error {
	e.mu.Lock()
	cancels := e.cancels[topic]
	delete(e.cancels, topic)
	e.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return nil
}

// Close stops all subscriptions and waits for readers to exit.
// The Redis client is closed by the caller.
func (e *StreamsEventBus) Close() error {
	e.mu.Lock()
	for topic, cancels := range e.cancels {
		for _, cancel := range cancels {
			cancel()
		}
		delete(e.cancels, topic)
	}
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

// getStreamKey returns the Redis stream key for a topic
func getStreamKey(topic string) string {
	return fmt.Sprintf("smrepo:events:%s", topic)
}
