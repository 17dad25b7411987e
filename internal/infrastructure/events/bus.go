package events

import (
	"context"
	"encoding/json"
	"fmt"

	"gridcast/internal/core/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type envelope struct {
	InstanceID string             `json:"instance_id"`
	Event      domain.ChangeEvent `json:"event"`
}

// EventBus mirrors session change events across instances over Redis
// pub/sub, so a viewer connected to one instance sees changes made through
// another. Events published by this instance are skipped on receipt.
type EventBus struct {
	client     *redis.Client
	instanceID string
	channel    string
	logger     *zap.SugaredLogger
	pubsub     *redis.PubSub
}

// NewEventBus creates a new event bus
func NewEventBus(client *redis.Client, namespace, instanceID string, logger *zap.SugaredLogger) *EventBus {
	return &EventBus{
		client:     client,
		instanceID: instanceID,
		channel:    namespace + ":events",
		logger:     logger,
	}
}

// Publish publishes a change event to the bus
func (eb *EventBus) Publish(ctx context.Context, event domain.ChangeEvent) error {
	data, err := json.Marshal(envelope{InstanceID: eb.instanceID, Event: event})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := eb.client.Publish(ctx, eb.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	eb.logger.Debugw("published event",
		"type", event.Type,
		"stream_id", event.StreamID,
		"segment_id", event.SegmentID,
	)
	return nil
}

// Subscribe blocks delivering remote events to handler until ctx is
// cancelled. Events originating from this instance are skipped.
func (eb *EventBus) Subscribe(ctx context.Context, handler func(domain.ChangeEvent)) error {
	if eb.pubsub != nil {
		return fmt.Errorf("already subscribed")
	}

	eb.pubsub = eb.client.Subscribe(ctx, eb.channel)
	defer eb.pubsub.Close()

	ch := eb.pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				eb.logger.Warnw("failed to unmarshal event",
					"error", err,
					"payload", msg.Payload,
				)
				continue
			}

			if env.InstanceID == eb.instanceID {
				continue
			}

			handler(env.Event)
		}
	}
}

// Close closes the event bus
func (eb *EventBus) Close() error {
	if eb.pubsub != nil {
		return eb.pubsub.Close()
	}
	return nil
}
