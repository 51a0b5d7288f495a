package models

import (
	"context"
	"encoding/json"
	"time"
)

// Event is the envelope every domain event travels in. Payload stays raw
// JSON so the bus never needs to know concrete payload types.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
}

// Message is the transport-level unit handed to a PubSub backend.
type Message struct {
	UUID     string
	Payload  []byte
	Metadata map[string]string
}

// EventHandler processes a single delivered event.
type EventHandler func(ctx context.Context, event Event) error

// SubscriptionID identifies a registered handler so it can be removed.
type SubscriptionID uint64

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type EventSubscriber interface {
	Subscribe(eventType string, handler EventHandler) (SubscriptionID, error)
	Unsubscribe(eventType string, id SubscriptionID)
	Close() error
}

// EventBus combines publishing and subscribing over one transport.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// PubSub abstracts the underlying message transport (in-process channel,
// Redis stream, Kafka topic and so on).
type PubSub interface {
	Publish(ctx context.Context, topic string, msg *Message) error

	// Subscribe returns a channel of messages for the topic; the channel
	// closes when the subscription context is cancelled.
	Subscribe(ctx context.Context, topic string) (<-chan *Message, error)

	Close() error
}
