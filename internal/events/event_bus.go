package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shopkit/shopkit/models"
)

type subscription struct {
	id      models.SubscriptionID
	handler models.EventHandler
}

type topicSubscribers struct {
	subs   []subscription
	cancel context.CancelFunc
}

// eventBus multiplexes a PubSub transport to in-process handlers. Each
// topic gets one consumer goroutine started on first subscribe; handler
// invocations are bounded by a semaphore.
type eventBus struct {
	config *models.EventBusConfig
	pubsub models.PubSub
	logger models.Logger

	mu     sync.RWMutex
	topics map[string]*topicSubscribers

	nextSubID atomic.Uint64

	handlerSem chan struct{}

	rootCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewEventBus(config *models.EventBusConfig, ps models.PubSub, logger models.Logger) models.EventBus {
	rootCtx, cancel := context.WithCancel(context.Background())

	maxHandlers := config.MaxConcurrentHandlers
	if maxHandlers <= 0 {
		maxHandlers = 16
	}

	return &eventBus{
		config:     config,
		pubsub:     ps,
		logger:     logger,
		topics:     make(map[string]*topicSubscribers),
		handlerSem: make(chan struct{}, maxHandlers),
		rootCtx:    rootCtx,
		cancel:     cancel,
	}
}

func (bus *eventBus) topic(eventType string) string {
	prefix := strings.TrimSuffix(bus.config.Prefix, ".")
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// Publish fills in ID and timestamp if absent, then hands the serialized
// event to the transport.
func (bus *eventBus) Publish(ctx context.Context, event models.Event) error {
	if event.Type == "" {
		return fmt.Errorf("eventbus: event type must not be empty")
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Metadata == nil {
		event.Metadata = make(map[string]string)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return bus.pubsub.Publish(ctx, bus.topic(event.Type), &models.Message{
		UUID:    event.ID,
		Payload: payload,
		Metadata: map[string]string{
			"event_type": event.Type,
			"timestamp":  event.Timestamp.Format(time.RFC3339Nano),
		},
	})
}

func (bus *eventBus) Subscribe(eventType string, handler models.EventHandler) (models.SubscriptionID, error) {
	if handler == nil {
		return 0, fmt.Errorf("eventbus: handler must not be nil")
	}

	topic := bus.topic(eventType)
	id := models.SubscriptionID(bus.nextSubID.Add(1))

	bus.mu.Lock()
	defer bus.mu.Unlock()

	state, ok := bus.topics[topic]
	if !ok {
		// First subscriber on this topic starts the consumer.
		ctx, cancel := context.WithCancel(bus.rootCtx)

		msgs, err := bus.pubsub.Subscribe(ctx, topic)
		if err != nil {
			cancel()
			return 0, err
		}

		state = &topicSubscribers{cancel: cancel}
		bus.topics[topic] = state

		bus.wg.Add(1)
		go bus.consume(ctx, topic, msgs)
	}

	state.subs = append(state.subs, subscription{id: id, handler: handler})
	return id, nil
}

func (bus *eventBus) Unsubscribe(eventType string, id models.SubscriptionID) {
	topic := bus.topic(eventType)

	bus.mu.Lock()
	defer bus.mu.Unlock()

	state, ok := bus.topics[topic]
	if !ok {
		return
	}

	for i, sub := range state.subs {
		if sub.id == id {
			state.subs = append(state.subs[:i], state.subs[i+1:]...)
			break
		}
	}

	// Last handler gone, stop the consumer.
	if len(state.subs) == 0 {
		state.cancel()
		delete(bus.topics, topic)
	}
}

func (bus *eventBus) consume(ctx context.Context, topic string, msgs <-chan *models.Message) {
	defer bus.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var event models.Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				bus.logger.Error("failed to unmarshal event", "error", err, "topic", topic, "message_id", msg.UUID)
				continue
			}

			bus.mu.RLock()
			var subs []subscription
			if state := bus.topics[topic]; state != nil {
				subs = append(subs, state.subs...)
			}
			bus.mu.RUnlock()

			for _, sub := range subs {
				select {
				case bus.handlerSem <- struct{}{}:
				case <-ctx.Done():
					return
				}
				bus.wg.Add(1)
				go bus.dispatch(ctx, sub.handler, event)
			}
		}
	}
}

func (bus *eventBus) dispatch(ctx context.Context, handler models.EventHandler, event models.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.logger.Error("event handler panicked", "panic", r, "event_type", event.Type, "event_id", event.ID)
		}
		<-bus.handlerSem
		bus.wg.Done()
	}()

	if err := handler(ctx, event); err != nil {
		bus.logger.Error("event handler error", "error", err, "event_type", event.Type, "event_id", event.ID)
	}
}

func (bus *eventBus) Close() error {
	bus.cancel()
	bus.wg.Wait()
	return bus.pubsub.Close()
}
