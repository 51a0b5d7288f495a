package events

import (
	"context"
	"maps"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/shopkit/shopkit/models"
)

// watermillPubSub adapts a Watermill publisher/subscriber pair to the
// models.PubSub interface, keeping the rest of the system independent of
// the transport.
type watermillPubSub struct {
	pub message.Publisher
	sub message.Subscriber
}

func NewWatermillPubSub(pub message.Publisher, sub message.Subscriber) models.PubSub {
	return &watermillPubSub{pub: pub, sub: sub}
}

func (w *watermillPubSub) Publish(ctx context.Context, topic string, msg *models.Message) error {
	out := message.NewMessage(msg.UUID, msg.Payload)
	for key, value := range msg.Metadata {
		out.Metadata.Set(key, value)
	}
	return w.pub.Publish(topic, out)
}

func (w *watermillPubSub) Subscribe(ctx context.Context, topic string) (<-chan *models.Message, error) {
	upstream, err := w.sub.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}

	out := make(chan *models.Message)
	go w.forward(ctx, upstream, out)
	return out, nil
}

// forward converts Watermill messages to domain messages, acking only
// once a consumer has taken delivery.
func (w *watermillPubSub) forward(ctx context.Context, upstream <-chan *message.Message, out chan<- *models.Message) {
	defer close(out)

	for in := range upstream {
		metadata := make(map[string]string, len(in.Metadata))
		maps.Copy(metadata, in.Metadata)

		select {
		case out <- &models.Message{UUID: in.UUID, Payload: in.Payload, Metadata: metadata}:
			in.Ack()
		case <-ctx.Done():
			in.Nack()
			return
		}
	}
}

func (w *watermillPubSub) Close() error {
	var pubErr, subErr error

	if closer, ok := w.pub.(interface{ Close() error }); ok {
		pubErr = closer.Close()
	}
	if closer, ok := w.sub.(interface{ Close() error }); ok {
		subErr = closer.Close()
	}

	if pubErr != nil {
		return pubErr
	}
	return subErr
}
