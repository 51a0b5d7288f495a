package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

func newTestBus(t *testing.T, maxHandlers int) models.EventBus {
	t.Helper()

	config := &models.EventBusConfig{
		Provider:              "gochannel",
		MaxConcurrentHandlers: maxHandlers,
	}
	ps, err := InitWatermillProvider(config, nil)
	require.NoError(t, err)

	return NewEventBus(config, ps, util.NewMockLogger())
}

func TestEventBusDeliversPublishedEvents(t *testing.T) {
	bus := newTestBus(t, 4)
	defer bus.Close()

	received := make(chan models.Event, 1)
	_, err := bus.Subscribe("product.updated", func(ctx context.Context, event models.Event) error {
		received <- event
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), models.Event{Type: "product.updated"}))

	select {
	case event := <-received:
		assert.Equal(t, "product.updated", event.Type)
		assert.NotEmpty(t, event.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestEventBusCloseUnblocksSaturatedDispatch(t *testing.T) {
	bus := newTestBus(t, 1)

	entered := make(chan struct{}, 8)
	_, err := bus.Subscribe("stock.adjusted", func(ctx context.Context, event models.Event) error {
		entered <- struct{}{}
		<-ctx.Done()
		return nil
	})
	require.NoError(t, err)

	for range 4 {
		require.NoError(t, bus.Publish(context.Background(), models.Event{Type: "stock.adjusted"}))
	}

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never invoked")
	}

	done := make(chan error, 1)
	go func() { done <- bus.Close() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("close did not return while dispatch slots were saturated")
	}
}
