package events

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBus_PublishSubscribe(t *testing.T) {
	bus := NewLocalBus(watermill.NopLogger{})
	defer bus.Close()

	received := make(chan Event, 1)
	require.NoError(t, bus.Subscribe(Subject(TypeImageGenerated), "audit", func(_ context.Context, e Event) error {
		received <- e
		return nil
	}))

	evt := New(TypeImageGenerated, map[string]interface{}{"session_key": "channel_1", "bytes": 42})
	require.NoError(t, bus.Publish(context.Background(), evt))

	select {
	case got := <-received:
		assert.Equal(t, TypeImageGenerated, got.EventType())
		assert.Equal(t, "channel_1", got.Payload()["session_key"])
		assert.EqualValues(t, 42, got.Payload()["bytes"])
		assert.WithinDuration(t, evt.OccurredAt, got.Timestamp(), time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestLocalBus_OtherSubjectsAreNotDelivered(t *testing.T) {
	bus := NewLocalBus(watermill.NopLogger{})
	defer bus.Close()

	received := make(chan Event, 1)
	require.NoError(t, bus.Subscribe(Subject(TypeSessionCleared), "audit", func(_ context.Context, e Event) error {
		received <- e
		return nil
	}))
	require.NoError(t, bus.Publish(context.Background(), New(TypeImageFailed, nil)))

	select {
	case got := <-received:
		t.Fatalf("unexpected delivery of %s", got.EventType())
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard.Publish(context.Background(), New(TypeMessageReceived, nil)))
}
