package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// LocalBus is an in-process event bus on a watermill Go channel. It is used
// when no NATS server is configured.
type LocalBus struct {
	pubSub *gochannel.GoChannel
}

func NewLocalBus(logger watermill.LoggerAdapter) *LocalBus {
	return &LocalBus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger),
	}
}

func (b *LocalBus) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(Envelope(event))
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)

	if err := b.pubSub.Publish(Subject(event.EventType()), msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
	}
	return nil
}

// Subscribe consumes subject in a background goroutine until the bus is
// closed. durableName is ignored; the bus keeps no offsets.
func (b *LocalBus) Subscribe(subject string, _ string, handler Handler) error {
	messages, err := b.pubSub.Subscribe(context.Background(), subject)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	go func() {
		for msg := range messages {
			var event BaseEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				msg.Ack() // unreadable, retrying will not help
				continue
			}
			// Delivery is at-most-once: a Nack would redeliver forever.
			_ = handler(msg.Context(), event)
			msg.Ack()
		}
	}()

	return nil
}

func (b *LocalBus) Close() error {
	return b.pubSub.Close()
}
