package events

import (
	"context"
	"time"
)

// Relay event types.
const (
	TypeMessageReceived = "MESSAGE_RECEIVED"
	TypeDecisionParsed  = "DECISION_PARSED"
	TypeModelCallFailed = "MODEL_CALL_FAILED"
	TypeImageGenerated  = "IMAGE_GENERATED"
	TypeImageFailed     = "IMAGE_FAILED"
	TypeSessionCleared  = "SESSION_CLEARED"
)

// RelayEventTypes lists every event the relay emits.
var RelayEventTypes = []string{
	TypeMessageReceived,
	TypeDecisionParsed,
	TypeModelCallFailed,
	TypeImageGenerated,
	TypeImageFailed,
	TypeSessionCleared,
}

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "IMAGE_GENERATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher delivers events to a bus. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Handler processes one delivered event.
type Handler func(ctx context.Context, event Event) error

// Subscriber registers handlers for a subject. durableName identifies the
// consumer on buses that persist offsets.
type Subscriber interface {
	Subscribe(subject string, durableName string, handler Handler) error
}

// Subject is the bus subject an event type is published on.
func Subject(eventType string) string {
	return "events." + eventType
}

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Envelope converts any Event into its wire form.
func Envelope(e Event) BaseEvent {
	return BaseEvent{Type: e.EventType(), Data: e.Payload(), OccurredAt: e.Timestamp()}
}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }

// Discard drops every event.
var Discard Publisher = discard{}
