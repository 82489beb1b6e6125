// Package events carries quote lifecycle notifications from the quotes
// service to the SSE and email subscribers. Event payloads live in
// internal/events; this package only knows how to route them by name.
package events

import (
	"context"
	"time"
)

// Event is anything published on the Bus. Subscribers are matched on EventName,
// e.g. "quote.approved".
type Event interface {
	EventName() string
	// OccurredAt is the time of the quote mutation that raised the event.
	OccurredAt() time.Time
}

// BaseEvent is embedded by every payload to carry its timestamp.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the publisher's clock so that event
// times match the thread entries written by the same mutation.
func NewBaseEvent(at time.Time) BaseEvent {
	return BaseEvent{Timestamp: at.UTC()}
}

// Handler reacts to one published event. With Publish, errors are only logged.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus fans quote events out to subscribers.
type Bus interface {
	// Publish runs matching handlers in the background, detached from the
	// request context so a finished HTTP request does not cancel delivery.
	Publish(ctx context.Context, event Event)

	// PublishSync runs matching handlers and joins their errors.
	PublishSync(ctx context.Context, event Event) error

	Subscribe(eventName string, handler Handler)
}
