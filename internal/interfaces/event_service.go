package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	EventExtractionProgress EventType = "extraction.progress"
	EventCredentialsUpdated EventType = "credentials.updated"
	EventSnapshotCreated    EventType = "snapshot.created"
	EventStatusChanged      EventType = "status.changed"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages the pub/sub event bus
type EventService interface {
	// Subscribe registers a handler for an event type and returns the
	// unregister function for that registration. Calling it twice is
	// harmless.
	Subscribe(eventType EventType, handler EventHandler) func()

	// Publish delivers an event to all subscribers asynchronously
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes an event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close drops all subscriptions
	Close() error
}
