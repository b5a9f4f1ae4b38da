package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus for game events.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type; WildcardType receives everything.
// - Synchronous delivery: Publish calls handlers in the caller goroutine, in subscription order.
// - Error aggregation: handler errors are joined and returned from Publish/PublishBatch.
// - Optional observability: metrics are produced only when observers are registered.
//
// Handlers run on the publisher's timeline (the game loop) and must not block.
type EventBus interface {
	// Publish delivers the event to all active subscribers of event.Type and to
	// wildcard subscribers.
	Publish(event Event) error
	// PublishBatch publishes events sequentially and aggregates errors across them.
	PublishBatch(events ...Event) error
	// Subscribe registers a handler for an event type.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. Safe to call with nil.
	Unsubscribe(Subscription) error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	// GetMetrics returns counters accumulated while at least one observer was registered.
	GetMetrics() Metrics
	// Subscribers returns the number of active subscriptions.
	Subscribers() int
}

// WildcardType subscribes to every event type.
const WildcardType = "*"

// Event is an immutable message transported by the EventBus.
type Event struct {
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

func NewEvent(typ, src string, data any) Event {
	return Event{Type: typ, Source: src, Timestamp: time.Now(), Data: data}
}

// EventHandler is invoked per delivered event.
type EventHandler func(event Event) error

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// Observer is notified about deliveries. Observers should return quickly.
type Observer interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, duration time.Duration)
}

type Metrics struct {
	Published         uint64 `json:"published"`
	DeliveredHandlers uint64 `json:"delivered_handlers"`
	Errors            uint64 `json:"errors"`
}
