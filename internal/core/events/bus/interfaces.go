package bus

import (
	"errors"
	"time"
)

// AllEvents subscribes a handler to every event type.
const AllEvents = "*"

var ErrNilHandler = errors.New("bus: nil handler")

// EventBus is an in-process pub/sub bus.
//
// Delivery is synchronous: Publish calls every matching handler in the
// caller's goroutine, in subscription order, and joins their errors.
// Handlers must be quick; a slow handler stalls the publisher. All methods
// are safe for concurrent use.
type EventBus interface {
	// Publish delivers event to the handlers of event.Type() and AllEvents.
	Publish(event Event) error
	// PublishBatch publishes events in order and joins every error.
	PublishBatch(events ...Event) error
	// Subscribe registers handler for eventType. Events rejected by any filter
	// are skipped for this subscription only.
	Subscribe(eventType string, handler EventHandler, filters ...EventFilter) (Subscription, error)
	// Unsubscribe cancels sub; nil is ignored.
	Unsubscribe(sub Subscription) error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	Metrics() EventBusMetrics
}

// Event is an immutable message. Source identifies the publisher, for race
// events the run id.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	EventHandler func(event Event) error
	EventFilter  func(event Event) bool
)

// Subscription is a registered handler. Cancel may be called more than once.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	Cancel() error
}

// EventBusObserver is told about every publish. Observers must return quickly.
type EventBusObserver interface {
	OnDelivered(eventType string, handlers int, err error, took time.Duration)
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	Filtered          uint64
	SubscribersActive uint64
}
