package bus

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/trackdrive/internal/core/observability/log"
)

type simpleEvent struct {
	typeStr string
	source  string
	ts      time.Time
	data    any
}

func (e simpleEvent) Type() string         { return e.typeStr }
func (e simpleEvent) Source() string       { return e.source }
func (e simpleEvent) Timestamp() time.Time { return e.ts }
func (e simpleEvent) Data() any            { return e.data }

// NewEvent stamps an event with the current wall-clock time.
func NewEvent(typ, src string, data any) Event {
	return simpleEvent{typeStr: typ, source: src, ts: time.Now(), data: data}
}

type subscription struct {
	id        string
	eventType string
	handler   EventHandler
	filters   []EventFilter
	active    atomic.Bool
	cancel    func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }
func (s *subscription) IsActive() bool    { return s.active.Load() }
func (s *subscription) Cancel() error {
	if s.active.CompareAndSwap(true, false) && s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *subscription) accepts(e Event) bool {
	for _, f := range s.filters {
		if !f(e) {
			return false
		}
	}
	return true
}

type inMemoryBus struct {
	mu sync.RWMutex
	// eventType -> subscriptions in registration order
	handlers  map[string][]*subscription
	observers []EventBusObserver

	published atomic.Uint64
	delivered atomic.Uint64
	errs      atomic.Uint64
	filtered  atomic.Uint64
}

func New() EventBus {
	return &inMemoryBus{handlers: make(map[string][]*subscription)}
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler, filters ...EventFilter) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	s := &subscription{id: uuid.NewString(), eventType: eventType, handler: handler, filters: filters}
	s.active.Store(true)
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.handlers[eventType] = slices.DeleteFunc(b.handlers[eventType], func(o *subscription) bool { return o == s })
		if len(b.handlers[eventType]) == 0 {
			delete(b.handlers, eventType)
		}
	}

	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], s)
	b.mu.Unlock()
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) Publish(event Event) error {
	start := time.Now()

	b.mu.RLock()
	typed, wild := b.handlers[event.Type()], b.handlers[AllEvents]
	subs := make([]*subscription, 0, len(typed)+len(wild))
	subs = append(subs, typed...)
	if event.Type() != AllEvents {
		subs = append(subs, wild...)
	}
	observers := slices.Clone(b.observers)
	b.mu.RUnlock()

	var (
		all       error
		delivered int
	)
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		if !s.accepts(event) {
			b.filtered.Add(1)
			continue
		}
		delivered++
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}

	b.published.Add(1)
	b.delivered.Add(uint64(delivered))
	if all != nil {
		b.errs.Add(1)
	}
	took := time.Since(start)
	for _, obs := range observers {
		obs.OnDelivered(event.Type(), delivered, all, took)
	}
	return all
}

func (b *inMemoryBus) PublishBatch(events ...Event) error {
	var all error
	for _, e := range events {
		if err := b.Publish(e); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

func (b *inMemoryBus) AddObserver(obs EventBusObserver) {
	b.mu.Lock()
	b.observers = append(b.observers, obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) RemoveObserver(obs EventBusObserver) {
	b.mu.Lock()
	b.observers = slices.DeleteFunc(b.observers, func(o EventBusObserver) bool { return o == obs })
	b.mu.Unlock()
}

func (b *inMemoryBus) Metrics() EventBusMetrics {
	b.mu.RLock()
	var active uint64
	for _, subs := range b.handlers {
		active += uint64(len(subs))
	}
	b.mu.RUnlock()
	return EventBusMetrics{
		Published:         b.published.Load(),
		DeliveredHandlers: b.delivered.Load(),
		Errors:            b.errs.Load(),
		Filtered:          b.filtered.Load(),
		SubscribersActive: active,
	}
}

// LogObserver reports failed deliveries as warnings and everything else at
// debug level.
func LogObserver(l log.Log) EventBusObserver {
	return logObserver{l: l.Named("bus")}
}

type logObserver struct{ l log.Log }

func (o logObserver) OnDelivered(eventType string, handlers int, err error, took time.Duration) {
	if err != nil {
		o.l.Warn("event handlers failed",
			log.String("type", eventType), log.Int("handlers", handlers), log.Error(err))
		return
	}
	o.l.Debug("event delivered",
		log.String("type", eventType), log.Int("handlers", handlers), log.Duration("took", took))
}
