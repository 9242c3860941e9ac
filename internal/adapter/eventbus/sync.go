// Package eventbus provides implementations of the EventBus interface.
package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/chasetripleseven/attention/internal/domain"
	"github.com/chasetripleseven/attention/internal/ports"
)

// ErrClosed is returned by Close on a bus that is already closed.
var ErrClosed = errors.New("event bus already closed")

// wildcard is the key under which SubscribeAll handlers are stored.
const wildcard domain.EventType = "*"

// SyncEventBus delivers events synchronously on the publishing goroutine.
// Type-specific handlers run first, then wildcard handlers, each group in
// subscription order. A handler may publish, subscribe or unsubscribe.
//
// Thread-safety: This implementation is thread-safe.
type SyncEventBus struct {
	logger *slog.Logger

	handlers map[domain.EventType][]subscription
	lastID   uint64
	closed   bool

	mu sync.RWMutex
}

type subscription struct {
	id      domain.SubscriptionID
	handler domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus. logger may be nil.
func NewSyncEventBus(logger *slog.Logger) *SyncEventBus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SyncEventBus{
		logger:   logger.With(slog.String("adapter", "eventbus")),
		handlers: make(map[domain.EventType][]subscription),
	}
}

// Publish calls every handler subscribed to the event's type, then every wildcard handler.
// A panicking handler is logged and does not stop delivery to the others.
// Publishing on a closed bus or publishing nil does nothing.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	targets := slices.Concat(bus.handlers[event.Type()], bus.handlers[wildcard])
	bus.mu.RUnlock()

	bus.logger.Debug("publish",
		slog.String("event_type", string(event.Type())),
		slog.Int("handlers", len(targets)))

	for _, sub := range targets {
		bus.deliver(sub, event)
	}
}

func (bus *SyncEventBus) deliver(sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.logger.Error("event handler panicked",
				slog.String("subscription", string(sub.id)),
				slog.String("event_type", string(event.Type())),
				slog.Any("panic", r))
		}
	}()
	sub.handler(event)
}

// Subscribe registers handler for one event type.
// It panics on a nil handler or a closed bus.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(eventType, "sub", handler)
}

// SubscribeAll registers handler for every event type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(wildcard, "sub-all", handler)
}

func (bus *SyncEventBus) add(key domain.EventType, prefix string, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	bus.lastID++
	id := domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, bus.lastID))
	bus.handlers[key] = append(bus.handlers[key], subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for key, subs := range bus.handlers {
		i := slices.IndexFunc(subs, func(s subscription) bool { return s.id == id })
		if i < 0 {
			continue
		}
		// Copy so that a Publish iterating the old slice is unaffected.
		remaining := slices.Delete(slices.Clone(subs), i, i+1)
		if len(remaining) == 0 {
			delete(bus.handlers, key)
		} else {
			bus.handlers[key] = remaining
		}
		return
	}
}

// HasSubscribers reports whether a Publish of eventType would reach any handler.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.handlers[eventType]) > 0 || len(bus.handlers[wildcard]) > 0
}

// SubscriberCount returns the number of active subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	count := 0
	for _, subs := range bus.handlers {
		count += len(subs)
	}
	return count
}

// Close drops all subscriptions. Later publishes are ignored.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrClosed
	}
	bus.closed = true
	clear(bus.handlers)
	return nil
}

// On subscribes a handler typed to the concrete event struct.
// Events of the given type that are not a T are ignored.
func On[T domain.Event](bus ports.EventBus, eventType domain.EventType, handler func(T)) domain.SubscriptionID {
	return bus.Subscribe(eventType, func(event domain.Event) {
		if e, ok := event.(T); ok {
			handler(e)
		}
	})
}

// Verify that SyncEventBus implements the EventBus interface
var _ ports.EventBus = (*SyncEventBus)(nil)
