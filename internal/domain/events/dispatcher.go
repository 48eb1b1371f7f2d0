package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// EventHandler is a function that handles a domain event
type EventHandler func(ctx context.Context, event DomainEvent) error

// Dispatcher delivers events to registered handlers. Handlers run one after
// another in registration order on the caller's goroutine.
type Dispatcher struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]EventHandler),
	}
}

// Register registers an event handler for a specific event type
func (d *Dispatcher) Register(eventType string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// RegisterAll registers one handler for several event types
func (d *Dispatcher) RegisterAll(handler EventHandler, eventTypes ...string) {
	for _, eventType := range eventTypes {
		d.Register(eventType, handler)
	}
}

// Dispatch dispatches an event to all registered handlers. Every handler
// runs even if an earlier one failed.
func (d *Dispatcher) Dispatch(ctx context.Context, event DomainEvent) error {
	if d == nil {
		return nil
	}

	d.mu.RLock()
	handlers := append([]EventHandler(nil), d.handlers[event.EventType()]...)
	d.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			log.Debug().
				Str("event", event.EventType()).
				Str("event_id", event.EventID()).
				Err(err).
				Msg("event handler failed")
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors occurred while dispatching event: %w", errors.Join(errs...))
	}

	return nil
}

// DispatchAll dispatches multiple events
func (d *Dispatcher) DispatchAll(ctx context.Context, events []DomainEvent) error {
	for _, event := range events {
		if err := d.Dispatch(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
