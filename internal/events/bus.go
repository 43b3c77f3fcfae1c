// Package events provides the in-process pub/sub bus that connects the
// analysis pipeline to the SSE stream and other listeners.
package events

import (
	"sync"
	"time"
)

// EventType identifies a class of event.
type EventType string

// Known event types.
const (
	TradesIngested   EventType = "trades_ingested"
	HoldingsIngested EventType = "holdings_ingested"
	RunStarted       EventType = "run_started"
	RunCompleted     EventType = "run_completed"
	RunFailed        EventType = "run_failed"
	AlertEmitted     EventType = "alert_emitted"
	PnLUpdated       EventType = "pnl_updated"
)

// AllTypes lists every known event type, for unfiltered subscriptions.
var AllTypes = []EventType{
	TradesIngested,
	HoldingsIngested,
	RunStarted,
	RunCompleted,
	RunFailed,
	AlertEmitted,
	PnLUpdated,
}

// Event is one published event.
type Event struct {
	Type      EventType   `json:"type"`
	Module    string      `json:"module"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Handler receives published events. Handlers must not block: publishing
// runs them synchronously on the publisher's goroutine.
type Handler func(event *Event)

// Bus is a simple synchronous pub/sub bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates an event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers an event to every subscriber of its type.
func (b *Bus) Publish(eventType EventType, module string, data interface{}) {
	event := &Event{
		Type:      eventType,
		Module:    module,
		Timestamp: time.Now(),
		Data:      data,
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[eventType]))
	copy(handlers, b.handlers[eventType])
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
