// Package events provides the in-process observer bus that fans position
// lifecycle events out to sinks (metrics, notifications) without coupling
// them to the orchestrator.
package events

import (
	"sync"
	"time"
)

// EventType represents the kinds of events the bot publishes.
type EventType string

const (
	EventPositionOpened  EventType = "POSITION_OPENED"
	EventPositionClosed  EventType = "POSITION_CLOSED"
	EventOrderRejected   EventType = "ORDER_REJECTED"
	EventGuardrailBlock  EventType = "GUARDRAIL_BLOCK"
	EventSignalGenerated EventType = "SIGNAL_GENERATED"
)

// Event is one published occurrence. Data carries a value-copied payload;
// subscribers must not assume shared state with the publisher.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events.
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
	}
}

// Subscribe registers a subscriber for a specific event type.
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events.
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all matching subscribers. Delivery runs in
// goroutines so a slow sink (e.g. a webhook) cannot stall the decision
// loop.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, sub := range eb.subscribers[event.Type] {
		go sub(event)
	}
	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishPositionOpened publishes a fill on a new position.
func (eb *EventBus) PublishPositionOpened(clientID, symbol, side string, entry, units float64) {
	eb.Publish(Event{
		Type: EventPositionOpened,
		Data: map[string]interface{}{
			"client_id": clientID,
			"symbol":    symbol,
			"side":      side,
			"entry":     entry,
			"units":     units,
		},
	})
}

// PublishPositionClosed publishes a realized close, including flattens.
func (eb *EventBus) PublishPositionClosed(clientID, symbol, reason string, pnl, equity float64) {
	eb.Publish(Event{
		Type: EventPositionClosed,
		Data: map[string]interface{}{
			"client_id": clientID,
			"symbol":    symbol,
			"reason":    reason,
			"pnl":       pnl,
			"equity":    equity,
		},
	})
}

// PublishOrderRejected publishes a venue rejection.
func (eb *EventBus) PublishOrderRejected(clientID, reason string) {
	eb.Publish(Event{
		Type: EventOrderRejected,
		Data: map[string]interface{}{
			"client_id": clientID,
			"reason":    reason,
		},
	})
}

// PublishGuardrailBlock publishes a guardrail override that flattened the
// book for this bar.
func (eb *EventBus) PublishGuardrailBlock(reason string, at time.Time) {
	eb.Publish(Event{
		Type:      EventGuardrailBlock,
		Timestamp: at,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// PublishSignal publishes a proposed order before sizing.
func (eb *EventBus) PublishSignal(poiID, direction string, entry, stop, takeProfit float64) {
	eb.Publish(Event{
		Type: EventSignalGenerated,
		Data: map[string]interface{}{
			"poi_id":      poiID,
			"direction":   direction,
			"entry":       entry,
			"stop":        stop,
			"take_profit": takeProfit,
		},
	})
}
