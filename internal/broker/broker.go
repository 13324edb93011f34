// Package broker abstracts the execution venue behind a small capability
// set: place a bracket order, cancel, flatten everything, and drain the
// events the venue has accumulated. Two implementations exist: the
// in-memory PaperBroker and the MT4Broker live adapter.
package broker

import (
	"time"

	"smc-trading-bot/internal/market"
)

// EventType enumerates the venue event kinds.
type EventType string

const (
	EventAck      EventType = "ACK"
	EventReject   EventType = "REJECT"
	EventFill     EventType = "FILL"
	EventClose    EventType = "CLOSE"
	EventSnapshot EventType = "SNAPSHOT"
)

// Event is a single venue-side occurrence. Events are produced by a
// broker and consumed exactly once by the orchestrator's drain loop.
type Event struct {
	Type     EventType              `json:"type"`
	ClientID string                 `json:"client_id"`
	Ticket   int64                  `json:"ticket,omitempty"`
	Time     time.Time              `json:"time"`
	PnL      float64                `json:"pnl,omitempty"`
	Reason   string                 `json:"reason,omitempty"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}

// OrderRequest is a bracket order submission: entry plus protective stop
// and take profit. Outcomes arrive asynchronously through DrainEvents.
type OrderRequest struct {
	ClientID   string  `json:"client_id"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`       // "buy" or "sell"
	OrderType  string  `json:"order_type"` // e.g. "limit"
	Entry      float64 `json:"entry"`
	Stop       float64 `json:"sl"`
	TakeProfit float64 `json:"tp"`
	Units      float64 `json:"units"`
}

// Broker is the execution venue capability set.
type Broker interface {
	// Name returns the venue identifier (e.g. "paper", "mt4").
	Name() string

	// PlaceOrder submits a bracket order. There is no synchronous result;
	// the outcome surfaces as ACK/REJECT/FILL events.
	PlaceOrder(req OrderRequest)

	// Cancel requests best-effort cancellation of an order or open
	// position by its client id.
	Cancel(clientID string)

	// FlattenAll force-closes every open position at the venue, tagging
	// the reason onto the resulting CLOSE events.
	FlattenAll(reason string)

	// DrainEvents returns and clears all events accumulated since the
	// last drain. Safe to call every cycle, including when empty.
	DrainEvents() []Event
}

// BarConsumer is implemented by brokers that evaluate open positions
// against incoming bars (the paper venue). Live venues evaluate stops on
// their own side and do not implement it.
type BarConsumer interface {
	OnBar(bar market.Bar)
}
