package broker

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"smc-trading-bot/internal/market"
)

// Exit reasons emitted on paper CLOSE events.
const (
	ReasonStopLoss   = "sl"
	ReasonTakeProfit = "tp"
	ReasonCancel     = "cancel"
)

// Compile-time interface checks.
var (
	_ Broker      = (*PaperBroker)(nil)
	_ BarConsumer = (*PaperBroker)(nil)
)

// paperPosition is one simulated open exposure.
type paperPosition struct {
	Ticket     int64
	ClientID   string
	Side       string
	Entry      float64
	Stop       float64
	TakeProfit float64
	Units      float64
	OpenedAt   time.Time
}

// stopOrTarget evaluates the position against one bar and returns the
// realized pnl and exit reason if it closed. The stop is always checked
// before the target: when one bar's range touches both levels, the
// worst-case (stop) fill wins. See StopBeforeTarget.
func (p *paperPosition) stopOrTarget(bar market.Bar) (float64, string, bool) {
	if p.Side == "buy" {
		if bar.Low <= p.Stop {
			return (p.Stop - p.Entry) * p.Units, ReasonStopLoss, true
		}
		if bar.High >= p.TakeProfit {
			return (p.TakeProfit - p.Entry) * p.Units, ReasonTakeProfit, true
		}
		return 0, "", false
	}
	if bar.High >= p.Stop {
		return (p.Entry - p.Stop) * p.Units, ReasonStopLoss, true
	}
	if bar.Low <= p.TakeProfit {
		return (p.Entry - p.TakeProfit) * p.Units, ReasonTakeProfit, true
	}
	return 0, "", false
}

// StopBeforeTarget documents the intrabar tie-break policy: when a single
// bar touches both the stop and the target, the fill is assumed to be the
// stop. This is the pessimistic choice and it is deliberate.
const StopBeforeTarget = true

// PaperBroker simulates a venue in memory. Orders fill immediately at
// the requested entry, open positions are evaluated against each bar,
// and flattening closes everything at zero pnl without consulting a
// market price.
type PaperBroker struct {
	mu         sync.Mutex
	positions  map[string]*paperPosition
	nextTicket int64
	events     []Event
	logger     zerolog.Logger
}

// NewPaperBroker creates an empty paper venue.
func NewPaperBroker(logger zerolog.Logger) *PaperBroker {
	return &PaperBroker{
		positions:  make(map[string]*paperPosition),
		nextTicket: 1,
		logger:     logger.With().Str("component", "paper-broker").Logger(),
	}
}

// Name returns "paper".
func (b *PaperBroker) Name() string { return "paper" }

// PlaceOrder fills immediately at the requested entry and queues the
// FILL event.
func (b *PaperBroker) PlaceOrder(req OrderRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos := &paperPosition{
		Ticket:     b.nextTicket,
		ClientID:   req.ClientID,
		Side:       req.Side,
		Entry:      req.Entry,
		Stop:       req.Stop,
		TakeProfit: req.TakeProfit,
		Units:      req.Units,
		OpenedAt:   time.Now().UTC(),
	}
	b.nextTicket++
	b.positions[req.ClientID] = pos
	b.events = append(b.events, Event{
		Type:     EventFill,
		ClientID: req.ClientID,
		Ticket:   pos.Ticket,
		Time:     pos.OpenedAt,
		Payload: map[string]interface{}{
			"entry": req.Entry,
			"side":  req.Side,
			"units": req.Units,
		},
	})
}

// Cancel closes an open position at zero pnl with the "cancel" reason.
// Unknown ids are ignored.
func (b *PaperBroker) Cancel(clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos, ok := b.positions[clientID]
	if !ok {
		return
	}
	delete(b.positions, clientID)
	b.events = append(b.events, Event{
		Type:     EventClose,
		ClientID: clientID,
		Ticket:   pos.Ticket,
		Time:     time.Now().UTC(),
		PnL:      0,
		Reason:   ReasonCancel,
	})
}

// FlattenAll closes every open position at zero realized pnl. No market
// price is consulted; the zero is a deliberate approximation.
func (b *PaperBroker) FlattenAll(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now().UTC()
	for clientID, pos := range b.positions {
		b.events = append(b.events, Event{
			Type:     EventClose,
			ClientID: clientID,
			Ticket:   pos.Ticket,
			Time:     now,
			PnL:      0,
			Reason:   reason,
		})
		delete(b.positions, clientID)
	}
}

// OnBar evaluates every open position against the bar and queues CLOSE
// events for those that hit their stop or target.
func (b *PaperBroker) OnBar(bar market.Bar) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for clientID, pos := range b.positions {
		pnl, reason, closed := pos.stopOrTarget(bar)
		if !closed {
			continue
		}
		b.events = append(b.events, Event{
			Type:     EventClose,
			ClientID: clientID,
			Ticket:   pos.Ticket,
			Time:     bar.Timestamp,
			PnL:      pnl,
			Reason:   reason,
		})
		delete(b.positions, clientID)
	}
}

// DrainEvents returns and clears the queued events.
func (b *PaperBroker) DrainEvents() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := b.events
	b.events = nil
	return events
}

// OpenPositionCount returns how many simulated positions are open.
func (b *PaperBroker) OpenPositionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.positions)
}
