// Package execution provides the in-process position engine used by the
// broker-less replay variant: it owns open positions, evaluates their
// stop/target outcomes bar by bar, and keeps an append-only trade log.
package execution

import (
	"sync"
	"time"

	"smc-trading-bot/internal/market"
	"smc-trading-bot/internal/strategy"
)

// Position is one exposure held by the engine. Open while ClosedAt is
// nil. Only the engine mutates positions; callers receive value copies.
type Position struct {
	ID         int64              `json:"id"`
	Direction  strategy.Direction `json:"direction"`
	Entry      float64            `json:"entry"`
	Stop       float64            `json:"stop"`
	TakeProfit float64            `json:"take_profit"`
	Units      float64            `json:"units"`
	POIID      string             `json:"poi_id"`
	OpenedAt   time.Time          `json:"opened_at"`
	ClosedAt   *time.Time         `json:"closed_at,omitempty"`
	PnL        *float64           `json:"pnl,omitempty"`
}

// Active reports whether the position is still open.
func (p *Position) Active() bool {
	return p.ClosedAt == nil
}

// checkOutcome returns the realized pnl if the bar's range touched the
// stop or the target. The stop is checked first: a bar touching both
// levels resolves to the worst-case stop fill, matching the paper venue.
func (p *Position) checkOutcome(bar market.Bar) (float64, bool) {
	if !p.Active() {
		return 0, false
	}
	if p.Direction == strategy.DirectionLong {
		if bar.Low <= p.Stop {
			return (p.Stop - p.Entry) * p.Units, true
		}
		if bar.High >= p.TakeProfit {
			return (p.TakeProfit - p.Entry) * p.Units, true
		}
		return 0, false
	}
	if bar.High >= p.Stop {
		return (p.Entry - p.Stop) * p.Units, true
	}
	if bar.Low <= p.TakeProfit {
		return (p.Entry - p.TakeProfit) * p.Units, true
	}
	return 0, false
}

// Engine owns the open-position index and the trade log. Position ids
// are monotonically increasing and never reused.
type Engine struct {
	mu        sync.Mutex
	positions map[int64]*Position
	nextID    int64
	trades    []*Position
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{
		positions: make(map[int64]*Position),
		nextID:    1,
	}
}

// PlaceOrder opens a new position and records it in the trade log. The
// returned copy reflects the position at open time.
func (e *Engine) PlaceOrder(dir strategy.Direction, entry, stop, takeProfit, units float64, poiID string, openedAt time.Time) Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos := &Position{
		ID:         e.nextID,
		Direction:  dir,
		Entry:      entry,
		Stop:       stop,
		TakeProfit: takeProfit,
		Units:      units,
		POIID:      poiID,
		OpenedAt:   openedAt,
	}
	e.positions[pos.ID] = pos
	e.trades = append(e.trades, pos)
	e.nextID++
	return *pos
}

// OnPrice evaluates every open position against the bar and returns
// exactly the set closed by this call, as value copies.
func (e *Engine) OnPrice(bar market.Bar) []Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	var closed []Position
	for id, pos := range e.positions {
		pnl, hit := pos.checkOutcome(bar)
		if !hit {
			continue
		}
		ts := bar.Timestamp
		pos.ClosedAt = &ts
		p := pnl
		pos.PnL = &p
		closed = append(closed, *pos)
		delete(e.positions, id)
	}
	return closed
}

// FlattenAll closes every remaining open position at zero pnl.
func (e *Engine) FlattenAll(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, pos := range e.positions {
		ts := now
		pos.ClosedAt = &ts
		zero := 0.0
		pos.PnL = &zero
		delete(e.positions, id)
	}
}

// OpenPositions returns value copies of the currently open positions.
func (e *Engine) OpenPositions() []Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Position, 0, len(e.positions))
	for _, pos := range e.positions {
		out = append(out, *pos)
	}
	return out
}

// TradeLog returns value copies of every position ever opened, in
// placement order.
func (e *Engine) TradeLog() []Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Position, 0, len(e.trades))
	for _, pos := range e.trades {
		out = append(out, *pos)
	}
	return out
}
