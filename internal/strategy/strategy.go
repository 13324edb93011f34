// Package strategy contains the signal-generation side of the bot: the
// Strategy interface and the liquidity-sweep (SMC) detector.
package strategy

import (
	"time"

	"smc-trading-bot/internal/market"
)

// Direction is the trade direction of a POI or proposed order.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Side maps the direction to a broker order side.
func (d Direction) Side() string {
	if d == DirectionLong {
		return "buy"
	}
	return "sell"
}

// Strategy consumes one bar at a time and emits zero or more proposed
// orders. Implementations are pure functions of their accumulated bar
// history; they never touch broker or position state.
type Strategy interface {
	// Name returns the strategy identifier.
	Name() string

	// OnBar processes the next bar and returns any orders it proposes.
	OnBar(bar market.Bar) []ProposedOrder

	// OpenPOIs returns a snapshot of the currently retained POIs.
	OpenPOIs() []POI
}

// POI is a candidate reversal zone produced by a detected liquidity sweep.
// A POI is created (and possibly discarded) on the bar that triggers it
// and is read-only afterwards.
type POI struct {
	ID             string    `json:"id"`
	Direction      Direction `json:"direction"`
	ZoneLow        float64   `json:"zone_low"`
	ZoneHigh       float64   `json:"zone_high"`
	Inducement     bool      `json:"inducement"`
	SweptLiquidity bool      `json:"swept_liquidity"`
	CreatedAt      time.Time `json:"created_at"`
}

// Width returns the zone height. ZoneLow <= ZoneHigh always holds, so the
// result is never negative.
func (p POI) Width() float64 {
	return p.ZoneHigh - p.ZoneLow
}

// Tradable reports whether the POI qualifies for order generation: it must
// carry swept liquidity or at least an inducement.
func (p POI) Tradable() bool {
	return p.SweptLiquidity || p.Inducement
}

// ProposedOrder is a bracket order candidate derived from a POI. The take
// profit always sits on the opposite side of the entry from the stop, at
// the configured reward multiple of the stop distance.
type ProposedOrder struct {
	POI        POI       `json:"poi"`
	Direction  Direction `json:"direction"`
	Entry      float64   `json:"entry"`
	Stop       float64   `json:"stop"`
	TakeProfit float64   `json:"take_profit"`
}
