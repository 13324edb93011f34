package bridge

import (
	"time"

	"smc-trading-bot/internal/market"
)

// Aggregator folds ticks into minute bars using the mid price. A bar is
// emitted only when a tick arrives in a later minute, so the final
// in-progress bar of a stream is never flushed.
type Aggregator struct {
	symbol        string
	currentMinute time.Time
	open          float64
	high          float64
	low           float64
	close         float64
	started       bool
}

// NewAggregator creates an aggregator for one symbol.
func NewAggregator(symbol string) *Aggregator {
	return &Aggregator{symbol: symbol}
}

// OnTick consumes one tick. When the tick opens a new minute, the
// finished bar for the previous minute is returned with ok=true.
func (a *Aggregator) OnTick(tick Tick) (market.Bar, bool) {
	minute := tick.Time.Truncate(time.Minute)
	price := tick.Mid()

	if !a.started {
		a.start(minute, price)
		return market.Bar{}, false
	}

	if minute.Equal(a.currentMinute) {
		if price > a.high {
			a.high = price
		}
		if price < a.low {
			a.low = price
		}
		a.close = price
		return market.Bar{}, false
	}

	finished := market.Bar{
		Timestamp: a.currentMinute,
		Open:      a.open,
		High:      a.high,
		Low:       a.low,
		Close:     a.close,
	}
	a.start(minute, price)
	return finished, true
}

func (a *Aggregator) start(minute time.Time, price float64) {
	a.currentMinute = minute
	a.open = price
	a.high = price
	a.low = price
	a.close = price
	a.started = true
}
