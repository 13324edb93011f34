// Package market provides the price-bar model and bar feeds for the bot.
package market

import (
	"math"
	"time"
)

// Bar is a single OHLCV price bar. Bars are value types and are never
// mutated after construction.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// BodyHigh returns the upper edge of the candle body.
func (b Bar) BodyHigh() float64 {
	return math.Max(b.Open, b.Close)
}

// BodyLow returns the lower edge of the candle body.
func (b Bar) BodyLow() float64 {
	return math.Min(b.Open, b.Close)
}

// Range returns the full high-to-low extent of the bar.
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// BodySize returns the absolute open-to-close distance.
func (b Bar) BodySize() float64 {
	return math.Abs(b.Close - b.Open)
}

// UpperWickSize returns the distance from the body top to the high.
func (b Bar) UpperWickSize() float64 {
	return b.High - b.BodyHigh()
}

// LowerWickSize returns the distance from the low to the body bottom.
func (b Bar) LowerWickSize() float64 {
	return b.BodyLow() - b.Low
}

// IsBullish reports whether the bar closed above its open.
func (b Bar) IsBullish() bool {
	return b.Close > b.Open
}
