// Package bridge is the transport adapter for the MT4 demo bridge: it
// parses the EA's tick stream, folds ticks into minute bars, and carries
// order commands and broker events over WebSocket. It contains no
// decision logic.
package bridge

import (
	"encoding/json"
	"fmt"
	"time"
)

// Tick is one bid/ask quote from the EA.
type Tick struct {
	Symbol string
	Bid    float64
	Ask    float64
	Time   time.Time
}

// Mid returns the bid/ask midpoint, the price bars are built from.
func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

type tickPayload struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Time   float64 `json:"time"` // epoch seconds
}

// ParseTick decodes one JSON tick payload from the EA.
func ParseTick(payload []byte) (Tick, error) {
	var raw tickPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Tick{}, fmt.Errorf("parse tick: %w", err)
	}
	sec := int64(raw.Time)
	nsec := int64((raw.Time - float64(sec)) * 1e9)
	return Tick{
		Symbol: raw.Symbol,
		Bid:    raw.Bid,
		Ask:    raw.Ask,
		Time:   time.Unix(sec, nsec).UTC(),
	}, nil
}
