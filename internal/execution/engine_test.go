package execution

import (
	"math"
	"testing"
	"time"

	"smc-trading-bot/internal/market"
	"smc-trading-bot/internal/strategy"
)

func barSpanning(high, low float64) market.Bar {
	return market.Bar{
		Timestamp: time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
		Open:      (high + low) / 2,
		High:      high,
		Low:       low,
		Close:     (high + low) / 2,
	}
}

// TestPlaceOrderAssignsIDs checks ids are monotonic and never reused.
func TestPlaceOrderAssignsIDs(t *testing.T) {
	e := NewEngine()
	opened := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	a := e.PlaceOrder(strategy.DirectionLong, 1.2000, 1.1990, 1.2050, 100, "poi-a", opened)
	b := e.PlaceOrder(strategy.DirectionShort, 1.2020, 1.2030, 1.1970, 50, "poi-b", opened)

	if a.ID != 1 || b.ID != 2 {
		t.Errorf("Expected ids 1 and 2, got %d and %d", a.ID, b.ID)
	}
	if !a.Active() || !b.Active() {
		t.Error("Fresh positions should be active")
	}
	if len(e.OpenPositions()) != 2 {
		t.Errorf("Expected 2 open positions, got %d", len(e.OpenPositions()))
	}
}

// TestLongRoundTripStopLoss opens a long, runs it into its stop, and
// checks the realized pnl and open-index removal.
func TestLongRoundTripStopLoss(t *testing.T) {
	e := NewEngine()
	opened := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	e.PlaceOrder(strategy.DirectionLong, 1.2000, 1.1990, 1.2050, 100, "poi-a", opened)

	closed := e.OnPrice(barSpanning(1.2005, 1.1985))

	if len(closed) != 1 {
		t.Fatalf("Expected 1 closed position, got %d", len(closed))
	}
	pos := closed[0]
	if pos.PnL == nil || math.Abs(*pos.PnL-(-0.10)) > 1e-9 {
		t.Errorf("Expected pnl -0.10, got %v", pos.PnL)
	}
	if pos.ClosedAt == nil || !pos.ClosedAt.Equal(barSpanning(1.2005, 1.1985).Timestamp) {
		t.Errorf("Expected close stamped with the bar time, got %v", pos.ClosedAt)
	}
	if len(e.OpenPositions()) != 0 {
		t.Error("Closed position should leave the open index")
	}
}

// TestShortRoundTripSigns checks pnl signs for a short at both exits.
func TestShortRoundTripSigns(t *testing.T) {
	e := NewEngine()
	opened := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	e.PlaceOrder(strategy.DirectionShort, 1.2000, 1.2010, 1.1950, 100, "stopped", opened)
	closed := e.OnPrice(barSpanning(1.2015, 1.1995))
	if len(closed) != 1 || *closed[0].PnL >= 0 {
		t.Fatalf("Short stop should lose, got %+v", closed)
	}

	e.PlaceOrder(strategy.DirectionShort, 1.2000, 1.2010, 1.1950, 100, "target", opened)
	closed = e.OnPrice(barSpanning(1.2005, 1.1945))
	if len(closed) != 1 || *closed[0].PnL <= 0 {
		t.Fatalf("Short target should win, got %+v", closed)
	}
	if math.Abs(*closed[0].PnL-0.50) > 1e-9 {
		t.Errorf("Expected pnl 0.50, got %f", *closed[0].PnL)
	}
}

// TestStopCheckedBeforeTarget checks the worst-case resolution when one
// bar spans both bracket levels.
func TestStopCheckedBeforeTarget(t *testing.T) {
	e := NewEngine()
	opened := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	e.PlaceOrder(strategy.DirectionLong, 1.2000, 1.1990, 1.2050, 100, "both", opened)

	closed := e.OnPrice(barSpanning(1.2060, 1.1980))

	if len(closed) != 1 {
		t.Fatalf("Expected 1 closed position, got %d", len(closed))
	}
	if *closed[0].PnL >= 0 {
		t.Errorf("Bar touching both levels should resolve to the stop, got pnl %f", *closed[0].PnL)
	}
}

// TestOnPriceLeavesUntouchedOpen checks a bar inside the bracket closes
// nothing.
func TestOnPriceLeavesUntouchedOpen(t *testing.T) {
	e := NewEngine()
	opened := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	e.PlaceOrder(strategy.DirectionLong, 1.2000, 1.1990, 1.2050, 100, "poi-a", opened)

	if closed := e.OnPrice(barSpanning(1.2010, 1.1995)); len(closed) != 0 {
		t.Errorf("Expected no closes, got %d", len(closed))
	}
	if len(e.OpenPositions()) != 1 {
		t.Errorf("Position should remain open, got %d", len(e.OpenPositions()))
	}
}

// TestFlattenAllZeroesOpenBook checks flatten closes everything at zero
// pnl while preserving the trade log.
func TestFlattenAllZeroesOpenBook(t *testing.T) {
	e := NewEngine()
	opened := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	e.PlaceOrder(strategy.DirectionLong, 1.2000, 1.1990, 1.2050, 100, "a", opened)
	e.PlaceOrder(strategy.DirectionShort, 1.2020, 1.2030, 1.1970, 50, "b", opened)

	e.FlattenAll(opened.Add(time.Hour))

	if len(e.OpenPositions()) != 0 {
		t.Errorf("Expected empty open index, got %d", len(e.OpenPositions()))
	}
	log := e.TradeLog()
	if len(log) != 2 {
		t.Fatalf("Expected 2 logged trades, got %d", len(log))
	}
	for _, pos := range log {
		if pos.Active() {
			t.Errorf("Position %d still active after flatten", pos.ID)
		}
		if pos.PnL == nil || *pos.PnL != 0 {
			t.Errorf("Flattened position %d should have zero pnl, got %v", pos.ID, pos.PnL)
		}
	}
}
