package market

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestBarDerivedMetrics covers the body and wick accessors on a bullish
// candle with wicks on both sides.
func TestBarDerivedMetrics(t *testing.T) {
	bar := Bar{Open: 1.2000, High: 1.2015, Low: 1.1990, Close: 1.2010}

	if bar.BodyHigh() != 1.2010 || bar.BodyLow() != 1.2000 {
		t.Errorf("Unexpected body edges %f / %f", bar.BodyLow(), bar.BodyHigh())
	}
	if !closeTo(bar.Range(), 0.0025) {
		t.Errorf("Expected range 0.0025, got %f", bar.Range())
	}
	if !closeTo(bar.BodySize(), 0.0010) {
		t.Errorf("Expected body size 0.0010, got %f", bar.BodySize())
	}
	if !closeTo(bar.UpperWickSize(), 0.0005) {
		t.Errorf("Expected upper wick 0.0005, got %f", bar.UpperWickSize())
	}
	if !closeTo(bar.LowerWickSize(), 0.0010) {
		t.Errorf("Expected lower wick 0.0010, got %f", bar.LowerWickSize())
	}
	if !bar.IsBullish() {
		t.Error("Close above open should be bullish")
	}
}

func closeTo(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}

// TestSliceFeedReplaysInOrder checks the channel yields every bar in
// sequence and closes.
func TestSliceFeedReplaysInOrder(t *testing.T) {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	bars := ConstantMove(start, 1.2700, 5, 0.0002)

	var replayed []Bar
	for bar := range NewSliceFeed(bars).Bars(context.Background()) {
		replayed = append(replayed, bar)
	}

	if len(replayed) != 5 {
		t.Fatalf("Expected 5 bars, got %d", len(replayed))
	}
	for i, bar := range replayed {
		if !bar.Timestamp.Equal(bars[i].Timestamp) {
			t.Errorf("Bar %d out of order: %s", i, bar.Timestamp)
		}
	}
}

// TestSliceFeedStopsOnCancel cancels the context with bars still
// unsent and checks the channel closes instead of stranding the feeder
// on a send nobody receives.
func TestSliceFeedStopsOnCancel(t *testing.T) {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	bars := ConstantMove(start, 1.2700, 100, 0.0002)

	ctx, cancel := context.WithCancel(context.Background())
	ch := NewSliceFeed(bars).Bars(ctx)

	// Take one bar, then walk away mid-feed.
	<-ch
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Feed channel did not close after cancel")
		}
	}
}

// TestConstantMoveChains checks each bar opens at the prior close and
// drifts by the increment.
func TestConstantMoveChains(t *testing.T) {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	bars := ConstantMove(start, 1.2700, 3, 0.0002)

	if !closeTo(bars[0].Open, 1.2700) {
		t.Errorf("Expected first open 1.2700, got %f", bars[0].Open)
	}
	for i := 1; i < len(bars); i++ {
		if !closeTo(bars[i].Open, bars[i-1].Close) {
			t.Errorf("Bar %d opens at %f, prior close %f", i, bars[i].Open, bars[i-1].Close)
		}
		if !closeTo(bars[i].Close-bars[i].Open, 0.0002) {
			t.Errorf("Bar %d drift %f, want 0.0002", i, bars[i].Close-bars[i].Open)
		}
	}
}

// TestLoadBarsCSV round-trips a small file, including the optional volume
// column.
func TestLoadBarsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	body := "timestamp,open,high,low,close,volume\n" +
		"2024-03-04T09:00:00Z,1.2700,1.2710,1.2690,1.2705,120\n" +
		"2024-03-04T09:01:00Z,1.2705,1.2712,1.2701,1.2710,\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}

	bars, err := LoadBarsCSV(path)
	if err != nil {
		t.Fatalf("Failed to load bars: %v", err)
	}

	if len(bars) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(bars))
	}
	if !bars[0].Timestamp.Equal(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected first timestamp %s", bars[0].Timestamp)
	}
	if bars[0].Volume != 120 {
		t.Errorf("Expected volume 120, got %f", bars[0].Volume)
	}
	if bars[1].Volume != 0 {
		t.Errorf("Empty volume cell should stay zero, got %f", bars[1].Volume)
	}
	if !closeTo(bars[1].Close, 1.2710) {
		t.Errorf("Expected close 1.2710, got %f", bars[1].Close)
	}
}

// TestLoadBarsCSVMissingColumn rejects a file without a close column.
func TestLoadBarsCSVMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	body := "timestamp,open,high,low\n2024-03-04T09:00:00Z,1,1,1\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}

	if _, err := LoadBarsCSV(path); err == nil {
		t.Fatal("Expected an error for a missing close column")
	}
}
