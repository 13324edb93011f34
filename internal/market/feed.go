package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Feed is an ordered source of bars. Bars must arrive with non-decreasing
// timestamps; the feed is trusted, pre-sorted input and is not validated
// downstream.
type Feed interface {
	// Bars returns a channel that yields every bar in order and is closed
	// when the feed is exhausted or ctx is cancelled.
	Bars(ctx context.Context) <-chan Bar
}

// SliceFeed replays an in-memory slice of bars. Used for dry runs and
// CSV-driven replays.
type SliceFeed struct {
	bars []Bar
}

// NewSliceFeed creates a feed over the given bars.
func NewSliceFeed(bars []Bar) *SliceFeed {
	return &SliceFeed{bars: bars}
}

// Bars streams the underlying slice on a fresh channel. The feeder
// goroutine exits when ctx is cancelled so an abandoned consumer does
// not strand it on the send.
func (f *SliceFeed) Bars(ctx context.Context) <-chan Bar {
	ch := make(chan Bar)
	go func() {
		defer close(ch)
		for _, b := range f.bars {
			select {
			case ch <- b:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// ConstantMove builds a synthetic series that drifts by a fixed increment
// each minute. Negative drift produces a falling series.
func ConstantMove(start time.Time, startPrice float64, bars int, drift float64) []Bar {
	out := make([]Bar, 0, bars)
	lastClose := startPrice
	for i := 0; i < bars; i++ {
		abs := drift
		if abs < 0 {
			abs = -abs
		}
		open := lastClose
		b := Bar{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      open,
			High:      open + abs,
			Low:       open - abs,
			Close:     open + drift,
		}
		out = append(out, b)
		lastClose = b.Close
	}
	return out
}

// LoadBarsCSV reads bars from a CSV file with a header row of
// timestamp,open,high,low,close and an optional volume column. Timestamps
// are RFC 3339; a trailing "Z" is accepted.
func LoadBarsCSV(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read bars csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("bars csv %s is empty", path)
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"timestamp", "open", "high", "low", "close"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("bars csv %s missing column %q", path, required)
		}
	}

	bars := make([]Bar, 0, len(rows)-1)
	for n, row := range rows[1:] {
		ts, err := time.Parse(time.RFC3339, row[cols["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("bars csv row %d: bad timestamp: %w", n+2, err)
		}
		bar := Bar{Timestamp: ts}
		for name, dst := range map[string]*float64{
			"open":  &bar.Open,
			"high":  &bar.High,
			"low":   &bar.Low,
			"close": &bar.Close,
		} {
			v, err := strconv.ParseFloat(row[cols[name]], 64)
			if err != nil {
				return nil, fmt.Errorf("bars csv row %d: bad %s: %w", n+2, name, err)
			}
			*dst = v
		}
		if idx, ok := cols["volume"]; ok && idx < len(row) && row[idx] != "" {
			v, err := strconv.ParseFloat(row[idx], 64)
			if err != nil {
				return nil, fmt.Errorf("bars csv row %d: bad volume: %w", n+2, err)
			}
			bar.Volume = v
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
