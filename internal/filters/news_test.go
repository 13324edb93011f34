package filters

import (
	"testing"
	"time"
)

// TestBlockTradingAnchorsOnFirstQuery checks the lazy calendar build: the
// first query time becomes the anchor the offsets hang from.
func TestBlockTradingAnchorsOnFirstQuery(t *testing.T) {
	cfg := DefaultNewsConfig()
	cfg.Events = []NewsEvent{
		{Title: "CPI", StartOffset: time.Hour, EndOffset: time.Hour + 30*time.Minute},
	}
	filter := NewNewsFilter(cfg)

	anchor := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

	// First query anchors the window at [08:45, 09:45] including buffers.
	if filter.BlockTrading(anchor) {
		t.Error("Anchor time itself should be outside the blackout")
	}
	if !filter.BlockTrading(anchor.Add(45 * time.Minute)) {
		t.Error("08:45 should be the inclusive start of the blackout")
	}
	if !filter.BlockTrading(anchor.Add(90 * time.Minute)) {
		t.Error("09:30 sits inside the event itself")
	}
	if !filter.BlockTrading(anchor.Add(105 * time.Minute)) {
		t.Error("09:45 should be the inclusive end of the blackout")
	}
	if filter.BlockTrading(anchor.Add(106 * time.Minute)) {
		t.Error("09:46 should be clear of the blackout")
	}
}

// TestBlockTradingNoEvents verifies an empty calendar never blocks.
func TestBlockTradingNoEvents(t *testing.T) {
	filter := NewNewsFilter(DefaultNewsConfig())

	if filter.BlockTrading(time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)) {
		t.Error("No configured events should never block trading")
	}
}

// TestActiveWindowTitles checks overlapping windows all report their
// titles while inactive ones stay silent.
func TestActiveWindowTitles(t *testing.T) {
	cfg := NewsConfig{
		BlackoutBefore: 15 * time.Minute,
		BlackoutAfter:  15 * time.Minute,
		Events: []NewsEvent{
			{Title: "NFP", StartOffset: 0, EndOffset: 30 * time.Minute},
			{Title: "Rate decision", StartOffset: 10 * time.Minute, EndOffset: 40 * time.Minute},
			{Title: "Later speech", StartOffset: 5 * time.Hour, EndOffset: 6 * time.Hour},
		},
	}
	filter := NewNewsFilter(cfg)

	anchor := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	titles := filter.ActiveWindowTitles(anchor.Add(20 * time.Minute))

	if len(titles) != 2 {
		t.Fatalf("Expected 2 active windows, got %d (%v)", len(titles), titles)
	}
	if titles[0] != "NFP" || titles[1] != "Rate decision" {
		t.Errorf("Unexpected active titles %v", titles)
	}
}

// TestLoadFromCalendarRebuilds verifies an explicit reload replaces the
// previous windows instead of appending to them.
func TestLoadFromCalendarRebuilds(t *testing.T) {
	filter := NewNewsFilter(DefaultNewsConfig())
	anchor := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

	filter.LoadFromCalendar(anchor, []NewsEvent{
		{Title: "Old", StartOffset: 0, EndOffset: 10 * time.Minute},
	})
	filter.LoadFromCalendar(anchor, []NewsEvent{
		{Title: "New", StartOffset: 2 * time.Hour, EndOffset: 3 * time.Hour},
	})

	if filter.BlockTrading(anchor.Add(5 * time.Minute)) {
		t.Error("Old window should be gone after reload")
	}
	titles := filter.ActiveWindowTitles(anchor.Add(150 * time.Minute))
	if len(titles) != 1 || titles[0] != "New" {
		t.Errorf("Expected only the reloaded window, got %v", titles)
	}
}
