package filters

import (
	"time"
)

// NewsEvent is one scheduled high-impact release, expressed as offsets
// from an anchor time supplied when the calendar is materialized.
type NewsEvent struct {
	Title       string        `json:"title"`
	StartOffset time.Duration `json:"start_offset"`
	EndOffset   time.Duration `json:"end_offset"`
}

// NewsConfig holds the blackout buffers and the static event list.
type NewsConfig struct {
	BlackoutBefore time.Duration `json:"blackout_before"`
	BlackoutAfter  time.Duration `json:"blackout_after"`
	Events         []NewsEvent   `json:"events"`
}

// DefaultNewsConfig applies 15-minute buffers around each event.
func DefaultNewsConfig() NewsConfig {
	return NewsConfig{
		BlackoutBefore: 15 * time.Minute,
		BlackoutAfter:  15 * time.Minute,
	}
}

// NewsWindow is one materialized blackout interval.
type NewsWindow struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Active reports whether now lies inside the window, bounds inclusive.
func (w NewsWindow) Active(now time.Time) bool {
	return !now.Before(w.Start) && !now.After(w.End)
}

// NewsFilter blocks trading around scheduled news. Windows are
// materialized lazily from the configured offsets the first time the
// filter is queried; the first query time becomes the anchor.
type NewsFilter struct {
	cfg     NewsConfig
	windows []NewsWindow
	loaded  bool
}

// NewNewsFilter creates an unanchored filter.
func NewNewsFilter(cfg NewsConfig) *NewsFilter {
	return &NewsFilter{cfg: cfg}
}

// LoadFromCalendar rebuilds the blackout windows around the given anchor,
// padding each event with the configured buffers.
func (f *NewsFilter) LoadFromCalendar(anchor time.Time, events []NewsEvent) {
	f.windows = f.windows[:0]
	for _, ev := range events {
		f.windows = append(f.windows, NewsWindow{
			Title: ev.Title,
			Start: anchor.Add(ev.StartOffset - f.cfg.BlackoutBefore),
			End:   anchor.Add(ev.EndOffset + f.cfg.BlackoutAfter),
		})
	}
	f.loaded = true
}

func (f *NewsFilter) sync(now time.Time) {
	if !f.loaded && len(f.cfg.Events) > 0 {
		f.LoadFromCalendar(now, f.cfg.Events)
	}
}

// BlockTrading reports whether now falls inside any blackout window.
func (f *NewsFilter) BlockTrading(now time.Time) bool {
	f.sync(now)
	for _, w := range f.windows {
		if w.Active(now) {
			return true
		}
	}
	return false
}

// ActiveWindowTitles returns the titles of every currently active window,
// for diagnostics.
func (f *NewsFilter) ActiveWindowTitles(now time.Time) []string {
	f.sync(now)
	var titles []string
	for _, w := range f.windows {
		if w.Active(now) {
			titles = append(titles, w.Title)
		}
	}
	return titles
}
