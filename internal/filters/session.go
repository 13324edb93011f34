// Package filters provides the trading guardrails that gate signal
// generation: the session time window and the scheduled-news blackout.
// Both are pure predicates over a timestamp.
package filters

import (
	"fmt"
	"time"
)

// SessionConfig describes the tradable time-of-day window, evaluated in
// the configured time zone.
type SessionConfig struct {
	StartHour   int    `json:"start_hour"`
	StartMinute int    `json:"start_minute"`
	EndHour     int    `json:"end_hour"`
	EndMinute   int    `json:"end_minute"`
	Timezone    string `json:"timezone"`
}

// DefaultSessionConfig is the 07:00-13:00 London window.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		StartHour: 7,
		EndHour:   13,
		Timezone:  "Europe/London",
	}
}

// SessionFilter checks whether a timestamp falls inside the configured
// session window.
type SessionFilter struct {
	cfg SessionConfig
	loc *time.Location
}

// NewSessionFilter loads the configured time zone and builds the filter.
func NewSessionFilter(cfg SessionConfig) (*SessionFilter, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("session timezone %q: %w", cfg.Timezone, err)
	}
	return &SessionFilter{cfg: cfg, loc: loc}, nil
}

// InSession reports whether now falls within the same-day [start, end]
// window, bounds inclusive, in the session time zone.
func (f *SessionFilter) InSession(now time.Time) bool {
	local := now.In(f.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(),
		f.cfg.StartHour, f.cfg.StartMinute, 0, 0, f.loc)
	end := time.Date(local.Year(), local.Month(), local.Day(),
		f.cfg.EndHour, f.cfg.EndMinute, 0, 0, f.loc)
	return !local.Before(start) && !local.After(end)
}
