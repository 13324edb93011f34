// Package risk holds the running risk state: equity-based position sizing
// and the consecutive-loss daily stop.
package risk

import (
	"sync"
	"time"
)

// epsilon guards the sizing division against degenerate stop distances.
const epsilon = 1e-6

// Config holds the risk parameters enforced by the bot.
type Config struct {
	// RiskPerTrade is the fraction of equity risked on each trade
	// (0.01 = 1%).
	RiskPerTrade float64 `json:"risk_per_trade"`

	// MaxConsecutiveLosses halts new entries for the rest of the day once
	// this many losing closes occur in a row.
	MaxConsecutiveLosses int `json:"max_consecutive_losses"`

	// RewardRMultiple is the take-profit distance as a multiple of the
	// stop distance.
	RewardRMultiple float64 `json:"reward_r_multiple"`
}

// DefaultConfig returns the parameters the bot ships with.
func DefaultConfig() Config {
	return Config{
		RiskPerTrade:         0.01,
		MaxConsecutiveLosses: 5,
		RewardRMultiple:      5,
	}
}

// OrderSizing is the result of sizing one bracket order.
type OrderSizing struct {
	Units              float64 `json:"units"`
	StopDistance       float64 `json:"stop_distance"`
	TakeProfitDistance float64 `json:"take_profit_distance"`
}

// PositionSizer converts a stop distance into units from the running
// equity. Equity is mutated only by realized pnl on close and is not
// clamped at zero: compounding losses can push it negative, and sizing
// follows it there.
type PositionSizer struct {
	mu     sync.RWMutex
	cfg    Config
	equity float64
}

// NewPositionSizer creates a sizer starting from the given equity.
func NewPositionSizer(equity float64, cfg Config) *PositionSizer {
	return &PositionSizer{cfg: cfg, equity: equity}
}

// SizeOrder returns the units for a trade with the given stop distance.
// The distance is clamped at epsilon so a degenerate stop cannot blow up
// the division.
func (s *PositionSizer) SizeOrder(stopDistance float64) OrderSizing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	riskCapital := s.equity * s.cfg.RiskPerTrade
	clamped := stopDistance
	if clamped < epsilon {
		clamped = epsilon
	}
	return OrderSizing{
		Units:              riskCapital / clamped,
		StopDistance:       stopDistance,
		TakeProfitDistance: stopDistance * s.cfg.RewardRMultiple,
	}
}

// UpdateEquity applies a realized pnl to the running equity.
func (s *PositionSizer) UpdateEquity(pnl float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.equity += pnl
}

// Equity returns the current running equity.
func (s *PositionSizer) Equity() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.equity
}

// DailyLossStopper counts consecutive losing closes and halts trading for
// the rest of the calendar day once the configured maximum is reached. The
// streak resets once per new date and on any non-losing close.
type DailyLossStopper struct {
	mu            sync.Mutex
	cfg           Config
	losses        int
	lastResetYear int
	lastResetDay  int // day of year
	hasReset      bool
}

// NewDailyLossStopper creates a stopper with a zero streak.
func NewDailyLossStopper(cfg Config) *DailyLossStopper {
	return &DailyLossStopper{cfg: cfg}
}

// ResetIfNewSession zeroes the streak exactly once per new calendar date.
func (d *DailyLossStopper) ResetIfNewSession(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetIfNewSessionLocked(now)
}

func (d *DailyLossStopper) resetIfNewSessionLocked(now time.Time) {
	year, day := now.Year(), now.YearDay()
	if !d.hasReset || year != d.lastResetYear || day != d.lastResetDay {
		d.losses = 0
		d.lastResetYear = year
		d.lastResetDay = day
		d.hasReset = true
	}
}

// RegisterResult feeds one realized pnl into the streak: a loss increments
// it, anything else resets it.
func (d *DailyLossStopper) RegisterResult(pnl float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pnl < 0 {
		d.losses++
	} else {
		d.losses = 0
	}
}

// Halted reports whether the loss streak has reached the configured
// maximum, applying the daily reset first.
func (d *DailyLossStopper) Halted(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetIfNewSessionLocked(now)
	return d.losses >= d.cfg.MaxConsecutiveLosses
}

// Streak returns the current consecutive-loss count.
func (d *DailyLossStopper) Streak() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.losses
}

// Limit returns the configured maximum consecutive losses.
func (d *DailyLossStopper) Limit() int {
	return d.cfg.MaxConsecutiveLosses
}
