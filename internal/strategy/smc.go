package strategy

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"smc-trading-bot/internal/market"
)

const (
	// inducementTolerance is the maximum close-to-close distance of the two
	// bars preceding a sweep, as a fraction of the larger of their ranges,
	// for the pair to count as a pre-sweep consolidation.
	inducementTolerance = 0.15

	// minStopDistance is the floor applied when a POI zone is degenerate
	// and the stop distance has to fall back to half the trigger bar range.
	minStopDistance = 0.0005
)

// structure-break flag values
const (
	structureUp   = "up"
	structureDown = "down"
)

// SMCConfig tunes the sweep detector.
type SMCConfig struct {
	// RewardRMultiple is the take-profit distance as a multiple of the stop
	// distance. Zero selects the default of 5.
	RewardRMultiple float64
}

// SMC detects liquidity-sweep reversal setups: a bar that runs beyond the
// prior two highs or lows and closes back against the move, ideally after
// a tight consolidation and counter to the last structure break.
//
// The detector keeps an append-only bar history; the bar being evaluated
// is never part of the history it is compared against.
//
// OnBar runs on the bot goroutine only. The POI map is additionally read
// by API snapshots from other goroutines, so it has its own lock.
type SMC struct {
	cfg     SMCConfig
	history []market.Bar
	lastBOS string
	logger  zerolog.Logger

	poiMu sync.RWMutex
	pois  map[string]POI
}

var _ Strategy = (*SMC)(nil)

// NewSMC creates the sweep detector.
func NewSMC(cfg SMCConfig, logger zerolog.Logger) *SMC {
	if cfg.RewardRMultiple <= 0 {
		cfg.RewardRMultiple = 5
	}
	return &SMC{
		cfg:    cfg,
		pois:   make(map[string]POI),
		logger: logger.With().Str("component", "smc").Logger(),
	}
}

// Name returns the strategy identifier.
func (s *SMC) Name() string {
	return "smc-liquidity-sweep"
}

// OnBar runs one detection pass. The bar is appended to history after
// detection, so a bar never matches against itself.
func (s *SMC) OnBar(bar market.Bar) []ProposedOrder {
	var orders []ProposedOrder

	s.updateStructure(bar)
	if dir, ok := s.detectSweep(bar); ok {
		if poi, ok := s.registerPOI(bar, dir); ok {
			orders = append(orders, s.buildOrder(bar, poi))
		}
	}

	s.history = append(s.history, bar)
	return orders
}

// OpenPOIs returns the retained POIs ordered by creation time. Safe to
// call from any goroutine.
func (s *SMC) OpenPOIs() []POI {
	s.poiMu.RLock()
	out := make([]POI, 0, len(s.pois))
	for _, p := range s.pois {
		out = append(out, p)
	}
	s.poiMu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// updateStructure tracks the most recent break of structure: a higher high
// flips the flag up, a lower low flips it down, anything else leaves it.
// Only the immediately preceding bar matters.
func (s *SMC) updateStructure(bar market.Bar) {
	if len(s.history) == 0 {
		return
	}
	prev := s.history[len(s.history)-1]
	switch {
	case bar.High > prev.High:
		s.lastBOS = structureUp
	case bar.Low < prev.Low:
		s.lastBOS = structureDown
	}
}

// detectSweep looks for a sweep of the prior two bars' extremes with a
// rejection close. At most one direction fires per bar.
func (s *SMC) detectSweep(bar market.Bar) (Direction, bool) {
	if len(s.history) < 2 {
		return "", false
	}
	prev := s.history[len(s.history)-1]
	prev2 := s.history[len(s.history)-2]

	sweptAbove := bar.High > prev.High && prev.High >= prev2.High && bar.Close < bar.Open
	sweptBelow := bar.Low < prev.Low && prev.Low <= prev2.Low && bar.Close > bar.Open
	switch {
	case sweptAbove:
		return DirectionShort, true
	case sweptBelow:
		return DirectionLong, true
	}
	return "", false
}

// inducementPresent reports whether the two bars preceding the sweep
// closed within a tight band of each other, relative to the larger of
// their ranges.
func (s *SMC) inducementPresent() bool {
	if len(s.history) < 2 {
		return false
	}
	prev := s.history[len(s.history)-1]
	prev2 := s.history[len(s.history)-2]
	return math.Abs(prev.Close-prev2.Close) < math.Max(prev.Range(), prev2.Range())*inducementTolerance
}

// anchoredToBreak reports whether the sweep runs counter to the last
// recorded structure break: shorts need a prior up break, longs a prior
// down break.
func (s *SMC) anchoredToBreak(dir Direction) bool {
	if dir == DirectionShort {
		return s.lastBOS == structureUp
	}
	return s.lastBOS == structureDown
}

// selectZone picks the POI bounds on the trigger bar. When either wick
// exceeds the body, the zone extends from the body edge to the directional
// wick extreme; otherwise it is just the body. Bounds are normalized so
// low <= high.
func (s *SMC) selectZone(bar market.Bar, dir Direction) (low, high float64) {
	wickBiased := bar.UpperWickSize() > bar.BodySize() || bar.LowerWickSize() > bar.BodySize()
	if wickBiased {
		if dir == DirectionShort {
			high = bar.High
		} else {
			high = bar.BodyHigh()
		}
		if dir == DirectionLong {
			low = bar.BodyLow()
		} else {
			low = bar.Low
		}
	} else {
		low, high = bar.BodyLow(), bar.BodyHigh()
	}
	if low > high {
		low, high = high, low
	}
	return low, high
}

// registerPOI builds the POI for a detected sweep and retains it only when
// it is tradable. The id derives from the trigger bar timestamp and the
// direction, so re-detection on the same bar cannot duplicate it.
func (s *SMC) registerPOI(bar market.Bar, dir Direction) (POI, bool) {
	low, high := s.selectZone(bar, dir)
	poi := POI{
		ID:             fmt.Sprintf("%s-%s", bar.Timestamp.UTC().Format("20060102T150405Z"), dir),
		Direction:      dir,
		ZoneLow:        low,
		ZoneHigh:       high,
		Inducement:     s.inducementPresent(),
		SweptLiquidity: s.anchoredToBreak(dir),
		CreatedAt:      bar.Timestamp,
	}
	if !poi.Tradable() {
		s.logger.Debug().Str("poi", poi.ID).Msg("sweep without inducement or structure anchor, discarded")
		return POI{}, false
	}
	s.poiMu.Lock()
	s.pois[poi.ID] = poi
	s.poiMu.Unlock()
	s.logger.Info().
		Str("poi", poi.ID).
		Str("direction", string(dir)).
		Float64("zone_low", low).
		Float64("zone_high", high).
		Bool("inducement", poi.Inducement).
		Bool("swept_liquidity", poi.SweptLiquidity).
		Msg("POI registered")
	return poi, true
}

// buildOrder turns a retained POI into a bracket order. The stop distance
// is the zone width, with a fallback for degenerate zones.
func (s *SMC) buildOrder(bar market.Bar, poi POI) ProposedOrder {
	stopDistance := poi.Width()
	if stopDistance <= 0 {
		stopDistance = math.Max(minStopDistance, bar.Range()*0.5)
	}

	var entry, stop, tp float64
	if poi.Direction == DirectionShort {
		entry = poi.ZoneHigh
		stop = entry + stopDistance
		tp = entry - stopDistance*s.cfg.RewardRMultiple
	} else {
		entry = poi.ZoneLow
		stop = entry - stopDistance
		tp = entry + stopDistance*s.cfg.RewardRMultiple
	}
	return ProposedOrder{
		POI:        poi,
		Direction:  poi.Direction,
		Entry:      entry,
		Stop:       stop,
		TakeProfit: tp,
	}
}
