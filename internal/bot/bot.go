// Package bot contains the per-bar orchestrator. It sequences guardrails,
// broker-event reconciliation, and signal generation in a fixed order: a
// blocked bar flattens the book and skips the strategy entirely, and on
// an unblocked bar venue closes are applied to equity before any new
// order is sized.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"smc-trading-bot/internal/broker"
	"smc-trading-bot/internal/events"
	"smc-trading-bot/internal/filters"
	"smc-trading-bot/internal/market"
	"smc-trading-bot/internal/metrics"
	"smc-trading-bot/internal/risk"
	"smc-trading-bot/internal/strategy"
)

// Guardrail reasons, in priority order. The first blocking guardrail
// wins; its reason is the one tagged onto the flatten.
const (
	ReasonDailyStop    = "daily_stop"
	ReasonSessionBlock = "session_block"
	ReasonNewsBlock    = "news_block"
)

// Config holds the orchestrator's own knobs. Equity lives in the
// position sizer, not here.
type Config struct {
	Symbol string
}

// PlacedOrder is the bot-side record of an order submitted to the venue,
// kept until the matching CLOSE or REJECT arrives.
type PlacedOrder struct {
	ClientID   string             `json:"client_id"`
	POIID      string             `json:"poi_id"`
	Direction  strategy.Direction `json:"direction"`
	Entry      float64            `json:"entry"`
	Stop       float64            `json:"stop"`
	TakeProfit float64            `json:"take_profit"`
	Units      float64            `json:"units"`
	PlacedAt   time.Time          `json:"placed_at"`
}

// ClosedTrade is the bot-side record of a realized close.
type ClosedTrade struct {
	ClientID string    `json:"client_id"`
	Ticket   int64     `json:"ticket,omitempty"`
	PnL      float64   `json:"pnl"`
	Reason   string    `json:"reason,omitempty"`
	ClosedAt time.Time `json:"closed_at"`
}

// Status is the snapshot served by the status API.
type Status struct {
	Symbol     string  `json:"symbol"`
	Broker     string  `json:"broker"`
	Equity     float64 `json:"equity"`
	LossStreak int     `json:"loss_streak"`
	Halted     bool    `json:"halted"`
	OpenOrders int     `json:"open_orders"`
	Trades     int     `json:"trades"`
}

// TradingBot wires the strategy, guardrails, risk controls, and venue
// into the per-bar decision loop. All mutation happens on the single
// goroutine driving ProcessBar; the mutex only guards the read-side
// snapshots served to the status API.
type TradingBot struct {
	cfg      Config
	strategy strategy.Strategy
	session  *filters.SessionFilter
	news     *filters.NewsFilter
	sizer    *risk.PositionSizer
	stopper  *risk.DailyLossStopper
	broker   broker.Broker
	bus      *events.EventBus
	logger   zerolog.Logger

	mu         sync.RWMutex
	openOrders map[string]PlacedOrder
	closed     []ClosedTrade
}

// NewTradingBot assembles the orchestrator.
func NewTradingBot(
	cfg Config,
	strat strategy.Strategy,
	session *filters.SessionFilter,
	news *filters.NewsFilter,
	sizer *risk.PositionSizer,
	stopper *risk.DailyLossStopper,
	b broker.Broker,
	bus *events.EventBus,
	logger zerolog.Logger,
) *TradingBot {
	return &TradingBot{
		cfg:        cfg,
		strategy:   strat,
		session:    session,
		news:       news,
		sizer:      sizer,
		stopper:    stopper,
		broker:     b,
		bus:        bus,
		logger:     logger.With().Str("component", "bot").Logger(),
		openOrders: make(map[string]PlacedOrder),
	}
}

// Run drives the loop until the feed closes or ctx is cancelled, then
// flushes any events left by a final flatten.
func (b *TradingBot) Run(ctx context.Context, bars <-chan market.Bar) {
	for {
		select {
		case bar, ok := <-bars:
			if !ok {
				b.handleBrokerEvents()
				b.logger.Info().Msg("feed exhausted, session complete")
				return
			}
			b.ProcessBar(bar)
		case <-ctx.Done():
			b.broker.FlattenAll("shutdown")
			b.handleBrokerEvents()
			b.logger.Info().Msg("shutdown, book flattened")
			return
		}
	}
}

// ProcessBar runs one full decision cycle for a single bar. The order of
// operations is load-bearing: the daily-loss window resets first, then
// guardrails are evaluated; only an unblocked bar reconciles venue events
// and generates signals, so sizing always sees equity already updated by
// this bar's closes.
func (b *TradingBot) ProcessBar(bar market.Bar) {
	now := bar.Timestamp

	// The paper venue evaluates open brackets against the bar before
	// anything else, so its CLOSE events are available to this cycle.
	if bc, ok := b.broker.(broker.BarConsumer); ok {
		bc.OnBar(bar)
	}

	b.stopper.ResetIfNewSession(now)

	if b.flattenIfBlocked(now) {
		b.handleBrokerEvents()
		return
	}

	b.handleBrokerEvents()

	orders := b.strategy.OnBar(bar)
	if len(orders) > 0 {
		b.placeOrders(orders, now)
	}
}

// flattenIfBlocked evaluates the guardrails in priority order: loss halt,
// then session, then news. The first one that blocks flattens the book
// and wins the reason.
func (b *TradingBot) flattenIfBlocked(now time.Time) bool {
	if b.stopper.Halted(now) {
		b.logger.Warn().Int("streak", b.stopper.Streak()).Msg("consecutive-loss limit reached, flattening")
		b.block(ReasonDailyStop, now)
		return true
	}
	if !b.session.InSession(now) {
		b.logger.Info().Time("now", now).Msg("outside session window, flattening")
		b.block(ReasonSessionBlock, now)
		return true
	}
	if b.news.BlockTrading(now) {
		b.logger.Info().Strs("windows", b.news.ActiveWindowTitles(now)).Msg("news blackout active, flattening")
		b.block(ReasonNewsBlock, now)
		return true
	}
	return false
}

func (b *TradingBot) block(reason string, now time.Time) {
	b.broker.FlattenAll(reason)
	metrics.RecordGuardrailBlock(reason)
	b.bus.PublishGuardrailBlock(reason, now)
}

// handleBrokerEvents drains the venue and reconciles. CLOSE events are
// the only ones that mutate risk state; ACK, REJECT, FILL and SNAPSHOT
// are informational.
func (b *TradingBot) handleBrokerEvents() {
	for _, ev := range b.broker.DrainEvents() {
		switch ev.Type {
		case broker.EventClose:
			b.applyClose(ev)
		case broker.EventReject:
			b.logger.Warn().Str("client_id", ev.ClientID).Str("reason", ev.Reason).Msg("order rejected")
			metrics.RecordReject()
			b.bus.PublishOrderRejected(ev.ClientID, ev.Reason)
			b.forgetOrder(ev.ClientID)
		case broker.EventAck:
			b.logger.Info().Str("client_id", ev.ClientID).Int64("ticket", ev.Ticket).Msg("order ack")
		case broker.EventFill:
			b.logger.Info().Str("client_id", ev.ClientID).Int64("ticket", ev.Ticket).Msg("order fill")
			if order, ok := b.lookupOrder(ev.ClientID); ok {
				b.bus.PublishPositionOpened(ev.ClientID, b.cfg.Symbol, order.Direction.Side(), order.Entry, order.Units)
			}
		default:
			b.logger.Debug().Str("type", string(ev.Type)).Str("client_id", ev.ClientID).Msg("venue snapshot")
		}
	}
	metrics.SetOpenOrders(b.openOrderCount())
}

// applyClose realizes one close: equity and the loss streak move first,
// then the bot-side records and observers.
func (b *TradingBot) applyClose(ev broker.Event) {
	b.sizer.UpdateEquity(ev.PnL)
	b.stopper.RegisterResult(ev.PnL)
	metrics.RecordClose(ev.Reason)
	metrics.SetEquity(b.sizer.Equity())
	metrics.SetLossStreak(b.stopper.Streak())

	b.mu.Lock()
	delete(b.openOrders, ev.ClientID)
	b.closed = append(b.closed, ClosedTrade{
		ClientID: ev.ClientID,
		Ticket:   ev.Ticket,
		PnL:      ev.PnL,
		Reason:   ev.Reason,
		ClosedAt: ev.Time,
	})
	b.mu.Unlock()

	b.logger.Info().
		Str("client_id", ev.ClientID).
		Int64("ticket", ev.Ticket).
		Float64("pnl", ev.PnL).
		Str("reason", ev.Reason).
		Float64("equity", b.sizer.Equity()).
		Msg("position closed")
	b.bus.PublishPositionClosed(ev.ClientID, b.cfg.Symbol, ev.Reason, ev.PnL, b.sizer.Equity())
}

// placeOrders sizes each proposed order from the current equity and
// submits it. Client ids are unique per (POI id, placement time) pair.
func (b *TradingBot) placeOrders(orders []strategy.ProposedOrder, now time.Time) {
	for _, o := range orders {
		b.bus.PublishSignal(o.POI.ID, string(o.Direction), o.Entry, o.Stop, o.TakeProfit)

		stopDistance := o.Entry - o.Stop
		if stopDistance < 0 {
			stopDistance = -stopDistance
		}
		sizing := b.sizer.SizeOrder(stopDistance)
		clientID := fmt.Sprintf("%s:%d", o.POI.ID, now.Unix())

		b.broker.PlaceOrder(broker.OrderRequest{
			ClientID:   clientID,
			Symbol:     b.cfg.Symbol,
			Side:       o.Direction.Side(),
			OrderType:  "limit",
			Entry:      o.Entry,
			Stop:       o.Stop,
			TakeProfit: o.TakeProfit,
			Units:      sizing.Units,
		})

		b.mu.Lock()
		b.openOrders[clientID] = PlacedOrder{
			ClientID:   clientID,
			POIID:      o.POI.ID,
			Direction:  o.Direction,
			Entry:      o.Entry,
			Stop:       o.Stop,
			TakeProfit: o.TakeProfit,
			Units:      sizing.Units,
			PlacedAt:   now,
		}
		b.mu.Unlock()

		metrics.RecordOrder(o.Direction.Side())
		b.logger.Info().
			Str("client_id", clientID).
			Str("direction", string(o.Direction)).
			Float64("entry", o.Entry).
			Float64("stop", o.Stop).
			Float64("take_profit", o.TakeProfit).
			Float64("units", sizing.Units).
			Str("poi", o.POI.ID).
			Msg("order placed")
	}
	metrics.SetOpenOrders(b.openOrderCount())
}

func (b *TradingBot) lookupOrder(clientID string) (PlacedOrder, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.openOrders[clientID]
	return o, ok
}

func (b *TradingBot) forgetOrder(clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.openOrders, clientID)
}

func (b *TradingBot) openOrderCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.openOrders)
}

// Status returns the snapshot served by the status API.
func (b *TradingBot) Status() Status {
	b.mu.RLock()
	open, trades := len(b.openOrders), len(b.closed)
	b.mu.RUnlock()
	return Status{
		Symbol:     b.cfg.Symbol,
		Broker:     b.broker.Name(),
		Equity:     b.sizer.Equity(),
		LossStreak: b.stopper.Streak(),
		Halted:     b.stopper.Streak() >= b.stopper.Limit(),
		OpenOrders: open,
		Trades:     trades,
	}
}

// OpenOrders returns the bot-side open-order records.
func (b *TradingBot) OpenOrders() []PlacedOrder {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]PlacedOrder, 0, len(b.openOrders))
	for _, o := range b.openOrders {
		out = append(out, o)
	}
	return out
}

// ClosedTrades returns the realized trade records in close order.
func (b *TradingBot) ClosedTrades() []ClosedTrade {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]ClosedTrade, len(b.closed))
	copy(out, b.closed)
	return out
}

// OpenPOIs exposes the strategy's retained POIs.
func (b *TradingBot) OpenPOIs() []strategy.POI {
	return b.strategy.OpenPOIs()
}
