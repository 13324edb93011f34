package broker

import (
	"time"

	"github.com/rs/zerolog"

	"smc-trading-bot/internal/bridge"
)

// CommandTransport is the slice of the bridge client the live adapter
// needs. Narrowed to an interface so tests can substitute a fake.
type CommandTransport interface {
	SendCommand(cmd bridge.Command) error
	DrainEventMessages() []map[string]interface{}
}

var _ Broker = (*MT4Broker)(nil)

// MT4Broker translates broker calls into bridge commands and inbound
// bridge messages into Events. Stops and targets are evaluated on the
// venue side; this adapter holds no position state.
type MT4Broker struct {
	transport CommandTransport
	symbol    string
	logger    zerolog.Logger
}

// NewMT4Broker creates the live adapter for one instrument.
func NewMT4Broker(transport CommandTransport, symbol string, logger zerolog.Logger) *MT4Broker {
	return &MT4Broker{
		transport: transport,
		symbol:    symbol,
		logger:    logger.With().Str("component", "mt4-broker").Logger(),
	}
}

// Name returns "mt4".
func (b *MT4Broker) Name() string { return "mt4" }

// PlaceOrder forwards the bracket order as a PLACE command.
func (b *MT4Broker) PlaceOrder(req OrderRequest) {
	symbol := req.Symbol
	if symbol == "" {
		symbol = b.symbol
	}
	err := b.transport.SendCommand(bridge.Command{
		Type:       bridge.CommandPlace,
		ClientID:   req.ClientID,
		Symbol:     symbol,
		Side:       req.Side,
		OrderType:  req.OrderType,
		Entry:      req.Entry,
		Stop:       req.Stop,
		TakeProfit: req.TakeProfit,
		Units:      req.Units,
	})
	if err != nil {
		b.logger.Error().Err(err).Str("client_id", req.ClientID).Msg("place command failed")
	}
}

// Cancel forwards a CANCEL command.
func (b *MT4Broker) Cancel(clientID string) {
	if err := b.transport.SendCommand(bridge.Command{
		Type:     bridge.CommandCancel,
		ClientID: clientID,
	}); err != nil {
		b.logger.Error().Err(err).Str("client_id", clientID).Msg("cancel command failed")
	}
}

// FlattenAll forwards a FLATTEN_ALL command with the reason.
func (b *MT4Broker) FlattenAll(reason string) {
	if err := b.transport.SendCommand(bridge.Command{
		Type:   bridge.CommandFlattenAll,
		Reason: reason,
	}); err != nil {
		b.logger.Error().Err(err).Str("reason", reason).Msg("flatten command failed")
	}
}

// DrainEvents converts all pending venue messages into Events.
func (b *MT4Broker) DrainEvents() []Event {
	msgs := b.transport.DrainEventMessages()
	if len(msgs) == 0 {
		return nil
	}
	events := make([]Event, 0, len(msgs))
	for _, msg := range msgs {
		events = append(events, convertVenueMessage(msg, time.Now().UTC()))
	}
	return events
}

// convertVenueMessage maps one raw venue message onto an Event. Missing
// fields are defaulted: an absent type becomes SNAPSHOT and an absent
// time becomes the receipt time. Unknown fields are preserved in the
// payload.
func convertVenueMessage(msg map[string]interface{}, receivedAt time.Time) Event {
	ev := Event{Type: EventSnapshot, Time: receivedAt}

	if v, ok := msg["type"].(string); ok && v != "" {
		ev.Type = EventType(v)
	}
	if v, ok := msg["client_id"].(string); ok {
		ev.ClientID = v
	}
	if v, ok := msg["ticket"].(float64); ok {
		ev.Ticket = int64(v)
	}
	if v, ok := msg["time"].(float64); ok {
		sec := int64(v)
		nsec := int64((v - float64(sec)) * 1e9)
		ev.Time = time.Unix(sec, nsec).UTC()
	}
	if v, ok := msg["pnl"].(float64); ok {
		ev.PnL = v
	}
	if v, ok := msg["reason"].(string); ok {
		ev.Reason = v
	}

	known := map[string]struct{}{
		"type": {}, "client_id": {}, "ticket": {}, "time": {}, "pnl": {}, "reason": {},
	}
	for k, v := range msg {
		if _, ok := known[k]; ok {
			continue
		}
		if ev.Payload == nil {
			ev.Payload = make(map[string]interface{})
		}
		ev.Payload[k] = v
	}
	return ev
}
