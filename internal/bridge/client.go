package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"smc-trading-bot/internal/market"
)

// Command types sent to the EA.
const (
	CommandPlace      = "PLACE"
	CommandCancel     = "CANCEL"
	CommandFlattenAll = "FLATTEN_ALL"
)

// Command is one outbound order instruction for the EA. Only the fields
// relevant to the command type are populated.
type Command struct {
	Type       string  `json:"type"`
	ClientID   string  `json:"client_id,omitempty"`
	Symbol     string  `json:"symbol,omitempty"`
	Side       string  `json:"side,omitempty"`
	OrderType  string  `json:"order_type,omitempty"`
	Entry      float64 `json:"entry,omitempty"`
	Stop       float64 `json:"sl,omitempty"`
	TakeProfit float64 `json:"tp,omitempty"`
	Units      float64 `json:"units,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	RunID      string  `json:"run_id,omitempty"`
}

// ErrNotConnected is returned when a streaming or command call is made
// before Connect has established the sockets. This is a programmer error
// and must surface immediately rather than block or silently no-op.
var ErrNotConnected = errors.New("bridge: not connected, call Connect first")

// Client speaks to the MT4 EA over two WebSocket endpoints: one
// publishing ticks, one duplex carrying order commands out and broker
// event messages back in.
type Client struct {
	tickURL    string
	commandURL string
	runID      string
	agg        *Aggregator
	logger     zerolog.Logger

	tickConn *websocket.Conn
	cmdConn  *websocket.Conn

	mu        sync.Mutex
	inbound   []map[string]interface{}
	writeMu   sync.Mutex
	connected atomic.Bool
}

// NewClient creates a bridge client for the given endpoints. Each client
// carries a fresh run id that is stamped onto every outbound command so
// venue-side logs can be correlated with one bot run.
func NewClient(tickURL, commandURL, symbol string, logger zerolog.Logger) *Client {
	return &Client{
		tickURL:    tickURL,
		commandURL: commandURL,
		runID:      uuid.NewString(),
		agg:        NewAggregator(symbol),
		logger:     logger.With().Str("component", "bridge").Logger(),
	}
}

// RunID returns the correlation id stamped onto outbound commands.
func (c *Client) RunID() string { return c.runID }

// Connect dials both endpoints and starts the inbound event pump.
func (c *Client) Connect(ctx context.Context) error {
	tickConn, _, err := websocket.DefaultDialer.DialContext(ctx, c.tickURL, nil)
	if err != nil {
		return fmt.Errorf("dial tick endpoint %s: %w", c.tickURL, err)
	}
	cmdConn, _, err := websocket.DefaultDialer.DialContext(ctx, c.commandURL, nil)
	if err != nil {
		tickConn.Close()
		return fmt.Errorf("dial command endpoint %s: %w", c.commandURL, err)
	}
	c.tickConn = tickConn
	c.cmdConn = cmdConn
	c.connected.Store(true)

	go c.readEvents()

	c.logger.Info().
		Str("tick_endpoint", c.tickURL).
		Str("command_endpoint", c.commandURL).
		Str("run_id", c.runID).
		Msg("bridge connected")
	return nil
}

// Close tears down both sockets.
func (c *Client) Close() {
	c.connected.Store(false)
	if c.tickConn != nil {
		c.tickConn.Close()
	}
	if c.cmdConn != nil {
		c.cmdConn.Close()
	}
}

// StreamBars reads the tick socket and emits completed minute bars on the
// returned channel. The channel closes when the socket errors or ctx is
// cancelled. Calling StreamBars before Connect is a programmer error.
func (c *Client) StreamBars(ctx context.Context) (<-chan market.Bar, error) {
	if !c.connected.Load() {
		return nil, ErrNotConnected
	}

	bars := make(chan market.Bar)
	go func() {
		defer close(bars)
		for {
			_, payload, err := c.tickConn.ReadMessage()
			if err != nil {
				if c.connected.Load() {
					c.logger.Error().Err(err).Msg("tick stream closed")
				}
				return
			}
			tick, err := ParseTick(payload)
			if err != nil {
				c.logger.Warn().Err(err).Msg("dropping malformed tick")
				continue
			}
			bar, done := c.agg.OnTick(tick)
			if !done {
				continue
			}
			select {
			case bars <- bar:
			case <-ctx.Done():
				return
			}
		}
	}()
	return bars, nil
}

// SendCommand serializes one command onto the command socket, stamping
// the run id.
func (c *Client) SendCommand(cmd Command) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	cmd.RunID = c.runID

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.cmdConn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("send %s command: %w", cmd.Type, err)
	}
	return nil
}

// DrainEventMessages returns and clears raw inbound event messages from
// the venue. Malformed messages were already dropped by the read pump.
func (c *Client) DrainEventMessages() []map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.inbound
	c.inbound = nil
	return msgs
}

// readEvents pumps the command socket for inbound venue messages and
// queues them for the next drain.
func (c *Client) readEvents() {
	for {
		_, payload, err := c.cmdConn.ReadMessage()
		if err != nil {
			if c.connected.Load() {
				c.logger.Error().Err(err).Msg("event stream closed")
			}
			return
		}
		var msg map[string]interface{}
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.logger.Warn().Err(err).Msg("dropping malformed venue event")
			continue
		}
		c.mu.Lock()
		c.inbound = append(c.inbound, msg)
		c.mu.Unlock()
	}
}
