// Package notification delivers trade lifecycle messages to external
// channels (Telegram, Discord). Notifiers subscribe to the event bus; a
// failing provider never affects the trading loop.
package notification

import (
	"fmt"
	"time"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotifyTradeOpen  NotificationType = "trade_open"
	NotifyTradeClose NotificationType = "trade_close"
	NotifyGuardrail  NotificationType = "guardrail"
)

// Notification represents one outbound message.
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Symbol    string
	PnL       float64
	Timestamp time.Time
}

// Notifier is implemented by each delivery provider.
type Notifier interface {
	Send(notification *Notification) error
	Name() string
	IsEnabled() bool
}

// Manager fans a notification out to every enabled provider.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates an empty notification manager.
func NewManager() *Manager {
	return &Manager{}
}

// AddNotifier adds a notification provider.
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Send delivers to all enabled providers, returning the last error.
func (m *Manager) Send(notification *Notification) error {
	var lastErr error
	for _, n := range m.notifiers {
		if !n.IsEnabled() {
			continue
		}
		if err := n.Send(notification); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// SendTradeOpen announces a filled entry.
func (m *Manager) SendTradeOpen(symbol, side string, entry, units float64) error {
	return m.Send(&Notification{
		Type:      NotifyTradeOpen,
		Title:     fmt.Sprintf("Trade opened: %s", symbol),
		Message:   fmt.Sprintf("%s %s @ %.5f, units %.2f", side, symbol, entry, units),
		Symbol:    symbol,
		Timestamp: time.Now(),
	})
}

// SendTradeClose announces a realized close.
func (m *Manager) SendTradeClose(symbol, reason string, pnl, equity float64) error {
	return m.Send(&Notification{
		Type:      NotifyTradeClose,
		Title:     fmt.Sprintf("Trade closed: %s", symbol),
		Message:   fmt.Sprintf("%s closed (%s), pnl %.2f, equity %.2f", symbol, reason, pnl, equity),
		Symbol:    symbol,
		PnL:       pnl,
		Timestamp: time.Now(),
	})
}

// SendGuardrail announces a guardrail flatten.
func (m *Manager) SendGuardrail(reason string) error {
	return m.Send(&Notification{
		Type:      NotifyGuardrail,
		Title:     "Guardrail triggered",
		Message:   fmt.Sprintf("Trading blocked and book flattened: %s", reason),
		Timestamp: time.Now(),
	})
}
