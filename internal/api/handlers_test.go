package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"smc-trading-bot/internal/bot"
	"smc-trading-bot/internal/strategy"
)

type stubBot struct{}

func (stubBot) Status() bot.Status {
	return bot.Status{Symbol: "GBPUSD", Broker: "paper", Equity: 10000, OpenOrders: 1}
}

func (stubBot) OpenOrders() []bot.PlacedOrder {
	return []bot.PlacedOrder{{ClientID: "poi-1:123", Direction: strategy.DirectionLong}}
}

func (stubBot) ClosedTrades() []bot.ClosedTrade {
	return []bot.ClosedTrade{{ClientID: "poi-0:100", PnL: -12.5, Reason: "sl"}}
}

func (stubBot) OpenPOIs() []strategy.POI {
	return []strategy.POI{{ID: "poi-1", Direction: strategy.DirectionLong,
		CreatedAt: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}}
}

func serveGET(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	s := NewServer(DefaultServerConfig(), stubBot{}, zerolog.Nop())
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	s.router.ServeHTTP(w, req)
	return w
}

// TestHealthEndpoint checks the liveness probe.
func TestHealthEndpoint(t *testing.T) {
	w := serveGET(t, "/health")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
}

// TestStatusEndpoint checks the status snapshot serialization.
func TestStatusEndpoint(t *testing.T) {
	w := serveGET(t, "/api/status")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var status bot.Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if status.Symbol != "GBPUSD" || status.Equity != 10000 {
		t.Errorf("Unexpected status %+v", status)
	}
}

// TestOrdersEndpoint checks the open-order listing envelope.
func TestOrdersEndpoint(t *testing.T) {
	w := serveGET(t, "/api/orders")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var payload struct {
		Orders []bot.PlacedOrder `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Failed to decode orders: %v", err)
	}
	if len(payload.Orders) != 1 || payload.Orders[0].ClientID != "poi-1:123" {
		t.Errorf("Unexpected orders %+v", payload.Orders)
	}
}

// TestPOIsEndpoint checks the POI listing envelope.
func TestPOIsEndpoint(t *testing.T) {
	w := serveGET(t, "/api/pois")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var payload struct {
		POIs []strategy.POI `json:"pois"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Failed to decode pois: %v", err)
	}
	if len(payload.POIs) != 1 || payload.POIs[0].ID != "poi-1" {
		t.Errorf("Unexpected pois %+v", payload.POIs)
	}
}

// TestTradesEndpoint checks the trade log envelope.
func TestTradesEndpoint(t *testing.T) {
	w := serveGET(t, "/api/trades")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var payload struct {
		Trades []bot.ClosedTrade `json:"trades"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Failed to decode trades: %v", err)
	}
	if len(payload.Trades) != 1 || payload.Trades[0].PnL != -12.5 {
		t.Errorf("Unexpected trades %+v", payload.Trades)
	}
}
