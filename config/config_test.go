package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadMissingFileFallsBackToDefaults checks an absent config path
// yields the shipped defaults.
func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Missing file should fall back to defaults, got %v", err)
	}

	if cfg.Instrument.Symbol != "GBPUSD" {
		t.Errorf("Expected default symbol GBPUSD, got %s", cfg.Instrument.Symbol)
	}
	if cfg.Broker.Mode != "paper" {
		t.Errorf("Expected default paper mode, got %s", cfg.Broker.Mode)
	}
	if cfg.Risk.RiskPerTrade != 0.01 {
		t.Errorf("Expected default 1%% risk, got %v", cfg.Risk.RiskPerTrade)
	}
}

// TestLoadFileOverridesDefaults writes a partial config file and checks
// its values land on top of the defaults.
func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"instrument": {"symbol": "EURUSD", "timeframe_minutes": 1},
		"risk": {"risk_per_trade": 0.02, "max_consecutive_losses": 3, "reward_r_multiple": 4},
		"news": {
			"blackout_minutes_before": 10,
			"blackout_minutes_after": 20,
			"events": [{"title": "CPI", "start_offset_minutes": 60, "end_offset_minutes": 90}]
		}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Instrument.Symbol != "EURUSD" {
		t.Errorf("Expected EURUSD, got %s", cfg.Instrument.Symbol)
	}
	if cfg.Risk.MaxConsecutiveLosses != 3 {
		t.Errorf("Expected max losses 3, got %d", cfg.Risk.MaxConsecutiveLosses)
	}
	// Untouched sections keep their defaults.
	if cfg.Session.Timezone != "Europe/London" {
		t.Errorf("Expected default session timezone, got %s", cfg.Session.Timezone)
	}

	newsCfg := cfg.NewsFilterConfig()
	if newsCfg.BlackoutBefore != 10*time.Minute || newsCfg.BlackoutAfter != 20*time.Minute {
		t.Errorf("Unexpected blackout buffers %v / %v", newsCfg.BlackoutBefore, newsCfg.BlackoutAfter)
	}
	if len(newsCfg.Events) != 1 || newsCfg.Events[0].StartOffset != time.Hour {
		t.Errorf("Unexpected news events %+v", newsCfg.Events)
	}
}

// TestLoadEnvOverrides checks secrets from the environment beat the file.
func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok-123")
	t.Setenv("BRIDGE_TICK_ENDPOINT", "ws://10.0.0.5:5555/ticks")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Notification.Telegram.BotToken != "tok-123" {
		t.Errorf("Expected env token, got %q", cfg.Notification.Telegram.BotToken)
	}
	if cfg.Broker.TickEndpoint != "ws://10.0.0.5:5555/ticks" {
		t.Errorf("Expected env tick endpoint, got %s", cfg.Broker.TickEndpoint)
	}
}

// TestValidateRejections covers the hard configuration errors.
func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty symbol", func(c *Config) { c.Instrument.Symbol = "" }},
		{"zero risk", func(c *Config) { c.Risk.RiskPerTrade = 0 }},
		{"full-equity risk", func(c *Config) { c.Risk.RiskPerTrade = 1 }},
		{"zero loss limit", func(c *Config) { c.Risk.MaxConsecutiveLosses = 0 }},
		{"zero reward multiple", func(c *Config) { c.Risk.RewardRMultiple = 0 }},
		{"unknown broker mode", func(c *Config) { c.Broker.Mode = "ib" }},
	}

	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected a validation error", tc.name)
		}
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}
