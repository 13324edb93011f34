// Package config loads the bot configuration from an optional JSON file
// plus environment overrides for secrets.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"smc-trading-bot/internal/api"
	"smc-trading-bot/internal/filters"
	"smc-trading-bot/internal/logging"
	"smc-trading-bot/internal/notification"
	"smc-trading-bot/internal/risk"
)

// InstrumentConfig identifies what the bot trades.
type InstrumentConfig struct {
	Symbol           string `json:"symbol"`
	TimeframeMinutes int    `json:"timeframe_minutes"`
}

// BrokerConfig selects the venue and, for the live mode, the bridge
// endpoints.
type BrokerConfig struct {
	Mode            string `json:"mode"` // "paper" or "mt4"
	TickEndpoint    string `json:"tick_endpoint"`
	CommandEndpoint string `json:"command_endpoint"`
}

// NewsEventConfig is one scheduled event expressed in minutes from the
// session anchor, as it appears in the config file.
type NewsEventConfig struct {
	Title              string `json:"title"`
	StartOffsetMinutes int    `json:"start_offset_minutes"`
	EndOffsetMinutes   int    `json:"end_offset_minutes"`
}

// NewsConfig holds the blackout settings.
type NewsConfig struct {
	BlackoutMinutesBefore int               `json:"blackout_minutes_before"`
	BlackoutMinutesAfter  int               `json:"blackout_minutes_after"`
	Events                []NewsEventConfig `json:"events"`
}

// NotificationConfig wires the outbound providers.
type NotificationConfig struct {
	Enabled  bool                        `json:"enabled"`
	Telegram notification.TelegramConfig `json:"telegram"`
	Discord  notification.DiscordConfig  `json:"discord"`
}

// Config is the full configuration surface.
type Config struct {
	Instrument    InstrumentConfig      `json:"instrument"`
	Session       filters.SessionConfig `json:"session"`
	Risk          risk.Config           `json:"risk"`
	News          NewsConfig            `json:"news"`
	Broker        BrokerConfig          `json:"broker"`
	InitialEquity float64               `json:"initial_equity"`
	Logging       logging.Config        `json:"logging"`
	Server        api.ServerConfig      `json:"server"`
	Notification  NotificationConfig    `json:"notification"`
}

// Default returns the configuration the bot ships with: GBPUSD on the
// London session, 1% risk, paper venue.
func Default() Config {
	return Config{
		Instrument: InstrumentConfig{
			Symbol:           "GBPUSD",
			TimeframeMinutes: 1,
		},
		Session: filters.DefaultSessionConfig(),
		Risk:    risk.DefaultConfig(),
		News: NewsConfig{
			BlackoutMinutesBefore: 15,
			BlackoutMinutesAfter:  15,
		},
		Broker: BrokerConfig{
			Mode:            "paper",
			TickEndpoint:    "ws://127.0.0.1:5555/ticks",
			CommandEndpoint: "ws://127.0.0.1:5556/commands",
		},
		InitialEquity: 10000,
		Logging:       logging.Config{Level: "info"},
		Server:        api.DefaultServerConfig(),
	}
}

// Load reads the JSON config at path (missing file falls back to
// defaults), applies env overrides, and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnvOverrides pulls secrets and deploy-specific endpoints from the
// environment so they stay out of the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notification.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notification.Telegram.ChatID = v
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Notification.Discord.WebhookURL = v
	}
	if v := os.Getenv("BRIDGE_TICK_ENDPOINT"); v != "" {
		cfg.Broker.TickEndpoint = v
	}
	if v := os.Getenv("BRIDGE_COMMAND_ENDPOINT"); v != "" {
		cfg.Broker.CommandEndpoint = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate rejects configurations the bot cannot run with.
func (c Config) Validate() error {
	if c.Instrument.Symbol == "" {
		return fmt.Errorf("config: instrument symbol is required")
	}
	if c.Risk.RiskPerTrade <= 0 || c.Risk.RiskPerTrade >= 1 {
		return fmt.Errorf("config: risk_per_trade must be in (0, 1), got %v", c.Risk.RiskPerTrade)
	}
	if c.Risk.MaxConsecutiveLosses < 1 {
		return fmt.Errorf("config: max_consecutive_losses must be >= 1, got %d", c.Risk.MaxConsecutiveLosses)
	}
	if c.Risk.RewardRMultiple <= 0 {
		return fmt.Errorf("config: reward_r_multiple must be > 0, got %v", c.Risk.RewardRMultiple)
	}
	switch c.Broker.Mode {
	case "paper", "mt4":
	default:
		return fmt.Errorf("config: broker mode must be paper or mt4, got %q", c.Broker.Mode)
	}
	return nil
}

// NewsFilterConfig converts the file representation into the filter's
// duration-based form.
func (c Config) NewsFilterConfig() filters.NewsConfig {
	out := filters.NewsConfig{
		BlackoutBefore: minutes(c.News.BlackoutMinutesBefore),
		BlackoutAfter:  minutes(c.News.BlackoutMinutesAfter),
	}
	for _, ev := range c.News.Events {
		out.Events = append(out.Events, filters.NewsEvent{
			Title:       ev.Title,
			StartOffset: minutes(ev.StartOffsetMinutes),
			EndOffset:   minutes(ev.EndOffsetMinutes),
		})
	}
	return out
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
