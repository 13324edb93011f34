package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"smc-trading-bot/config"
	"smc-trading-bot/internal/api"
	"smc-trading-bot/internal/bot"
	"smc-trading-bot/internal/bridge"
	"smc-trading-bot/internal/broker"
	"smc-trading-bot/internal/events"
	"smc-trading-bot/internal/filters"
	"smc-trading-bot/internal/logging"
	"smc-trading-bot/internal/market"
	"smc-trading-bot/internal/metrics"
	"smc-trading-bot/internal/notification"
	"smc-trading-bot/internal/risk"
	"smc-trading-bot/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config.json", "path to JSON config file")
	demo := flag.Bool("demo", false, "run a synthetic dry-run with injected sweeps against the paper venue")
	csvPath := flag.String("csv", "", "replay bars from a CSV file against the paper venue")
	live := flag.Bool("live", false, "trade live through the MT4 bridge")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Logging)
	logger.Info().Str("symbol", cfg.Instrument.Symbol).Msg("starting")

	sessionFilter, err := filters.NewSessionFilter(cfg.Session)
	if err != nil {
		log.Fatalf("Failed to build session filter: %v", err)
	}
	newsFilter := filters.NewNewsFilter(cfg.NewsFilterConfig())
	sizer := risk.NewPositionSizer(cfg.InitialEquity, cfg.Risk)
	stopper := risk.NewDailyLossStopper(cfg.Risk)
	smc := strategy.NewSMC(strategy.SMCConfig{RewardRMultiple: cfg.Risk.RewardRMultiple}, logger)
	eventBus := events.NewEventBus()
	metrics.SetEquity(cfg.InitialEquity)

	if cfg.Notification.Enabled {
		wireNotifications(cfg, eventBus, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		venue broker.Broker
		bars  <-chan market.Bar
	)
	switch {
	case *live:
		client := bridge.NewClient(cfg.Broker.TickEndpoint, cfg.Broker.CommandEndpoint, cfg.Instrument.Symbol, logger)
		if err := client.Connect(ctx); err != nil {
			log.Fatalf("Failed to connect bridge: %v", err)
		}
		defer client.Close()

		venue = broker.NewMT4Broker(client, cfg.Instrument.Symbol, logger)
		bars, err = client.StreamBars(ctx)
		if err != nil {
			log.Fatalf("Failed to start bar stream: %v", err)
		}
	case *csvPath != "":
		loaded, err := market.LoadBarsCSV(*csvPath)
		if err != nil {
			log.Fatalf("Failed to load bars: %v", err)
		}
		venue = broker.NewPaperBroker(logger)
		bars = market.NewSliceFeed(loaded).Bars(ctx)
	case *demo:
		venue = broker.NewPaperBroker(logger)
		bars = market.NewSliceFeed(demoBars()).Bars(ctx)
	default:
		log.Fatal("Pick a mode: --demo, --csv FILE, or --live")
	}

	tradingBot := bot.NewTradingBot(
		bot.Config{Symbol: cfg.Instrument.Symbol},
		smc, sessionFilter, newsFilter, sizer, stopper, venue, eventBus, logger,
	)

	var server *api.Server
	if cfg.Server.Enabled {
		server = api.NewServer(cfg.Server, tradingBot, logger)
		server.Start()
	}

	tradingBot.Run(ctx, bars)

	if server != nil {
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}
	logger.Info().Float64("equity", sizer.Equity()).Msg("done")
}

// wireNotifications subscribes the configured providers to position
// lifecycle events. Delivery failures are logged and swallowed so a dead
// webhook never touches the decision loop.
func wireNotifications(cfg config.Config, bus *events.EventBus, logger zerolog.Logger) {
	manager := notification.NewManager()
	manager.AddNotifier(notification.NewTelegramNotifier(cfg.Notification.Telegram))
	manager.AddNotifier(notification.NewDiscordNotifier(cfg.Notification.Discord))

	bus.Subscribe(events.EventPositionOpened, func(e events.Event) {
		symbol, _ := e.Data["symbol"].(string)
		side, _ := e.Data["side"].(string)
		entry, _ := e.Data["entry"].(float64)
		units, _ := e.Data["units"].(float64)
		if err := manager.SendTradeOpen(symbol, side, entry, units); err != nil {
			logger.Error().Err(err).Msg("trade open notification")
		}
	})
	bus.Subscribe(events.EventPositionClosed, func(e events.Event) {
		symbol, _ := e.Data["symbol"].(string)
		reason, _ := e.Data["reason"].(string)
		pnl, _ := e.Data["pnl"].(float64)
		equity, _ := e.Data["equity"].(float64)
		if err := manager.SendTradeClose(symbol, reason, pnl, equity); err != nil {
			logger.Error().Err(err).Msg("trade close notification")
		}
	})
	bus.Subscribe(events.EventGuardrailBlock, func(e events.Event) {
		reason, _ := e.Data["reason"].(string)
		if err := manager.SendGuardrail(reason); err != nil {
			logger.Error().Err(err).Msg("guardrail notification")
		}
	})
}

// demoBars builds a drifting synthetic series and injects two sweeps so
// a dry run exercises the full detection and execution path.
func demoBars() []market.Bar {
	start := time.Now().UTC().Truncate(time.Minute).Add(-2 * time.Hour)
	bars := market.ConstantMove(start, 1.2700, 120, 0.0002)
	if len(bars) > 20 {
		spike := bars[15]
		spike.High += 0.0015
		spike.Close = spike.Open - 0.0007
		bars[15] = spike
	}
	if len(bars) > 40 {
		dump := bars[35]
		dump.Low -= 0.0012
		dump.Close = dump.Open + 0.0006
		bars[35] = dump
	}
	return bars
}
