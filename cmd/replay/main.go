// Command replay runs the strategy over a CSV of bars with the
// in-process position engine instead of a venue and prints a summary.
// It is the quickest way to eyeball detection and sizing on recorded
// data.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"smc-trading-bot/internal/execution"
	"smc-trading-bot/internal/logging"
	"smc-trading-bot/internal/market"
	"smc-trading-bot/internal/risk"
	"smc-trading-bot/internal/strategy"
)

func main() {
	csvPath := flag.String("csv", "", "path to a CSV of bars (timestamp,open,high,low,close,volume)")
	equity := flag.Float64("equity", 10000, "starting equity")
	riskPerTrade := flag.Float64("risk", 0.01, "fraction of equity risked per trade")
	maxLosses := flag.Int("max-losses", 5, "consecutive losses before halting for the day")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	bars, err := market.LoadBarsCSV(*csvPath)
	if err != nil {
		log.Fatalf("Failed to load bars: %v", err)
	}
	if len(bars) == 0 {
		log.Fatal("CSV contained no bars")
	}

	logger := logging.New(logging.Config{Level: *logLevel})
	riskCfg := risk.Config{
		RiskPerTrade:         *riskPerTrade,
		MaxConsecutiveLosses: *maxLosses,
		RewardRMultiple:      risk.DefaultConfig().RewardRMultiple,
	}
	smc := strategy.NewSMC(strategy.SMCConfig{RewardRMultiple: riskCfg.RewardRMultiple}, logger)
	sizer := risk.NewPositionSizer(*equity, riskCfg)
	stopper := risk.NewDailyLossStopper(riskCfg)
	engine := execution.NewEngine()

	halts := 0
	for _, bar := range bars {
		stopper.ResetIfNewSession(bar.Timestamp)

		for _, pos := range engine.OnPrice(bar) {
			sizer.UpdateEquity(*pos.PnL)
			stopper.RegisterResult(*pos.PnL)
		}

		if stopper.Halted(bar.Timestamp) {
			engine.FlattenAll(bar.Timestamp)
			halts++
			continue
		}

		for _, order := range smc.OnBar(bar) {
			stopDistance := order.Entry - order.Stop
			if stopDistance < 0 {
				stopDistance = -stopDistance
			}
			sizing := sizer.SizeOrder(stopDistance)
			engine.PlaceOrder(order.Direction, order.Entry, order.Stop, order.TakeProfit,
				sizing.Units, order.POI.ID, bar.Timestamp)
		}
	}
	engine.FlattenAll(bars[len(bars)-1].Timestamp)

	printSummary(engine, sizer, *equity, halts)
}

func printSummary(engine *execution.Engine, sizer *risk.PositionSizer, startEquity float64, halts int) {
	trades := engine.TradeLog()
	wins, losses := 0, 0
	for _, t := range trades {
		if t.PnL == nil {
			continue
		}
		if *t.PnL > 0 {
			wins++
		} else if *t.PnL < 0 {
			losses++
		}
	}

	fmt.Printf("bars replayed, trades: %d (wins %d, losses %d)\n", len(trades), wins, losses)
	fmt.Printf("equity: %.2f -> %.2f (%+.2f)\n", startEquity, sizer.Equity(), sizer.Equity()-startEquity)
	if halts > 0 {
		fmt.Printf("halted bars: %d\n", halts)
	}
}
