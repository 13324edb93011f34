// Package metrics exposes the bot's Prometheus instrumentation:
//
//   - smc_orders_total{side}            - bracket orders placed
//   - smc_closes_total{reason}          - position closes by exit reason
//   - smc_rejects_total                 - venue rejections
//   - smc_guardrail_blocks_total{reason} - bars skipped by a guardrail
//   - smc_equity                        - running equity (gauge)
//   - smc_loss_streak                   - consecutive losing closes (gauge)
//   - smc_open_orders                   - orders currently open (gauge)
//
// Registered in init() and served at /metrics by the status API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smc_orders_total",
			Help: "Bracket orders placed",
		},
		[]string{"side"},
	)

	closesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smc_closes_total",
			Help: "Position closes by exit reason",
		},
		[]string{"reason"},
	)

	rejectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "smc_rejects_total",
			Help: "Orders rejected by the venue",
		},
	)

	guardrailBlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smc_guardrail_blocks_total",
			Help: "Bars skipped because a guardrail blocked trading",
		},
		[]string{"reason"},
	)

	equity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "smc_equity",
			Help: "Running equity",
		},
	)

	lossStreak = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "smc_loss_streak",
			Help: "Consecutive losing closes since last reset",
		},
	)

	openOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "smc_open_orders",
			Help: "Orders currently open at the venue",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ordersTotal,
		closesTotal,
		rejectsTotal,
		guardrailBlocks,
		equity,
		lossStreak,
		openOrders,
	)
}

// RecordOrder counts one placed order.
func RecordOrder(side string) { ordersTotal.WithLabelValues(side).Inc() }

// RecordClose counts one close by exit reason.
func RecordClose(reason string) { closesTotal.WithLabelValues(reason).Inc() }

// RecordReject counts one venue rejection.
func RecordReject() { rejectsTotal.Inc() }

// RecordGuardrailBlock counts one skipped bar by guardrail reason.
func RecordGuardrailBlock(reason string) { guardrailBlocks.WithLabelValues(reason).Inc() }

// SetEquity updates the equity gauge.
func SetEquity(v float64) { equity.Set(v) }

// SetLossStreak updates the loss-streak gauge.
func SetLossStreak(n int) { lossStreak.Set(float64(n)) }

// SetOpenOrders updates the open-orders gauge.
func SetOpenOrders(n int) { openOrders.Set(float64(n)) }

// Handler returns the Prometheus exposition handler.
func Handler() http.Handler { return promhttp.Handler() }
