// Package telemetry counts screening and backtest outcomes in a Prometheus
// registry. Batch runs have no scrape endpoint, so the registry is dumped in
// text exposition format for node_exporter's textfile collector.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rustyeddy/statarb/backtest"
)

const namespace = "statarb"

// Metrics implements screener.Observer and backtest.Observer.
type Metrics struct {
	Registry *prometheus.Registry

	pairsTested   *prometheus.CounterVec
	pairsRejected *prometheus.CounterVec
	candidates    *prometheus.CounterVec
	backtests     *prometheus.CounterVec
	trades        *prometheus.CounterVec
	pnl           prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		pairsTested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_tested_total",
			Help:      "Ticker pairs evaluated by the screener.",
		}, []string{"sector"}),
		pairsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_rejected_total",
			Help:      "Ticker pairs rejected by the screener, by failed check.",
		}, []string{"sector", "check"}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Pairs accepted as trading candidates.",
		}, []string{"sector"}),
		backtests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backtests_total",
			Help:      "Pair backtests run, by outcome.",
		}, []string{"outcome"}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Simulated round trips, by exit reason.",
		}, []string{"exit_reason"}),
		pnl: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trade_pnl_dollars",
			Help:      "Realized PnL per simulated trade.",
			Buckets:   []float64{-500, -250, -100, -50, -10, 0, 10, 50, 100, 250, 500},
		}),
	}
	m.Registry.MustRegister(m.pairsTested, m.pairsRejected, m.candidates, m.backtests, m.trades, m.pnl)
	return m
}

func (m *Metrics) PairTested(sector string) {
	m.pairsTested.WithLabelValues(sector).Inc()
}

func (m *Metrics) PairRejected(sector, code string) {
	m.pairsRejected.WithLabelValues(sector, code).Inc()
}

func (m *Metrics) CandidateAccepted(sector string) {
	m.candidates.WithLabelValues(sector).Inc()
}

func (m *Metrics) PairCompleted(_ backtest.Job, trades []backtest.Trade) {
	m.backtests.WithLabelValues("ok").Inc()
	for _, t := range trades {
		m.trades.WithLabelValues(string(t.Reason)).Inc()
		m.pnl.Observe(t.PnL)
	}
}

func (m *Metrics) PairFailed(_ backtest.Job, _ error) {
	m.backtests.WithLabelValues("error").Inc()
}

// WriteTextfile writes the registry to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
