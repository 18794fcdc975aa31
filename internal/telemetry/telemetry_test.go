package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/statarb/backtest"
	"github.com/rustyeddy/statarb/screener"
)

var (
	_ screener.Observer = (*Metrics)(nil)
	_ backtest.Observer = (*Metrics)(nil)
)

// counter sums every series of the named family whose labels include want.
func counter(t *testing.T, m *Metrics, name string, want map[string]string) float64 {
	t.Helper()

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if matches(metric, want) {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func matches(metric *dto.Metric, want map[string]string) bool {
	hit := 0
	for _, lp := range metric.GetLabel() {
		if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
			hit++
		}
	}
	return hit == len(want)
}

func TestScreenCounters(t *testing.T) {
	t.Parallel()

	m := New()
	for i := 0; i < 3; i++ {
		m.PairTested("Energy")
	}
	m.PairRejected("Energy", "correlation")
	m.PairRejected("Energy", "cointegration")
	m.CandidateAccepted("Energy")

	assert.Equal(t, 3.0, counter(t, m, "statarb_pairs_tested_total", map[string]string{"sector": "Energy"}))
	assert.Equal(t, 2.0, counter(t, m, "statarb_pairs_rejected_total", nil))
	assert.Equal(t, 1.0, counter(t, m, "statarb_pairs_rejected_total", map[string]string{"check": "correlation"}))
	assert.Equal(t, 1.0, counter(t, m, "statarb_candidates_total", nil))
}

func TestBacktestCounters(t *testing.T) {
	t.Parallel()

	m := New()
	job := backtest.Job{X: "KO", Y: "PEP", Sector: "Staples"}
	m.PairCompleted(job, []backtest.Trade{
		{PnL: 25, Reason: backtest.MeanReversion},
		{PnL: -40, Reason: backtest.StopLossHit},
		{PnL: 12, Reason: backtest.MeanReversion},
	})
	m.PairFailed(job, errors.New("boom"))

	assert.Equal(t, 1.0, counter(t, m, "statarb_backtests_total", map[string]string{"outcome": "ok"}))
	assert.Equal(t, 1.0, counter(t, m, "statarb_backtests_total", map[string]string{"outcome": "error"}))
	assert.Equal(t, 2.0, counter(t, m, "statarb_trades_total", map[string]string{"exit_reason": "MeanReversion"}))
	assert.Equal(t, 1.0, counter(t, m, "statarb_trades_total", map[string]string{"exit_reason": "StopLoss"}))
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	m := New()
	m.CandidateAccepted("Tech")
	path := filepath.Join(t.TempDir(), "statarb.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `statarb_candidates_total{sector="Tech"} 1`)
	assert.Contains(t, string(data), "# TYPE statarb_trade_pnl_dollars histogram")
}
