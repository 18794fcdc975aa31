package performance

import (
	"math"

	"github.com/rustyeddy/statarb/backtest"
	"github.com/rustyeddy/statarb/report"
)

// BacktestResult is the per-pair outcome of a backtest reduced to named
// metrics.
type BacktestResult struct {
	Sector string
	X, Y   string
	Summary

	// HedgeRatio and FinalZScore are absent when the pair's analytics did
	// not produce them.
	HedgeRatio  *float64
	FinalZScore *float64
}

// NewResult reduces a runner result. It must only be called for results
// without an error.
func NewResult(pr backtest.PairResult, capital float64, opts Options) BacktestResult {
	r := BacktestResult{
		Sector:  pr.Job.Sector,
		X:       pr.Job.X,
		Y:       pr.Job.Y,
		Summary: Summarize(pr.Trades, capital, opts),
	}
	if st := pr.Stats; st != nil {
		h := st.HedgeRatio
		r.HedgeRatio = &h
		if !math.IsNaN(st.CurrentZScore) {
			z := st.CurrentZScore
			r.FinalZScore = &z
		}
	}
	return r
}

// Record flattens the result into the backtest report layout.
func (r BacktestResult) Record() report.Record {
	return report.Record{
		{Key: "Ticker1", Value: r.X},
		{Key: "Ticker2", Value: r.Y},
		{Key: "Sector", Value: r.Sector},
		{Key: "Total Trades", Value: r.TotalTrades},
		{Key: "Winning Trades", Value: r.WinningTrades},
		{Key: "Losing Trades", Value: r.LosingTrades},
		{Key: "Average trade duration (days)", Value: r.AvgHoldingDays},
		{Key: "Win Rate (%)", Value: r.WinRate},
		{Key: "Profit factor", Value: r.ProfitFactor},
		{Key: "Total PnL ($)", Value: report.Cents(r.TotalPnL)},
		{Key: "Compound Annual Growth Rate (%)", Value: r.CAGR},
		{Key: "Annualized Return (%)", Value: r.AnnualizedReturn},
		{Key: "Average PnL per Trade ($)", Value: report.Cents(r.AvgPnL)},
		{Key: "Max Drawdown ($)", Value: report.Cents(r.MaxDrawdown)},
		{Key: "Max Drawdown (%)", Value: r.MaxDrawdownPct},
		{Key: "Recovery factor", Value: r.RecoveryFactor},
		{Key: "Max consecutive wins", Value: r.MaxConsecWins},
		{Key: "Max consecutive losses", Value: r.MaxConsecLosses},
		{Key: "Hedge Ratio", Value: report.Opt(r.HedgeRatio)},
		{Key: "Final Z-Score", Value: report.Opt(r.FinalZScore)},
		{Key: "Sharpe ratio", Value: r.Sharpe},
		{Key: "Sortino ratio", Value: r.Sortino},
		{Key: "Calmar ratio", Value: r.Calmar},
		{Key: "Volatility", Value: r.Volatility},
	}
}

// Average averages every numeric field across records, ignoring zero,
// absent and non-finite values so that pairs which never traded do not
// drag the averages toward zero. A numeric field with no usable value
// averages to 0. Non-numeric fields are copied from the first record.
func Average(records []report.Record) report.Record {
	if len(records) == 0 {
		return nil
	}
	first := records[0]
	out := make(report.Record, len(first))
	for i, f := range first {
		out[i] = report.Field{Key: f.Key, Value: f.Value}
		if !numericColumn(records, f.Key) {
			continue
		}
		var sum float64
		var n int
		for _, r := range records {
			v, ok := r.Float(f.Key)
			if !ok || v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			sum += v
			n++
		}
		avg := 0.0
		if n > 0 {
			avg = sum / float64(n)
		}
		out[i].Value = avg
	}
	return out
}

// AverageResults is Average over the records of rs.
func AverageResults(rs []BacktestResult) report.Record {
	records := make([]report.Record, len(rs))
	for i, r := range rs {
		records[i] = r.Record()
	}
	return Average(records)
}

func numericColumn(records []report.Record, key string) bool {
	for _, r := range records {
		if _, ok := r.Float(key); ok {
			return true
		}
	}
	return false
}
