// Package performance reduces a trade ledger to summary statistics and
// averages them across a batch of pair backtests.
package performance

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/rustyeddy/statarb/backtest"
)

const (
	TradingDays   = 252
	DaysPerYear   = 365.25
	DefaultRFRate = 0.02
)

// DrawdownBasis selects the denominator of the percent drawdown.
type DrawdownBasis string

const (
	// DrawdownCapital measures drawdown against the initial capital.
	DrawdownCapital DrawdownBasis = "capital"
	// DrawdownPnL measures drawdown against the peak cumulative PnL it
	// fell from.
	DrawdownPnL DrawdownBasis = "pnl"
)

type Options struct {
	// RiskFreeRate is annual; each trade is one period of 1/252 year.
	RiskFreeRate        float64
	AnnualizeVolatility bool
	DrawdownBasis       DrawdownBasis
}

func DefaultOptions() Options {
	return Options{
		RiskFreeRate:        DefaultRFRate,
		AnnualizeVolatility: true,
		DrawdownBasis:       DrawdownCapital,
	}
}

// Summary is the reduction of one ledger. With no trades every metric is 0
// and FinalEquity equals the starting capital.
type Summary struct {
	Capital float64
	Start   time.Time
	End     time.Time

	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	WinRate         float64
	MaxConsecWins   int
	MaxConsecLosses int
	AvgHoldingDays  float64

	TotalPnL     float64
	AvgPnL       float64
	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64
	FinalEquity  float64
	ReturnPct    float64

	MaxDrawdown    float64
	MaxDrawdownPct float64

	CAGR             float64
	AnnualizedReturn float64
	Sharpe           float64
	Sortino          float64
	Volatility       float64
	Calmar           float64
	RecoveryFactor   float64
}

// Summarize computes the ledger metrics. Trades must be in chronological
// order, as produced by backtest.Run.
func Summarize(trades []backtest.Trade, capital float64, opts Options) Summary {
	s := Summary{Capital: capital, FinalEquity: capital}
	if len(trades) == 0 {
		return s
	}

	pnl := make([]float64, len(trades))
	holding := 0
	wins, losses := 0, 0
	for i, t := range trades {
		pnl[i] = t.PnL
		holding += t.HoldingDays
		if t.Win {
			s.WinningTrades++
			wins++
			losses = 0
		} else {
			s.LosingTrades++
			losses++
			wins = 0
		}
		s.MaxConsecWins = max(s.MaxConsecWins, wins)
		s.MaxConsecLosses = max(s.MaxConsecLosses, losses)

		switch {
		case t.PnL > 0:
			s.GrossProfit += t.PnL
		case t.PnL < 0:
			s.GrossLoss -= t.PnL
		}
		s.TotalPnL += t.PnL
	}

	n := float64(len(trades))
	s.Start = trades[0].EntryDate
	s.End = trades[len(trades)-1].ExitDate
	s.TotalTrades = len(trades)
	s.WinRate = float64(s.WinningTrades) / n * 100
	s.AvgHoldingDays = float64(holding) / n
	s.AvgPnL = s.TotalPnL / n
	s.FinalEquity = capital + s.TotalPnL
	if capital > 0 {
		s.ReturnPct = s.TotalPnL / capital * 100
	}
	s.ProfitFactor = ratioOrInf(s.GrossProfit, s.GrossLoss)

	s.MaxDrawdown, s.MaxDrawdownPct = MaxDrawdown(pnl, capital, opts.DrawdownBasis)
	years := s.End.Sub(s.Start).Hours() / 24 / DaysPerYear
	s.CAGR = CAGR(s.TotalPnL, capital, years)
	s.AnnualizedReturn = s.CAGR
	s.Sharpe = Sharpe(pnl, opts.RiskFreeRate)
	s.Sortino = Sortino(pnl, opts.RiskFreeRate)
	s.Volatility = Volatility(pnl, opts.AnnualizeVolatility)
	s.Calmar = ratioOrInf(s.AnnualizedReturn, s.MaxDrawdownPct)
	s.RecoveryFactor = ratioOrInf(s.TotalPnL, s.MaxDrawdown)
	return s
}

// ratioOrInf returns num/den, +Inf when den is zero and num positive, and 0
// otherwise.
func ratioOrInf(num, den float64) float64 {
	if den == 0 {
		if num > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return num / den
}

// MaxDrawdown walks the equity curve capital + cumsum(pnl) and returns the
// largest peak-to-trough fall in currency and percent. The curve holds one
// point per closed trade; the starting capital is not a peak, so a loss on
// the first trade is not a drawdown.
func MaxDrawdown(pnl []float64, capital float64, basis DrawdownBasis) (float64, float64) {
	if len(pnl) == 0 {
		return 0, 0
	}
	var (
		cum, peak     float64
		maxDD, ddPeak float64
	)
	for i, v := range pnl {
		cum += v
		if i == 0 || cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDD {
			maxDD, ddPeak = dd, peak
		}
	}

	var pct float64
	switch basis {
	case DrawdownPnL:
		if ddPeak > 0 {
			pct = maxDD / ddPeak * 100
		}
	default:
		if capital > 0 {
			pct = maxDD / capital * 100
		}
	}
	return maxDD, pct
}

// CAGR returns the compound annual growth rate in percent, or 0 unless both
// the span and the final value are positive.
func CAGR(totalPnL, capital, years float64) float64 {
	if capital <= 0 || years <= 0 {
		return 0
	}
	final := capital + totalPnL
	if final <= 0 {
		return 0
	}
	return (math.Pow(final/capital, 1/years) - 1) * 100
}

// Sharpe treats every trade PnL as one period return.
func Sharpe(pnl []float64, annualRate float64) float64 {
	if len(pnl) < 2 {
		return 0
	}
	sd := stat.StdDev(pnl, nil)
	if !(sd > 0) {
		return 0
	}
	rf := annualRate / TradingDays
	return (stat.Mean(pnl, nil) - rf) / sd
}

// Sortino divides mean excess return by the deviation of the negative
// excess returns only.
func Sortino(pnl []float64, annualRate float64) float64 {
	if len(pnl) == 0 {
		return 0
	}
	rf := annualRate / TradingDays
	excess := make([]float64, len(pnl))
	var downside []float64
	for i, v := range pnl {
		excess[i] = v - rf
		if excess[i] < 0 {
			downside = append(downside, excess[i])
		}
	}
	mean := stat.Mean(excess, nil)
	if len(downside) == 0 {
		if mean > 0 {
			return math.Inf(1)
		}
		return 0
	}
	if len(downside) < 2 {
		return 0
	}
	dd := stat.StdDev(downside, nil)
	if !(dd > 0) {
		return 0
	}
	return mean / dd
}

func Volatility(pnl []float64, annualize bool) float64 {
	if len(pnl) < 2 {
		return 0
	}
	v := stat.StdDev(pnl, nil)
	if annualize {
		v *= math.Sqrt(TradingDays)
	}
	return v
}
