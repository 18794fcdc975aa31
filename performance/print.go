package performance

import (
	"fmt"
	"io"
	"math"

	"github.com/rustyeddy/statarb/report"
)

const rule = "--------------------------------------------------"

// PrintResult writes a console summary of one pair backtest.
func PrintResult(w io.Writer, r BacktestResult) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, " Backtest %s / %s\n", r.X, r.Y)
	fmt.Fprintln(w, "==================================================")
	if r.Sector != "" {
		fmt.Fprintf(w, "Sector:        %s\n", r.Sector)
	}
	if r.HedgeRatio != nil {
		fmt.Fprintf(w, "Hedge Ratio:   %.4f\n", *r.HedgeRatio)
	}
	if r.FinalZScore != nil {
		fmt.Fprintf(w, "Final Z:       %.2f\n", *r.FinalZScore)
	}

	if r.TotalTrades > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Period")
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Start:         %s\n", r.Start.Format("2006-01-02"))
		fmt.Fprintf(w, "End:           %s\n", r.End.Format("2006-01-02"))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Trades:        %d\n", r.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", r.WinningTrades)
	fmt.Fprintf(w, "Losses:        %d\n", r.LosingTrades)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate)
	fmt.Fprintf(w, "Avg Holding:   %.1f days\n", r.AvgHoldingDays)
	fmt.Fprintf(w, "Streaks:       %d wins / %d losses\n", r.MaxConsecWins, r.MaxConsecLosses)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Start Balance: %.2f\n", r.Capital)
	fmt.Fprintf(w, "End Balance:   %.2f\n", r.FinalEquity)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.TotalPnL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.ReturnPct)
	fmt.Fprintf(w, "CAGR:          %.2f%%\n", r.CAGR)
	if r.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %s\n", ratio(r.ProfitFactor))
	}
	if r.MaxDrawdown > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f (%.2f%%)\n", r.MaxDrawdown, r.MaxDrawdownPct)
	}
	fmt.Fprintf(w, "Sharpe:        %.3f\n", r.Sharpe)
	fmt.Fprintf(w, "Sortino:       %s\n", ratio(r.Sortino))
	fmt.Fprintf(w, "Calmar:        %s\n", ratio(r.Calmar))
	fmt.Fprintf(w, "Volatility:    %.2f\n", r.Volatility)
	fmt.Fprintln(w)
}

// PrintAverages writes the cross-pair averages, one line per field.
func PrintAverages(w io.Writer, avg report.Record, pairs int) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, " Average Backtest Metrics (%d pairs)\n", pairs)
	fmt.Fprintln(w, "==================================================")
	for _, f := range avg {
		switch v := f.Value.(type) {
		case float64:
			fmt.Fprintf(w, "%-34s %s\n", f.Key+":", ratio(v))
		case nil:
			fmt.Fprintf(w, "%-34s -\n", f.Key+":")
		default:
			fmt.Fprintf(w, "%-34s %v\n", f.Key+":", v)
		}
	}
	fmt.Fprintln(w)
}

func ratio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}
