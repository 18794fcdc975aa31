package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest the pairs found by the last scan",
	Long: `Backtest reads a pairs_trading_results report (today's by default),
takes the candidates with the lowest cointegration p-values and replays the
z-score strategy on each of them. Per-pair metrics are saved to the
backtest_pair_trading_results report; the cross-pair averages are printed.

Examples:
  statarb backtest
  statarb backtest --candidates __reports__/2025-03-14/pairs_trading_results_20250314.xlsx --top 20`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

var (
	btCandidates string
	btTop        int
	btCapital    float64
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&btCandidates, "candidates", "", "candidate report to read (default: today's scan)")
	backtestCmd.Flags().IntVarP(&btTop, "top", "n", 0, "number of pairs to backtest (overrides config)")
	backtestCmd.Flags().Float64VarP(&btCapital, "capital", "b", 0, "capital per pair (overrides config)")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	if btTop > 0 {
		cfg.Backtest.TopN = btTop
	}
	if btCapital > 0 {
		cfg.Backtest.Capital = btCapital
	}

	p, done, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	candidates, err := p.LoadCandidates(btCandidates)
	if err != nil {
		_ = done()
		return fmt.Errorf("load candidates: %w", err)
	}

	out, err := p.Backtest(cmd.Context(), candidates)
	if cerr := done(); err == nil {
		err = cerr
	}
	if out == nil {
		return err
	}
	for _, f := range out.Failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", f.Job.Key(), f.Err)
	}
	if out.ReportPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", out.ReportPath)
	}
	return err
}
