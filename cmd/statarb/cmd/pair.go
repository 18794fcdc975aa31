package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/statarb/journal"
	"github.com/rustyeddy/statarb/spread"
)

var pairCmd = &cobra.Command{
	Use:   "pair <stock1> <stock2>",
	Short: "Analyse and backtest a single pair",
	Long: `Pair regresses stock2 on stock1, prints the spread diagnostics and
backtests the pair. Nothing is saved.

Example:
  statarb pair KO PEP --trades`,
	Args: cobra.ExactArgs(2),
	RunE: runPair,
}

var pairShowTrades bool

func init() {
	rootCmd.AddCommand(pairCmd)

	pairCmd.Flags().BoolVarP(&pairShowTrades, "trades", "t", false, "print each trade as an Org entry")
}

func runPair(cmd *cobra.Command, args []string) error {
	p, done, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	defer done()

	w := cmd.OutOrStdout()
	a, err := p.Pair(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	printStats(w, a.Stats)

	if pairShowTrades {
		recs := make([]journal.TradeRecord, len(a.Trades))
		for i, t := range a.Trades {
			recs[i] = journal.FromTrade("", t)
		}
		fmt.Fprintln(w, journal.FormatTradesOrg(recs))
	}
	return nil
}

func printStats(w io.Writer, st *spread.Stats) {
	fmt.Fprintln(w, "Spread Diagnostics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Hedge Ratio:   %.4f (intercept %.4f)\n", st.HedgeRatio, st.Intercept)
	fmt.Fprintf(w, "ADF p-value:   %.4f\n", st.ADFPValue)
	if st.HalfLife != nil {
		fmt.Fprintf(w, "Half-life:     %.1f days\n", *st.HalfLife)
	} else {
		fmt.Fprintln(w, "Half-life:     none")
	}
	fmt.Fprintf(w, "Hurst:         %.3f\n", st.Hurst)
	if st.ReversionRate != nil {
		fmt.Fprintf(w, "Reversion:     %.1f%%\n", *st.ReversionRate)
	}
	fmt.Fprintf(w, "Crossings:     %d\n", st.ZeroCrossings)
	fmt.Fprintf(w, "Current Z:     %.2f\n", st.CurrentZScore)
}
