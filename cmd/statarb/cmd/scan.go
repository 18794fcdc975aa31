package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/statarb/universe"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Screen the universe for cointegrated pairs",
	Long: `Scan loads the sector universe, fetches each sector's price history and
screens every correlated pair through the cointegration test and the quality
gate. Surviving pairs are saved to the pairs_trading_results report and
journaled.

Examples:
  statarb scan
  statarb scan --universe sp500.yaml --sector Energy --sector Utilities`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

var (
	scanUniverse string
	scanSectors  []string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanUniverse, "universe", "u", "", "universe file (overrides config)")
	scanCmd.Flags().StringSliceVarP(&scanSectors, "sector", "s", nil, "only scan these sectors")
}

func runScan(cmd *cobra.Command, args []string) error {
	path := cfg.Universe.File
	if scanUniverse != "" {
		path = scanUniverse
	}
	u, err := universe.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("universe: %w", err)
	}
	sectors := u.Resolve(cfg.FilterOptions())
	if len(scanSectors) > 0 {
		sectors = pickSectors(sectors, scanSectors)
	}
	if len(sectors) == 0 {
		return fmt.Errorf("universe %s: no sectors to scan", path)
	}

	p, done, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	res, err := p.Scan(cmd.Context(), sectors)
	if cerr := done(); err == nil {
		err = cerr
	}
	if res == nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Scan %s: %d sectors, %d pairs tested, %d candidates\n",
		res.Run.RunID, res.Run.Sectors, res.Run.Tested, res.Run.Candidates)
	for _, c := range res.Universe.Candidates {
		z := math.NaN()
		if c.Stats != nil {
			z = c.Stats.CurrentZScore
		}
		fmt.Fprintf(w, "  %-12s %-6s -> %-6s p=%.4f corr=%.3f z=%.2f\n", c.Sector, c.X, c.Y, c.CointPValue, c.Correlation, z)
	}
	if res.ReportPath != "" {
		fmt.Fprintf(w, "Saved %s\n", res.ReportPath)
	}
	return err
}

// pickSectors keeps the named sectors, matching after normalization.
func pickSectors(all map[string][]string, names []string) map[string][]string {
	out := make(map[string][]string)
	for _, n := range names {
		n = universe.NormalizeSector(n)
		if tickers, ok := all[n]; ok {
			out[n] = tickers
		}
	}
	return out
}
