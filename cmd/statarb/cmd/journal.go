package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/statarb/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the run journal",
	Long: `Query and display journal records from the SQLite database.

Subcommands:
  runs       - List recent scan and backtest runs
  candidates - List the candidates of a scan run
  trades     - List the trades of a backtest run

Examples:
  statarb journal runs -n 5
  statarb journal candidates 01JABCDEF...
  statarb journal trades 01JABCDEF...`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalCandidatesCmd = &cobra.Command{
	Use:   "candidates <run-id>",
	Short: "List the candidates of a scan run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalCandidates,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "List the trades of a backtest run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrades,
}

var journalLimit int

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalCandidatesCmd)
	journalCmd.AddCommand(journalTradesCmd)

	journalRunsCmd.Flags().IntVarP(&journalLimit, "limit", "n", 10, "number of runs to show (0 for all)")
}

func openSQLite() (*journal.SQLite, error) {
	if cfg.Report.Journal == "" {
		return nil, fmt.Errorf("no journal configured (set report.journal or --db)")
	}
	j, err := journal.NewSQLite(cfg.Report.Journal)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(journalLimit)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	for _, r := range runs {
		org, err := journal.FormatRunOrg(r)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), org)
	}
	return nil
}

func runJournalCandidates(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	cs, err := j.ListCandidates(args[0])
	if err != nil {
		return fmt.Errorf("query candidates: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), journal.FormatCandidatesOrg(cs))
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTrades(args[0])
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}
