package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/statarb/config"
	"github.com/rustyeddy/statarb/internal/logging"
	"github.com/rustyeddy/statarb/internal/telemetry"
	"github.com/rustyeddy/statarb/journal"
	"github.com/rustyeddy/statarb/market"
	"github.com/rustyeddy/statarb/pipeline"
)

var rootCmd = &cobra.Command{
	Use:   "statarb",
	Short: "Statistical arbitrage pair screening and backtesting",
	Long: `Statarb finds pairs of co-moving stocks whose spread mean-reverts and
backtests a z-score threshold strategy on them.

It provides tools for:
  - Screening a sector universe for cointegrated pairs
  - Backtesting the selected pairs and averaging their metrics
  - Analysing a single pair
  - Querying the run journal

A typical session:
  statarb scan
  statarb backtest
  statarb journal runs`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var (
	rootConfigPath string
	rootEnvFile    string
	rootLogLevel   string
	rootNoColor    bool
	rootDBPath     string

	cfg *config.Config
	log zerolog.Logger
)

// Execute runs the root command, printing any error to stderr.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootConfigPath, "config", "c", "", "path to config file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&rootEnvFile, "env-file", ".env", "dotenv file with STATARB_* overrides")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&rootNoColor, "no-color", false, "disable colored log output")
	rootCmd.PersistentFlags().StringVarP(&rootDBPath, "db", "d", "", "SQLite journal (overrides config)")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnv(rootEnvFile); err != nil {
		return err
	}
	c, err := config.Load(rootConfigPath)
	if err != nil {
		return err
	}
	if rootLogLevel != "" {
		c.LogLevel = rootLogLevel
	}
	if rootDBPath != "" {
		c.Report.Journal = rootDBPath
	}
	cfg = c
	log = logging.Setup(cfg.LogLevel, os.Stderr, rootNoColor)
	return nil
}

func newProvider() market.Provider {
	if cfg.Data.Source == "csv" {
		return market.NewCSVProvider(cfg.Data.Dir, log)
	}
	return market.NewYahooProvider(cfg.YahooOptions(), log)
}

// openJournal opens the configured SQLite journal and CSV trade ledger.
func openJournal() (journal.Journal, error) {
	var js []journal.Journal
	if cfg.Report.Journal != "" {
		db, err := journal.NewSQLite(cfg.Report.Journal)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		js = append(js, db)
	}
	if cfg.Report.TradesCSV != "" {
		c, err := journal.NewCSV(cfg.Report.TradesCSV)
		if err != nil {
			for _, j := range js {
				_ = j.Close()
			}
			return nil, fmt.Errorf("open trade ledger: %w", err)
		}
		js = append(js, c)
	}
	return journal.Multi(js...), nil
}

// newPipeline builds the pipeline with its journal. The returned func
// closes the journal and writes the metrics textfile.
func newPipeline(cmd *cobra.Command) (*pipeline.Pipeline, func() error, error) {
	j, err := openJournal()
	if err != nil {
		return nil, nil, err
	}
	p := pipeline.New(cfg, newProvider(), log,
		pipeline.WithJournal(j),
		pipeline.WithMetrics(telemetry.New()),
		pipeline.WithOutput(cmd.OutOrStdout()),
	)
	done := func() error {
		merr := p.WriteMetrics()
		if err := j.Close(); err != nil {
			return err
		}
		return merr
	}
	return p, done, nil
}
