// Package pipeline wires the screener, the backtest runner and the
// performance aggregator to the price provider, the report sink and the
// journal.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/statarb/backtest"
	"github.com/rustyeddy/statarb/config"
	"github.com/rustyeddy/statarb/internal/telemetry"
	"github.com/rustyeddy/statarb/journal"
	"github.com/rustyeddy/statarb/market"
	"github.com/rustyeddy/statarb/performance"
	"github.com/rustyeddy/statarb/report"
	"github.com/rustyeddy/statarb/screener"
	"github.com/rustyeddy/statarb/spread"
)

type Pipeline struct {
	cfg      *config.Config
	provider market.Provider
	sink     *report.Sink
	journal  journal.Journal
	metrics  *telemetry.Metrics
	out      io.Writer
	log      zerolog.Logger
	now      func() time.Time
}

type Option func(*Pipeline)

// WithJournal records runs, candidates and trades to j.
func WithJournal(j journal.Journal) Option {
	return func(p *Pipeline) { p.journal = j }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithSink replaces the sink built from the report config.
func WithSink(s *report.Sink) Option {
	return func(p *Pipeline) { p.sink = s }
}

// WithOutput sets where console summaries are printed. Defaults to
// io.Discard.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.out = w }
}

func New(cfg *config.Config, provider market.Provider, log zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		provider: provider,
		out:      io.Discard,
		log:      log.With().Str("component", "pipeline").Logger(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	if p.sink == nil {
		p.sink = report.NewSink(cfg.Report.Dir, log)
	}
	if p.journal == nil {
		p.journal = journal.Multi()
	}
	return p
}

// ScanResult is the outcome of a universe scan.
type ScanResult struct {
	Run        journal.Run
	Universe   screener.UniverseResult
	ReportPath string
}

// Scan screens every sector, saves the candidate report and journals the
// run. On cancellation the sectors finished so far are still saved and the
// context error is returned with them.
func (p *Pipeline) Scan(ctx context.Context, sectors map[string][]string) (*ScanResult, error) {
	opts := []screener.Option{}
	if p.metrics != nil {
		opts = append(opts, screener.WithObserver(p.metrics))
	}
	sc := screener.New(p.cfg.ScreenerParams(), p.log, opts...)

	dataOpts := p.cfg.DataOptions()
	res, scanErr := sc.ScreenUniverse(ctx, p.provider, sectors, dataOpts)
	if scanErr != nil && !errors.Is(scanErr, context.Canceled) && !errors.Is(scanErr, context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan: %w", scanErr)
	}

	out := &ScanResult{Universe: res, Run: p.newRun(journal.RunScan)}
	out.Run.Sectors = len(res.Sectors)
	out.Run.Candidates = len(res.Candidates)
	for _, sr := range res.Sectors {
		out.Run.Tested += sr.Tested
	}
	if len(res.Skipped) > 0 {
		out.Run.Notes = fmt.Sprintf("skipped sectors: %v", res.Skipped)
	}

	records := make([]report.Record, len(res.Candidates))
	for i := range res.Candidates {
		records[i] = res.Candidates[i].Record()
	}
	path, err := p.sink.Write(report.CandidatesReport, records)
	if err != nil {
		return out, fmt.Errorf("save candidates: %w", err)
	}
	out.ReportPath = path

	if err := p.journal.RecordRun(out.Run); err != nil {
		return out, fmt.Errorf("journal run: %w", err)
	}
	for i := range res.Candidates {
		if err := p.journal.RecordCandidate(journal.FromCandidate(out.Run.RunID, &res.Candidates[i])); err != nil {
			return out, fmt.Errorf("journal candidate: %w", err)
		}
	}

	p.log.Info().
		Str("run", out.Run.RunID).
		Int("sectors", out.Run.Sectors).
		Int("tested", out.Run.Tested).
		Int("candidates", out.Run.Candidates).
		Msg("scan complete")
	return out, scanErr
}

// LoadCandidates reads a candidate report written by Scan. An empty path
// means today's report.
func (p *Pipeline) LoadCandidates(path string) ([]screener.Candidate, error) {
	if path == "" {
		path = p.sink.Path(report.CandidatesReport)
	}
	records, err := report.Read(path)
	if err != nil {
		return nil, err
	}
	return screener.FromRecords(records)
}

// BacktestOutcome is the outcome of a batch backtest.
type BacktestOutcome struct {
	Run     journal.Run
	Results []performance.BacktestResult
	// Failed holds the pairs that could not be backtested.
	Failed     []backtest.PairResult
	Average    report.Record
	ReportPath string
}

// SelectPairs returns the configured number of candidates with the lowest
// cointegration p-values. The input is not modified.
func (p *Pipeline) SelectPairs(cs []screener.Candidate) []screener.Candidate {
	sorted := append([]screener.Candidate(nil), cs...)
	screener.SortCandidates(sorted)
	return screener.Top(sorted, p.cfg.Backtest.TopN)
}

// Backtest runs the selected candidates, saves per-pair results, prints the
// cross-pair averages and journals the run and its trades.
func (p *Pipeline) Backtest(ctx context.Context, candidates []screener.Candidate) (*BacktestOutcome, error) {
	selected := p.SelectPairs(candidates)
	out := &BacktestOutcome{Run: p.newRun(journal.RunBacktest)}

	jobs := make([]backtest.Job, len(selected))
	for i, c := range selected {
		jobs[i] = backtest.Job{X: c.X, Y: c.Y, Sector: c.Sector}
	}

	var prs []backtest.PairResult
	if len(jobs) == 0 {
		p.log.Warn().Msg("no pairs to backtest")
	} else {
		table, err := p.fetch(ctx, jobSymbols(jobs))
		if err != nil {
			return nil, err
		}
		prs = p.runner().Run(ctx, table, jobs)
	}

	capital := p.cfg.Backtest.Capital
	opts := p.cfg.PerformanceOptions()
	var records []report.Record
	var trades []journal.TradeRecord
	for _, pr := range prs {
		if pr.Err != nil {
			out.Failed = append(out.Failed, pr)
			continue
		}
		r := performance.NewResult(pr, capital, opts)
		out.Results = append(out.Results, r)
		records = append(records, r.Record())
		out.Run.Trades += len(pr.Trades)
		out.Run.TotalPnL += r.TotalPnL
		extendWindow(&out.Run, pr.Start, pr.End)
		for _, t := range pr.Trades {
			trades = append(trades, journal.FromTrade(out.Run.RunID, t))
		}
	}
	out.Run.Pairs = len(out.Results)
	if len(out.Failed) > 0 {
		out.Run.Notes = fmt.Sprintf("%d pairs failed", len(out.Failed))
	}

	out.Average = performance.Average(records)
	if out.Average != nil {
		performance.PrintAverages(p.out, out.Average, len(out.Results))
	}

	path, err := p.sink.Write(report.BacktestReport, records)
	if err != nil {
		return out, fmt.Errorf("save backtest results: %w", err)
	}
	out.ReportPath = path

	if err := p.journal.RecordRun(out.Run); err != nil {
		return out, fmt.Errorf("journal run: %w", err)
	}
	for _, t := range trades {
		if err := p.journal.RecordTrade(t); err != nil {
			return out, fmt.Errorf("journal trade: %w", err)
		}
	}

	fmt.Fprintf(p.out, "\nCompleted backtests for %d pairs.\n", len(out.Results))
	return out, ctx.Err()
}

// PairAnalysis is the outcome of analysing and backtesting a single pair.
type PairAnalysis struct {
	Stats  *spread.Stats
	Trades []backtest.Trade
	Result performance.BacktestResult
}

// Pair computes the spread analytics of y against x and backtests the pair.
// Nothing is saved or journaled.
func (p *Pipeline) Pair(ctx context.Context, x, y string) (*PairAnalysis, error) {
	table, err := p.fetch(ctx, []string{x, y})
	if err != nil {
		return nil, err
	}
	job := backtest.Job{X: x, Y: y}
	pr := p.runner().Run(ctx, table, []backtest.Job{job})[0]
	if pr.Err != nil {
		return nil, fmt.Errorf("pair %s: %w", job.Key(), pr.Err)
	}
	res := performance.NewResult(pr, p.cfg.Backtest.Capital, p.cfg.PerformanceOptions())
	performance.PrintResult(p.out, res)
	return &PairAnalysis{Stats: pr.Stats, Trades: pr.Trades, Result: res}, nil
}

// WriteMetrics dumps the telemetry registry to the configured textfile.
// It is a no-op without metrics or a file.
func (p *Pipeline) WriteMetrics() error {
	if p.metrics == nil || p.cfg.Report.MetricsFile == "" {
		return nil
	}
	return p.metrics.WriteTextfile(p.cfg.Report.MetricsFile)
}

func (p *Pipeline) runner() *backtest.Runner {
	r := backtest.NewRunner(p.cfg.BacktestConfig(), p.cfg.Backtest.Workers, p.log)
	r.MinHistory, r.MinRows = p.cfg.Data.MinHistory, p.cfg.Data.MinRows
	if p.metrics != nil {
		r.Observer = p.metrics
	}
	return r
}

// fetch loads the raw table for symbols. Columns are not cleaned jointly;
// the runner cleans each pair's two columns on its own.
func (p *Pipeline) fetch(ctx context.Context, symbols []string) (*market.Table, error) {
	req := p.cfg.DataOptions().Request
	req.Symbols = symbols
	t, err := p.provider.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	return t, nil
}

func (p *Pipeline) newRun(kind journal.RunKind) journal.Run {
	run := journal.NewRun(kind)
	run.Created = p.now().UTC()
	if req := p.cfg.DataOptions().Request; kind == journal.RunScan {
		run.Start, run.End = req.Window(p.now())
	}
	if b, err := yaml.Marshal(p.cfg); err == nil {
		run.Config = b
	}
	return run
}

func extendWindow(run *journal.Run, start, end time.Time) {
	if !start.IsZero() && (run.Start.IsZero() || start.Before(run.Start)) {
		run.Start = start
	}
	if end.After(run.End) {
		run.End = end
	}
}

func jobSymbols(jobs []backtest.Job) []string {
	seen := make(map[string]bool)
	var out []string
	for _, j := range jobs {
		for _, s := range []string{j.X, j.Y} {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
