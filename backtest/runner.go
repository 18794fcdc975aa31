package backtest

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/statarb/market"
	"github.com/rustyeddy/statarb/spread"
)

// Job is one pair to backtest. X is leg 1, Y is leg 2.
type Job struct {
	X, Y   string
	Sector string
}

func (j Job) Key() string { return j.X + "/" + j.Y }

// PairResult is the outcome of one job. Err is set when the pair could not
// be backtested; Trades may be empty on success.
type PairResult struct {
	Job    Job
	Trades []Trade
	Stats  *spread.Stats
	Start  time.Time
	End    time.Time
	Err    error
}

// Observer receives backtest events, e.g. for metrics.
type Observer interface {
	PairCompleted(job Job, trades []Trade)
	PairFailed(job Job, err error)
}

type nopObserver struct{}

func (nopObserver) PairCompleted(Job, []Trade) {}
func (nopObserver) PairFailed(Job, error)      {}

// Runner fans a batch of pairs out over a bounded worker pool. Every pair is
// independent; a failing pair is logged and reported without affecting the
// others.
type Runner struct {
	Config  Config
	Workers int
	// MinHistory and MinRows are passed to market.Clean for each pair's
	// two-column table, as the screener does for a sector.
	MinHistory int
	MinRows    int
	Logger     zerolog.Logger
	Observer   Observer
}

func NewRunner(cfg Config, workers int, log zerolog.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{
		Config:   cfg,
		Workers:  workers,
		Logger:   log.With().Str("component", "backtest").Logger(),
		Observer: nopObserver{},
	}
}

// Run backtests every job against the raw price table. Each pair is cut to
// its own two columns and cleaned before the backtest. Results are returned in
// job order. Cancellation stops jobs that have not started yet; their
// results carry the context error.
func (r *Runner) Run(ctx context.Context, t *market.Table, jobs []Job) []PairResult {
	results := make([]PairResult, len(jobs))
	obs := r.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	var g errgroup.Group
	g.SetLimit(r.Workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = PairResult{Job: job, Err: err}
				return nil
			}
			res := r.runPair(t, job)
			switch {
			case errors.Is(res.Err, market.ErrInsufficientData):
				r.Logger.Info().Err(res.Err).Str("pair", job.Key()).Str("sector", job.Sector).Msg("pair skipped")
				obs.PairFailed(job, res.Err)
			case res.Err != nil:
				r.Logger.Warn().Err(res.Err).Str("pair", job.Key()).Str("sector", job.Sector).
					Str("stage", "backtest").Msg("pair failed")
				obs.PairFailed(job, res.Err)
			default:
				r.Logger.Debug().Str("pair", job.Key()).Int("trades", len(res.Trades)).Msg("pair backtested")
				obs.PairCompleted(job, res.Trades)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runPair isolates one job, converting panics into errors.
func (r *Runner) runPair(t *market.Table, job Job) (res PairResult) {
	res.Job = job
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("backtest %s panicked: %v", job.Key(), p)
		}
	}()

	sub, err := t.Select(job.X, job.Y)
	if err != nil {
		res.Err = err
		return res
	}
	clean, err := market.Clean(sub, r.MinHistory, r.MinRows)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", job.Key(), err)
		return res
	}
	x, y, err := clean.Pair(job.X, job.Y)
	if err != nil {
		res.Err = err
		return res
	}
	if x.Len() <= r.Config.Window {
		res.Err = fmt.Errorf("%w: %s has %d aligned bars, window is %d",
			market.ErrInsufficientData, job.Key(), x.Len(), r.Config.Window)
		return res
	}

	in, st, err := Prepare(job.X, job.Y, x.Dates, x.Values, y.Values, r.Config.Window, r.Config.EntryThreshold)
	if err != nil {
		res.Err = err
		return res
	}
	trades, err := Run(in, r.Config)
	if err != nil {
		res.Err = err
		return res
	}
	res.Trades = trades
	res.Stats = st
	res.Start, res.End = x.Dates[0], x.Dates[len(x.Dates)-1]
	return res
}
