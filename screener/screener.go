// Package screener finds cointegrated, mean-reverting pairs within a peer
// group of instruments.
package screener

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/statarb/indicators"
	"github.com/rustyeddy/statarb/market"
	"github.com/rustyeddy/statarb/spread"
)

// ErrInsufficientOverlap marks a pair whose legs share too few dates.
var ErrInsufficientOverlap = errors.New("screener: insufficient overlapping history")

// Params controls candidate generation and the quality gate.
type Params struct {
	MinCorrelation float64
	Window         int
	EntryThreshold float64
	MaxCointPValue float64
	MinOverlap     int
	Workers        int
	Gate           Gate
}

func DefaultParams() Params {
	return Params{
		MinCorrelation: 0.7,
		Window:         60,
		EntryThreshold: 2.0,
		MaxCointPValue: 0.05,
		MinOverlap:     100,
		Workers:        runtime.NumCPU(),
		Gate:           DefaultGate(),
	}
}

// Candidate is a directed pair that survived screening. X is the
// independent leg (stock 1) and Y the dependent leg (stock 2), so the spread
// is Y - HedgeRatio*X - Intercept.
type Candidate struct {
	Sector string
	X      string
	Y      string

	Correlation float64
	CointPValue float64
	CointScore  float64
	// Direction is 1 when the first ticker of the unordered pair is Y,
	// 2 when the second one is.
	Direction       int
	AltPValue       float64
	SpreadADFPValue float64

	Stats  *spread.Stats
	Dates  []time.Time
	PriceX float64
	PriceY float64
}

// Key identifies the directed pair.
func (c *Candidate) Key() string { return c.X + "/" + c.Y }

// Rejection records why an unordered pair was not emitted.
type Rejection struct {
	Sector string
	A, B   string
	Code   string
	Reason string
}

// SectorResult is the outcome of screening one sector.
type SectorResult struct {
	Sector     string
	Candidates []Candidate
	Rejections []Rejection
	// Tested counts pairs that reached the cointegration test.
	Tested int
}

// Observer receives screening events, e.g. for metrics.
type Observer interface {
	PairTested(sector string)
	PairRejected(sector, code string)
	CandidateAccepted(sector string)
}

type nopObserver struct{}

func (nopObserver) PairTested(string)           {}
func (nopObserver) PairRejected(string, string) {}
func (nopObserver) CandidateAccepted(string)    {}

type Screener struct {
	params Params
	log    zerolog.Logger
	obs    Observer
}

type Option func(*Screener)

func WithObserver(o Observer) Option {
	return func(s *Screener) { s.obs = o }
}

func New(p Params, log zerolog.Logger, opts ...Option) *Screener {
	if p.Workers <= 0 {
		p.Workers = 1
	}
	s := &Screener{
		params: p,
		log:    log.With().Str("component", "screener").Logger(),
		obs:    nopObserver{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Screener) Params() Params { return s.params }

// Pair is an unordered pair of tickers selected for testing.
type Pair struct {
	A, B        string
	Correlation float64
}

type pairOutcome struct {
	cand      *Candidate
	rejection *Rejection
	tested    bool
}

// ScreenSector screens every sufficiently correlated pair of the table's
// columns. Per-pair failures are logged and recorded as rejections; a
// degenerate table yields an empty result.
func (s *Screener) ScreenSector(t *market.Table, sector string) SectorResult {
	res := SectorResult{Sector: sector}
	if t == nil || t.Cols() < 2 || t.Rows() == 0 {
		s.log.Warn().Str("sector", sector).Msg("not enough data to screen sector")
		return res
	}

	jobs := CandidatePairs(Correlations(t), s.params.MinCorrelation)
	if len(jobs) == 0 {
		s.log.Info().Str("sector", sector).Msg("no highly correlated pairs")
		return res
	}
	s.log.Info().Str("sector", sector).Int("pairs", len(jobs)).Msg("testing pairs in both directions")

	outcomes := make([]pairOutcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(s.params.Workers)
	for i, job := range jobs {
		g.Go(func() error {
			outcomes[i] = s.screenPair(t, sector, job)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if o.tested {
			res.Tested++
		}
		if o.cand != nil {
			res.Candidates = append(res.Candidates, *o.cand)
		}
		if o.rejection != nil {
			res.Rejections = append(res.Rejections, *o.rejection)
		}
	}
	SortCandidates(res.Candidates)
	s.log.Info().Str("sector", sector).Int("tested", res.Tested).
		Int("candidates", len(res.Candidates)).Msg("sector screened")
	return res
}

// screenPair evaluates one unordered pair. Panics are converted into
// rejections so one bad pair cannot take down the sector.
func (s *Screener) screenPair(t *market.Table, sector string, job Pair) (out pairOutcome) {
	reject := func(code, reason string) pairOutcome {
		s.obs.PairRejected(sector, code)
		out.rejection = &Rejection{Sector: sector, A: job.A, B: job.B, Code: code, Reason: reason}
		return out
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn().Str("sector", sector).Str("pair", job.A+"/"+job.B).
				Interface("panic", r).Msg("pair screening panicked")
			out = reject(CheckError, fmt.Sprintf("panic: %v", r))
		}
	}()

	cand, err := s.evaluate(t, sector, job, &out)
	if err != nil {
		code := CheckError
		var ge *gateError
		switch {
		case errors.Is(err, ErrInsufficientOverlap):
			code = CheckOverlap
		case errors.As(err, &ge):
			code = ge.code
		default:
			s.log.Warn().Err(err).Str("sector", sector).Str("pair", job.A+"/"+job.B).
				Str("stage", "analytics").Msg("pair failed")
		}
		if code != CheckError {
			s.log.Debug().Str("sector", sector).Str("pair", job.A+"/"+job.B).
				Str("check", code).Msg(err.Error())
		}
		return reject(code, err.Error())
	}

	s.obs.CandidateAccepted(sector)
	out.cand = cand
	return out
}

type gateError struct {
	code string
	msg  string
}

func (e *gateError) Error() string { return e.msg }

func (s *Screener) evaluate(t *market.Table, sector string, job Pair, out *pairOutcome) (*Candidate, error) {
	sa, sb, err := t.Pair(job.A, job.B)
	if err != nil {
		return nil, err
	}
	if sa.Len() < s.params.MinOverlap {
		return nil, fmt.Errorf("%w: %d < %d", ErrInsufficientOverlap, sa.Len(), s.params.MinOverlap)
	}

	out.tested = true
	s.obs.PairTested(sector)

	// Direction 1 treats a as the dependent leg, direction 2 treats b.
	r1 := cointOrFail(sa.Values, sb.Values)
	r2 := cointOrFail(sb.Values, sa.Values)
	if !(r1.PValue < s.params.MaxCointPValue || r2.PValue < s.params.MaxCointPValue) {
		return nil, &gateError{CheckNotCointegrate,
			fmt.Sprintf("coint p-values %.4f / %.4f >= %.4f", r1.PValue, r2.PValue, s.params.MaxCointPValue)}
	}

	c := &Candidate{Sector: sector, Correlation: job.Correlation, Dates: sa.Dates}
	var xs, ys market.Series
	if r1.PValue < r2.PValue {
		xs, ys = sb, sa
		c.CointPValue, c.CointScore, c.Direction, c.AltPValue = r1.PValue, r1.Stat, 1, r2.PValue
	} else {
		xs, ys = sa, sb
		c.CointPValue, c.CointScore, c.Direction, c.AltPValue = r2.PValue, r2.Stat, 2, r1.PValue
	}
	c.X, c.Y = xs.Symbol, ys.Symbol

	st, err := spread.Compute(xs.Values, ys.Values, s.params.Window, s.params.EntryThreshold)
	if err != nil {
		return nil, err
	}
	c.Stats = st
	c.SpreadADFPValue = spread.StationarityPValue(st.Spread)
	c.PriceX, c.PriceY = xs.Last(), ys.Last()

	if d := s.params.Gate.Evaluate(c); !d.Allowed {
		v := d.Reason()
		return nil, &gateError{v.Code, v.Msg}
	}
	return c, nil
}

func cointOrFail(y, x []float64) spread.CointResult {
	r, err := spread.Coint(y, x)
	if err != nil || math.IsNaN(r.PValue) {
		return spread.CointResult{Stat: math.NaN(), PValue: 1.0}
	}
	return r
}

// CorrMatrix is a symmetric Pearson correlation matrix.
type CorrMatrix struct {
	Symbols []string
	values  []float64
}

func (m CorrMatrix) At(i, j int) float64 {
	return m.values[i*len(m.Symbols)+j]
}

// Correlations computes pairwise-complete Pearson correlations between the
// table's columns.
func Correlations(t *market.Table) CorrMatrix {
	n := t.Cols()
	m := CorrMatrix{Symbols: append([]string(nil), t.Symbols...), values: make([]float64, n*n)}
	cols := make([][]float64, n)
	for i, sym := range t.Symbols {
		s, _ := t.Column(sym)
		cols[i] = s.Values
	}

	for i := 0; i < n; i++ {
		m.values[i*n+i] = 1
		for j := i + 1; j < n; j++ {
			var x, y []float64
			for k := range cols[i] {
				if math.IsNaN(cols[i][k]) || math.IsNaN(cols[j][k]) {
					continue
				}
				x = append(x, cols[i][k])
				y = append(y, cols[j][k])
			}
			c := indicators.Correlation(x, y)
			m.values[i*n+j], m.values[j*n+i] = c, c
		}
	}
	return m
}

// CandidatePairs lists unordered pairs with |correlation| >= minCorr, in
// column order.
func CandidatePairs(m CorrMatrix, minCorr float64) []Pair {
	var jobs []Pair
	n := len(m.Symbols)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := m.At(i, j)
			if math.Abs(c) >= minCorr {
				jobs = append(jobs, Pair{A: m.Symbols[i], B: m.Symbols[j], Correlation: c})
			}
		}
	}
	return jobs
}

// SortCandidates orders candidates by cointegration p-value, breaking ties
// by sector and tickers so the order is reproducible.
func SortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.CointPValue != b.CointPValue {
			return a.CointPValue < b.CointPValue
		}
		if a.Sector != b.Sector {
			return a.Sector < b.Sector
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
}
