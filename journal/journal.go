// Package journal records screening and backtest runs, their candidates and
// their trades.
package journal

import (
	"time"

	"github.com/rustyeddy/statarb/backtest"
	"github.com/rustyeddy/statarb/pkg/id"
	"github.com/rustyeddy/statarb/screener"
)

type RunKind string

const (
	RunScan     RunKind = "scan"
	RunBacktest RunKind = "backtest"
)

// Run mirrors the runs table.
type Run struct {
	RunID   string
	Kind    RunKind
	Created time.Time

	// Data window the run was computed over.
	Start time.Time
	End   time.Time

	Config []byte // yaml of the effective config

	Sectors    int
	Tested     int
	Candidates int
	Pairs      int
	Trades     int
	TotalPnL   float64

	Notes string
}

// CandidateRecord mirrors the candidates table.
type CandidateRecord struct {
	RunID       string
	Sector      string
	X, Y        string
	Correlation float64
	CointPValue float64
	AltPValue   float64
	SpreadADF   float64
	HedgeRatio  float64
	HalfLife    *float64
	Hurst       float64
	CurrentZ    float64
}

// TradeRecord mirrors the trades table.
type TradeRecord struct {
	TradeID     string
	RunID       string
	X, Y        string
	Side        string
	EntryDate   time.Time
	ExitDate    time.Time
	EntryZ      float64
	ExitZ       float64
	EntryPriceX float64
	EntryPriceY float64
	ExitPriceX  float64
	ExitPriceY  float64
	HedgeRatio  float64
	SharesX     float64
	SharesY     float64
	PnL         float64
	PnLPct      float64
	HoldingDays int
	Reason      string
}

// Journal is implemented by the SQLite and CSV journals.
type Journal interface {
	RecordRun(Run) error
	RecordCandidate(CandidateRecord) error
	RecordTrade(TradeRecord) error
	Close() error
}

// NewRun returns a run stamped with a fresh ULID.
func NewRun(kind RunKind) Run {
	return Run{RunID: id.New(), Kind: kind, Created: time.Now().UTC()}
}

// FromCandidate converts a screener candidate.
func FromCandidate(runID string, c *screener.Candidate) CandidateRecord {
	r := CandidateRecord{
		RunID:       runID,
		Sector:      c.Sector,
		X:           c.X,
		Y:           c.Y,
		Correlation: c.Correlation,
		CointPValue: c.CointPValue,
		AltPValue:   c.AltPValue,
		SpreadADF:   c.SpreadADFPValue,
	}
	if st := c.Stats; st != nil {
		r.HedgeRatio = st.HedgeRatio
		r.HalfLife = st.HalfLife
		r.Hurst = st.Hurst
		r.CurrentZ = st.CurrentZScore
	}
	return r
}

// FromTrade converts a completed backtest trade, assigning it a trade id.
func FromTrade(runID string, t backtest.Trade) TradeRecord {
	return TradeRecord{
		TradeID:     id.New(),
		RunID:       runID,
		X:           t.X,
		Y:           t.Y,
		Side:        t.Side.String(),
		EntryDate:   t.EntryDate,
		ExitDate:    t.ExitDate,
		EntryZ:      t.EntryZ,
		ExitZ:       t.ExitZ,
		EntryPriceX: t.EntryPriceX,
		EntryPriceY: t.EntryPriceY,
		ExitPriceX:  t.ExitPriceX,
		ExitPriceY:  t.ExitPriceY,
		HedgeRatio:  t.HedgeRatio,
		SharesX:     t.SharesX,
		SharesY:     t.SharesY,
		PnL:         t.PnL,
		PnLPct:      t.PnLPct,
		HoldingDays: t.HoldingDays,
		Reason:      string(t.Reason),
	}
}
