// Package backtest replays a pair's z-score signal through a position state
// machine and produces a ledger of completed round-trip trades.
package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/statarb/spread"
)

// Side of a spread position: Long buys Y and sells X, Short the reverse.
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	switch s {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	}
	return fmt.Sprintf("Side(%d)", int8(s))
}

type ExitReason string

const (
	MeanReversion ExitReason = "MeanReversion"
	StopLossHit   ExitReason = "StopLoss"
)

// Config holds the strategy parameters of a single-pair backtest.
type Config struct {
	Window         int
	EntryThreshold float64
	Capital        float64
	StopLoss       StopLoss
	Filter         EntryFilter
}

func DefaultConfig() Config {
	return Config{
		Window:         60,
		EntryThreshold: 2.0,
		Capital:        2500,
		StopLoss:       DefaultStopLoss(),
		Filter:         DefaultEntryFilter(),
	}
}

func (c Config) validate() error {
	if c.Window < 2 {
		return fmt.Errorf("backtest: window must be at least 2, got %d", c.Window)
	}
	if !(c.EntryThreshold > 0) {
		return fmt.Errorf("backtest: entry threshold must be positive, got %v", c.EntryThreshold)
	}
	if !(c.Capital > 0) {
		return fmt.Errorf("backtest: capital must be positive, got %v", c.Capital)
	}
	return nil
}

// Input is one pair's aligned price history together with its signal.
// X is leg 1 (independent), Y is leg 2 (dependent).
type Input struct {
	X, Y       string
	Dates      []time.Time
	PriceX     []float64
	PriceY     []float64
	HedgeRatio float64
	Spread     []float64
	ZScore     []float64
}

// Prepare computes the spread and z-score of an aligned pair with the same
// analytics the screener uses.
func Prepare(x, y string, dates []time.Time, px, py []float64, window int, entry float64) (Input, *spread.Stats, error) {
	if len(dates) != len(px) || len(px) != len(py) {
		return Input{}, nil, fmt.Errorf("backtest: misaligned input %d/%d/%d", len(dates), len(px), len(py))
	}
	st, err := spread.Compute(px, py, window, entry)
	if err != nil {
		return Input{}, nil, err
	}
	return Input{
		X:          x,
		Y:          y,
		Dates:      dates,
		PriceX:     px,
		PriceY:     py,
		HedgeRatio: st.HedgeRatio,
		Spread:     st.Spread,
		ZScore:     st.RollingZScore,
	}, st, nil
}

// Trade is a completed round trip.
type Trade struct {
	X, Y string
	Side Side

	EntryDate time.Time
	ExitDate  time.Time
	EntryZ    float64
	ExitZ     float64

	EntryPriceX float64
	EntryPriceY float64
	ExitPriceX  float64
	ExitPriceY  float64

	HedgeRatio float64
	AllocX     float64
	AllocY     float64
	SharesX    float64
	SharesY    float64

	PnL         float64
	PnLPct      float64
	HoldingDays int
	Win         bool
	Reason      ExitReason
}

// position states. A pair is either flat or holds exactly one open
// position; there is no other representable state.
type state interface{ isState() }

type flat struct{}

type open struct {
	side  Side
	entry snapshot
}

func (flat) isState() {}
func (open) isState() {}

type snapshot struct {
	date   time.Time
	z      float64
	priceX float64
	priceY float64
	hedge  float64
}

// Run replays the signal bar by bar from index Window and returns the
// completed trades in chronological order. A position still open at the end
// of the data is dropped: only completed round trips are reported.
func Run(in Input, cfg Config) ([]Trade, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	n := len(in.ZScore)
	if len(in.Dates) != n || len(in.PriceX) != n || len(in.PriceY) != n {
		return nil, fmt.Errorf("backtest: misaligned input")
	}

	var trades []Trade
	var st state = flat{}
	for i := cfg.Window; i < n; i++ {
		z := in.ZScore[i]
		if math.IsNaN(z) {
			continue
		}

		switch s := st.(type) {
		case flat:
			side, ok := entrySignal(z, cfg.EntryThreshold)
			if !ok || !cfg.Filter.Allow(in.Spread, i, cfg.Window) {
				continue
			}
			st = open{side: side, entry: snapshot{
				date:   in.Dates[i],
				z:      z,
				priceX: in.PriceX[i],
				priceY: in.PriceY[i],
				hedge:  in.HedgeRatio,
			}}

		case open:
			reason, ok := exitSignal(s, z, cfg.StopLoss)
			if !ok {
				continue
			}
			trades = append(trades, closeTrade(in, s, i, z, reason, cfg.Capital))
			st = flat{}
		}
	}
	return trades, nil
}

func entrySignal(z, threshold float64) (Side, bool) {
	switch {
	case z <= -threshold:
		return Long, true
	case z >= threshold:
		return Short, true
	}
	return 0, false
}

// exitSignal checks mean reversion first, then the stop.
func exitSignal(o open, z float64, stop StopLoss) (ExitReason, bool) {
	if (o.side == Long && z >= 0) || (o.side == Short && z <= 0) {
		return MeanReversion, true
	}
	if stop.Hit(o.side, o.entry.z, z) {
		return StopLossHit, true
	}
	return "", false
}

// closeTrade sizes the legs in inverse proportion to the absolute hedge
// ratio and books the PnL of both legs.
func closeTrade(in Input, o open, i int, z float64, reason ExitReason, capital float64) Trade {
	e := o.entry
	hedge := math.Abs(e.hedge)
	allocX := capital / (1 + hedge)
	allocY := capital - allocX
	sharesX := allocX / e.priceX
	sharesY := allocY / e.priceY

	exitX, exitY := in.PriceX[i], in.PriceY[i]
	var pnlX, pnlY float64
	if o.side == Long {
		pnlX = sharesX * (e.priceX - exitX)
		pnlY = sharesY * (exitY - e.priceY)
	} else {
		pnlX = sharesX * (exitX - e.priceX)
		pnlY = sharesY * (e.priceY - exitY)
	}
	pnl := pnlX + pnlY

	return Trade{
		X:           in.X,
		Y:           in.Y,
		Side:        o.side,
		EntryDate:   e.date,
		ExitDate:    in.Dates[i],
		EntryZ:      e.z,
		ExitZ:       z,
		EntryPriceX: e.priceX,
		EntryPriceY: e.priceY,
		ExitPriceX:  exitX,
		ExitPriceY:  exitY,
		HedgeRatio:  hedge,
		AllocX:      allocX,
		AllocY:      allocY,
		SharesX:     sharesX,
		SharesY:     sharesY,
		PnL:         pnl,
		PnLPct:      pnl / capital * 100,
		HoldingDays: int(in.Dates[i].Sub(e.date).Hours() / 24),
		Win:         pnl > 0,
		Reason:      reason,
	}
}
