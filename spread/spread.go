// Package spread computes the hedge ratio, spread and mean-reversion
// diagnostics of a pair of aligned price series. Everything here is a pure
// function of its inputs.
package spread

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/statarb/indicators"
)

// Stats is the full analytic picture of one directed pair. The series fields
// have the same length as the aligned input; rolling values before the
// window is full are NaN.
type Stats struct {
	HedgeRatio float64
	Intercept  float64
	// HedgeFallback is set when the regression was degenerate and the
	// 1.0/0.0 fallback was used.
	HedgeFallback bool

	Spread        []float64
	RollingMean   []float64
	RollingStd    []float64
	RollingZScore []float64

	// CurrentZScore is the last defined z-score, NaN if there is none.
	CurrentZScore float64
	SpreadMean    float64
	SpreadStd     float64

	HalfLife      *float64
	Hurst         float64
	ADFPValue     float64
	ReversionRate *float64
	ZeroCrossings int
	ZScoreSummary indicators.Summary
}

// Compute fits y ≈ beta*x + alpha over the whole history and derives the
// spread y - beta*x - alpha together with its rolling z-score and
// diagnostics. x and y must already be aligned.
func Compute(x, y []float64, window int, entry float64) (*Stats, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("spread: length mismatch %d != %d", len(x), len(y))
	}
	if window < 2 {
		return nil, fmt.Errorf("spread: window must be at least 2, got %d", window)
	}
	if len(x) < 3 {
		return nil, ErrTooShort
	}

	st := &Stats{}
	beta, alpha, err := HedgeRatio(x, y)
	if err != nil {
		if !errors.Is(err, ErrSingular) {
			return nil, err
		}
		st.HedgeFallback = true
	}
	st.HedgeRatio, st.Intercept = beta, alpha

	st.Spread = Series(x, y, beta, alpha)
	roll := indicators.RollingStats(st.Spread, window)
	st.RollingMean, st.RollingStd, st.RollingZScore = roll.Mean, roll.Std, roll.ZScore

	st.CurrentZScore = lastValid(st.RollingZScore)
	whole := indicators.Summarize(st.Spread)
	st.SpreadMean, st.SpreadStd = whole.Mean, whole.Std
	st.ZScoreSummary = indicators.Summarize(st.RollingZScore)

	if hl, ok := HalfLife(st.Spread); ok {
		st.HalfLife = &hl
	}
	st.Hurst = Hurst(st.Spread)
	st.ADFPValue = StationarityPValue(st.Spread)
	if rr, ok := ReversionRate(st.RollingZScore, entry); ok {
		st.ReversionRate = &rr
	}
	st.ZeroCrossings = ZeroCrossings(st.RollingZScore)
	return st, nil
}

// Series returns y - beta*x - alpha.
func Series(x, y []float64, beta, alpha float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = y[i] - beta*x[i] - alpha
	}
	return out
}

func lastValid(v []float64) float64 {
	for i := len(v) - 1; i >= 0; i-- {
		if !math.IsNaN(v[i]) {
			return v[i]
		}
	}
	return math.NaN()
}
