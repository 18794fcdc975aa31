package spread

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Trend selects the deterministic terms of a unit-root regression.
type Trend int

const (
	// TrendNone fits no deterministic terms.
	TrendNone Trend = iota
	// TrendConstant fits an intercept.
	TrendConstant
)

func (t Trend) terms() int {
	if t == TrendConstant {
		return 1
	}
	return 0
}

// ADFResult is the outcome of an augmented Dickey-Fuller test.
type ADFResult struct {
	Stat    float64
	PValue  float64
	UsedLag int
	NObs    int
}

// ADF runs the augmented Dickey-Fuller unit-root test. The number of lagged
// differences is chosen by minimum AIC over 0..12*(n/100)^(1/4) on a common
// sample, then the regression is refit on the longest sample for that lag.
// The p-value uses the single-series MacKinnon surface for trend.
func ADF(series []float64, trend Trend) (ADFResult, error) {
	n := len(series)
	nt := trend.terms()

	maxLag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	if limit := n/2 - nt - 1; limit < maxLag {
		maxLag = limit
	}
	if maxLag < 0 {
		return ADFResult{}, ErrTooShort
	}

	diff := make([]float64, n-1)
	for i := range diff {
		diff[i] = series[i+1] - series[i]
	}

	bestLag, bestAIC := -1, math.Inf(1)
	for lag := 0; lag <= maxLag; lag++ {
		x, y := adfDesign(series, diff, maxLag, lag, trend)
		fit, err := fitOLS(x, y)
		if err != nil {
			continue
		}
		if aic := fit.aic(); aic < bestAIC {
			bestAIC, bestLag = aic, lag
		}
	}
	if bestLag < 0 {
		return ADFResult{}, ErrSingular
	}

	x, y := adfDesign(series, diff, bestLag, bestLag, trend)
	fit, err := fitOLS(x, y)
	if err != nil {
		return ADFResult{}, err
	}
	stat := fit.tvalue(nt)
	return ADFResult{
		Stat:    stat,
		PValue:  MacKinnonP(stat, trend, 1),
		UsedLag: bestLag,
		NObs:    fit.nobs,
	}, nil
}

// adfDesign builds the regression of diff[t] on the deterministic terms, the
// lagged level series[t] and lag lagged differences. Rows start at trim so
// that different lag counts can share a sample.
func adfDesign(series, diff []float64, trim, lag int, trend Trend) (*mat.Dense, []float64) {
	nt := trend.terms()
	rows := len(diff) - trim
	cols := nt + 1 + lag

	x := mat.NewDense(rows, cols, nil)
	y := make([]float64, rows)
	for r := 0; r < rows; r++ {
		t := trim + r
		y[r] = diff[t]
		c := 0
		if nt == 1 {
			x.Set(r, c, 1)
			c++
		}
		x.Set(r, c, series[t])
		c++
		for l := 1; l <= lag; l++ {
			x.Set(r, c, diff[t-l])
			c++
		}
	}
	return x, y
}

// StationarityPValue is the ADF p-value (constant, N=1) of a series, or 1.0
// when the test cannot be run.
func StationarityPValue(series []float64) float64 {
	res, err := ADF(series, TrendConstant)
	if err != nil || math.IsNaN(res.PValue) {
		return 1.0
	}
	return res.PValue
}
