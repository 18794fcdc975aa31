package spread

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CointResult is the outcome of an Engle-Granger cointegration test.
type CointResult struct {
	Stat   float64
	PValue float64
	Beta   float64
}

// Coint runs the two-step Engle-Granger test of y against x: regress y on
// [1, x], then test the residuals for a unit root. The test is directional;
// Coint(y, x) and Coint(x, y) generally differ.
func Coint(y, x []float64) (CointResult, error) {
	n := len(y)
	if n != len(x) || n < 4 {
		return CointResult{}, ErrTooShort
	}

	design := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		design.Set(i, 1, x[i])
	}
	fit, err := fitOLS(design, y)
	if errors.Is(err, ErrSingular) {
		// A residual sum of squares of exactly zero also lands here.
		if beta, ok := exactFit(y, x); ok {
			return CointResult{Stat: math.Inf(-1), PValue: 0, Beta: beta}, nil
		}
	}
	if err != nil {
		return CointResult{}, err
	}
	if rsquared(fit.ssr, y) >= perfectR2 {
		return CointResult{Stat: math.Inf(-1), PValue: 0, Beta: fit.coef[1]}, nil
	}

	resid := make([]float64, n)
	for i := range resid {
		resid[i] = y[i] - fit.coef[0] - fit.coef[1]*x[i]
	}

	res, err := ADF(resid, TrendNone)
	if err != nil {
		return CointResult{}, err
	}
	return CointResult{
		Stat:   res.Stat,
		PValue: MacKinnonP(res.Stat, TrendConstant, 2),
		Beta:   fit.coef[1],
	}, nil
}

// perfectR2 is the R² above which y is treated as an exact affine function
// of x. Roundoff keeps the residual sum of squares just above zero, so an
// exact fit has to be caught here rather than by a singular design.
const perfectR2 = 1 - 100*1.4901161193847656e-08 // 1 - 100*sqrt(eps)

// exactFit reports whether y is an affine function of a non-constant x.
func exactFit(y, x []float64) (float64, bool) {
	beta, alpha, err := HedgeRatio(x, y)
	if err != nil {
		return 0, false
	}
	ssr := 0.0
	for i := range y {
		r := y[i] - beta*x[i] - alpha
		ssr += r * r
	}
	return beta, rsquared(ssr, y) >= perfectR2
}

// rsquared returns 1 - ssr/tss with tss centred on the mean of y. A constant
// y has no explained variance and yields 0.
func rsquared(ssr float64, y []float64) float64 {
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	tss := 0.0
	for _, v := range y {
		d := v - mean
		tss += d * d
	}
	if tss == 0 {
		return 0
	}
	return 1 - ssr/tss
}

// CointPValue returns the p-value of Coint(y, x), or 1.0 when the test
// cannot be run.
func CointPValue(y, x []float64) float64 {
	res, err := Coint(y, x)
	if err != nil || math.IsNaN(res.PValue) {
		return 1.0
	}
	return res.PValue
}
