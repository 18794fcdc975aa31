package spread

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrSingular is returned when a regression design matrix is (nearly)
	// singular.
	ErrSingular = errors.New("spread: singular design matrix")
	// ErrTooShort is returned when a series is too short for the requested
	// computation.
	ErrTooShort = errors.New("spread: series too short")
)

// HedgeRatio fits y ≈ beta*x + alpha by ordinary least squares over the full
// history. When x has no variation the fit is undefined and the fallback
// beta=1, alpha=0 is returned together with ErrSingular.
func HedgeRatio(x, y []float64) (beta, alpha float64, err error) {
	if len(x) != len(y) || len(x) < 2 {
		return 1, 0, ErrTooShort
	}
	mx, vx := stat.MeanVariance(x, nil)
	if !(vx > 1e-12*math.Max(1, mx*mx)) {
		return 1, 0, ErrSingular
	}
	alpha, beta = stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) || math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return 1, 0, ErrSingular
	}
	return beta, alpha, nil
}

// olsFit is the subset of an OLS fit needed by the unit-root tests.
type olsFit struct {
	coef   []float64
	stderr []float64
	ssr    float64
	nobs   int
}

// tvalue returns the t statistic of coefficient i.
func (f olsFit) tvalue(i int) float64 {
	return f.coef[i] / f.stderr[i]
}

// aic is -2*llf + 2*k with the Gaussian log-likelihood.
func (f olsFit) aic() float64 {
	n := float64(f.nobs)
	llf := -n / 2 * (math.Log(2*math.Pi) + math.Log(f.ssr/n) + 1)
	return -2*llf + 2*float64(len(f.coef))
}

// fitOLS regresses y on the columns of x (n rows, k columns) via the normal
// equations.
func fitOLS(x *mat.Dense, y []float64) (olsFit, error) {
	n, k := x.Dims()
	if n != len(y) || n <= k {
		return olsFit{}, ErrTooShort
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return olsFit{}, ErrSingular
	}

	yv := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)
	var b mat.VecDense
	b.MulVec(&inv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(x, &b)
	ssr := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		ssr += r * r
	}

	sigma2 := ssr / float64(n-k)
	fit := olsFit{
		coef:   make([]float64, k),
		stderr: make([]float64, k),
		ssr:    ssr,
		nobs:   n,
	}
	for j := 0; j < k; j++ {
		fit.coef[j] = b.AtVec(j)
		v := sigma2 * inv.At(j, j)
		if !(v > 0) {
			return olsFit{}, ErrSingular
		}
		fit.stderr[j] = math.Sqrt(v)
	}
	if !(ssr > 0) {
		return olsFit{}, ErrSingular
	}
	return fit, nil
}
