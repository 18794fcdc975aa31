package spread

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// MacKinnon (1994) response-surface coefficients, indexed by N-1 where N is
// the number of series in the cointegrating regression.
type surface struct {
	max, min, star float64
	small          [3]float64
	large          [4]float64
}

var constantSurfaces = []surface{
	{
		max: 2.74, min: -18.83, star: -1.61,
		small: [3]float64{2.1659, 1.4412, 0.038269},
		large: [4]float64{1.7339, 0.93202, -0.12745, -0.010368},
	},
	{
		max: 0.92, min: -18.86, star: -2.62,
		small: [3]float64{2.92, 1.5012, 0.039796},
		large: [4]float64{2.1945, 0.64695, -0.29198, -0.042377},
	},
}

var noConstantSurfaces = []surface{
	{
		max: 1.51, min: -19.04, star: -1.04,
		small: [3]float64{0.6344, 1.2378, 0.032496},
		large: [4]float64{0.4797, 0.93557, -0.06999, 0.033066},
	},
}

var normal = distuv.UnitNormal

// MacKinnonP approximates the p-value of a unit-root t statistic.
// Unsupported (trend, n) combinations return NaN.
func MacKinnonP(tstat float64, trend Trend, n int) float64 {
	table := constantSurfaces
	if trend == TrendNone {
		table = noConstantSurfaces
	}
	if n < 1 || n > len(table) || math.IsNaN(tstat) {
		return math.NaN()
	}
	s := table[n-1]

	switch {
	case tstat > s.max:
		return 1.0
	case tstat < s.min:
		return 0.0
	}

	var z float64
	if tstat <= s.star {
		z = s.small[0] + s.small[1]*tstat + s.small[2]*tstat*tstat
	} else {
		z = s.large[0] + s.large[1]*tstat + s.large[2]*tstat*tstat + s.large[3]*tstat*tstat*tstat
	}
	return normal.CDF(z)
}
