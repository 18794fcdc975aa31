package indicators

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// zeroStd is the relative tolerance below which a window is treated as having
// no variation. Summing identical floats does not always reproduce them exactly.
const zeroStd = 1e-12

// IsZeroStd reports whether std is indistinguishable from zero relative to mean.
func IsZeroStd(std, mean float64) bool {
	return std <= zeroStd*math.Max(1, math.Abs(mean))
}

// Rolling holds trailing-window statistics aligned to the input series.
// The first window-1 entries of every slice are NaN.
type Rolling struct {
	Mean   []float64
	Std    []float64
	ZScore []float64
}

// RollingStats computes trailing mean, sample standard deviation and z-score
// over exactly window values. Each output at t uses only inputs [t-window+1, t].
// The z-score is NaN until the window is full and wherever the std is zero.
func RollingStats(values []float64, window int) Rolling {
	n := len(values)
	r := Rolling{
		Mean:   make([]float64, n),
		Std:    make([]float64, n),
		ZScore: make([]float64, n),
	}

	z := NewZScore(window)
	for i, v := range values {
		z.Update(v)
		if !z.Ready() {
			r.Mean[i], r.Std[i], r.ZScore[i] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		r.Mean[i] = z.Mean()
		r.Std[i] = z.Std()
		r.ZScore[i] = z.Value()
	}
	return r
}

// Correlation returns the Pearson correlation of x and y, or 0 when either
// series has no variation or fewer than 3 points.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 3 {
		return 0
	}
	_, sx := stat.MeanStdDev(x, nil)
	_, sy := stat.MeanStdDev(y, nil)
	if sx == 0 || sy == 0 || math.IsNaN(sx) || math.IsNaN(sy) {
		return 0
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) {
		return 0
	}
	return c
}

// Summary is the mean/std/min/max of the finite values of a series.
type Summary struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
}

// Summarize ignores NaN and infinite values. An empty input yields a zero Summary.
func Summarize(values []float64) Summary {
	finite := Finite(values)
	if len(finite) == 0 {
		return Summary{}
	}

	s := Summary{Count: len(finite), Min: finite[0], Max: finite[0]}
	s.Mean = stat.Mean(finite, nil)
	if len(finite) > 1 {
		s.Std = stat.StdDev(finite, nil)
	}
	for _, v := range finite[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	return s
}

// Finite returns the values that are neither NaN nor infinite.
func Finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}
