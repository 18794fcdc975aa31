package spread

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	maxHalfLife = 365.0

	reversionLookahead = 20
	reversionBand      = 0.5

	hurstMinObs    = 20
	hurstMaxLag    = 100
	hurstMinPoints = 5
)

// HalfLife estimates the mean-reversion half-life of s in bars from the
// regression Δs_t = a + θ·s_{t-1}. It reports false when θ ≥ 0 or the
// estimate falls outside (0, 365].
func HalfLife(s []float64) (float64, bool) {
	if len(s) < 3 {
		return 0, false
	}
	lagged := s[:len(s)-1]
	delta := make([]float64, len(s)-1)
	for i := range delta {
		delta[i] = s[i+1] - s[i]
	}

	_, vx := stat.MeanVariance(lagged, nil)
	if !(vx > 0) {
		return 0, false
	}
	_, theta := stat.LinearRegression(lagged, delta, nil, false)
	if !(theta < 0) {
		return 0, false
	}
	hl := -math.Ln2 / theta
	if !(hl > 0 && hl <= maxHalfLife) {
		return 0, false
	}
	return hl, true
}

// Hurst estimates the Hurst exponent of s from the scaling of lagged
// difference variances: var(s[t+k]-s[t]) ∝ k^(2H). The result is clamped to
// [0, 1]; 0.5 is returned when there is too little data for an estimate.
func Hurst(s []float64) float64 {
	n := len(s)
	if n < hurstMinObs {
		return 0.5
	}
	mean := stat.Mean(s, nil)
	demeaned := make([]float64, n)
	for i, v := range s {
		demeaned[i] = v - mean
	}

	maxLag := n / 4
	if maxLag > hurstMaxLag {
		maxLag = hurstMaxLag
	}

	var logLag, logVar []float64
	diffs := make([]float64, 0, n)
	for lag := 2; lag < maxLag; lag++ {
		diffs = diffs[:0]
		for i := lag; i < n; i++ {
			diffs = append(diffs, demeaned[i]-demeaned[i-lag])
		}
		v := populationVariance(diffs)
		if !(v > 0) {
			continue
		}
		logLag = append(logLag, math.Log(float64(lag)))
		logVar = append(logVar, math.Log(v))
	}
	if len(logLag) < hurstMinPoints {
		return 0.5
	}

	_, slope := stat.LinearRegression(logLag, logVar, nil, false)
	h := slope / 2
	if math.IsNaN(h) {
		return 0.5
	}
	return math.Max(0, math.Min(1, h))
}

func populationVariance(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := stat.Mean(x, nil)
	ss := 0.0
	for _, v := range x {
		ss += (v - m) * (v - m)
	}
	return ss / float64(len(x))
}

// ReversionRate is the percentage of threshold breaches (|z| ≥ entry) that
// were followed, within the next 20 bars, by |z| < 0.5 or a sign change.
// Only breaches with a full 20-bar window ahead are counted. It reports
// false when there were none.
func ReversionRate(z []float64, entry float64) (float64, bool) {
	occurrences, reverted := 0, 0
	for i := 0; i+reversionLookahead < len(z); i++ {
		zi := z[i]
		if math.IsNaN(zi) || math.Abs(zi) < entry {
			continue
		}
		occurrences++
		for j := i + 1; j <= i+reversionLookahead; j++ {
			zj := z[j]
			if math.IsNaN(zj) {
				continue
			}
			if math.Abs(zj) < reversionBand || zj*zi <= 0 {
				reverted++
				break
			}
		}
	}
	if occurrences == 0 {
		return 0, false
	}
	return 100 * float64(reverted) / float64(occurrences), true
}

// ZeroCrossings counts sign changes between consecutive valid z-scores.
func ZeroCrossings(z []float64) int {
	count := 0
	prev := math.NaN()
	for _, v := range z {
		if math.IsNaN(v) {
			continue
		}
		if !math.IsNaN(prev) && sign(prev) != sign(v) {
			count++
		}
		prev = v
	}
	return count
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
