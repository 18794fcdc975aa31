package spread

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/statarb/internal/synth"
)

func squareWave(n, half int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if (i/half)%2 == 0 {
			out[i] = amp
		} else {
			out[i] = -amp
		}
	}
	return out
}

func TestHedgeRatioNoiseless(t *testing.T) {
	t.Parallel()

	x := synth.RandomWalk(3, 300, 50)
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 2*x[i] + 5
	}

	beta, alpha, err := HedgeRatio(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, beta, 1e-9)
	assert.InDelta(t, 5.0, alpha, 1e-7)

	rbeta, _, err := HedgeRatio(y, x)
	require.NoError(t, err)
	assert.InDelta(t, 1/beta, rbeta, 1e-9)
}

func TestHedgeRatioNegationSymmetry(t *testing.T) {
	t.Parallel()

	x := synth.RandomWalk(3, 300, 50)
	e := synth.WhiteNoise(5, 300)
	y := make([]float64, len(x))
	nx := make([]float64, len(x))
	ny := make([]float64, len(x))
	for i := range x {
		y[i] = 2*x[i] + 5 + 0.5*e[i]
		nx[i], ny[i] = -x[i], -y[i]
	}

	beta, alpha, err := HedgeRatio(x, y)
	require.NoError(t, err)
	nbeta, nalpha, err := HedgeRatio(nx, ny)
	require.NoError(t, err)
	assert.InDelta(t, beta, nbeta, 1e-9)
	assert.InDelta(t, -alpha, nalpha, 1e-7)

	rbeta, _, err := HedgeRatio(y, x)
	require.NoError(t, err)
	assert.InDelta(t, 1/beta, rbeta, 0.01)
}

func TestHedgeRatioFallback(t *testing.T) {
	t.Parallel()

	beta, alpha, err := HedgeRatio(synth.Constant(50, 10), synth.RandomWalk(1, 50, 10))
	assert.True(t, errors.Is(err, ErrSingular))
	assert.Equal(t, 1.0, beta)
	assert.Equal(t, 0.0, alpha)
}

func TestMacKinnonP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		tstat float64
		trend Trend
		n     int
		want  float64
		delta float64
	}{
		{"5pct one series", -2.86, TrendConstant, 1, 0.05, 0.002},
		{"5pct two series", -3.34, TrendConstant, 2, 0.05, 0.002},
		{"above max", 3.0, TrendConstant, 1, 1.0, 0},
		{"below min", -20, TrendConstant, 2, 0.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MacKinnonP(tt.tstat, tt.trend, tt.n), tt.delta)
		})
	}
	assert.True(t, math.IsNaN(MacKinnonP(-3, TrendConstant, 7)))
}

func TestADF(t *testing.T) {
	t.Parallel()

	res, err := ADF(synth.WhiteNoise(7, 300), TrendConstant)
	require.NoError(t, err)
	assert.Less(t, res.PValue, 0.01)
	assert.Less(t, res.Stat, -10.0)

	res, err = ADF(synth.RandomWalk(12, 300, 100), TrendConstant)
	require.NoError(t, err)
	assert.Greater(t, res.PValue, 0.5)
}

func TestStationarityPValueFailsSafe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, StationarityPValue(synth.Constant(100, 3)))
	assert.Equal(t, 1.0, StationarityPValue([]float64{1}))
}

func TestCoint(t *testing.T) {
	t.Parallel()

	x := synth.RandomWalk(3, 300, 50)
	e := synth.WhiteNoise(5, 300)
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 2*x[i] + 5 + 0.5*e[i]
	}

	res, err := Coint(y, x)
	require.NoError(t, err)
	assert.Less(t, res.PValue, 0.01)
	assert.InDelta(t, 2.0, res.Beta, 0.01)

	a := synth.RandomWalk(21, 300, 100)
	b := synth.RandomWalk(22, 300, 100)
	assert.Greater(t, CointPValue(a, b), 0.1)
	assert.Greater(t, CointPValue(b, a), 0.1)

	assert.Equal(t, 1.0, CointPValue(synth.Constant(300, 1), synth.Constant(300, 2)))
}

func TestCointExactlyAffineLegs(t *testing.T) {
	t.Parallel()

	x := synth.RandomWalk(3, 300, 50)
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 2*x[i] + 3
	}

	res, err := Coint(y, x)
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.Stat, -1))
	assert.Zero(t, res.PValue)
	assert.InDelta(t, 2.0, res.Beta, 1e-9)
	assert.Zero(t, CointPValue(x, y))
}

func TestHalfLife(t *testing.T) {
	t.Parallel()

	hl, ok := HalfLife(squareWave(200, 10, 3))
	require.True(t, ok)
	assert.Greater(t, hl, 0.0)
	assert.Less(t, hl, 20.0)

	_, ok = HalfLife(synth.Constant(100, 1))
	assert.False(t, ok)

	trending := make([]float64, 100)
	for i := range trending {
		trending[i] = math.Exp(0.05 * float64(i))
	}
	_, ok = HalfLife(trending)
	assert.False(t, ok)
}

func TestHurst(t *testing.T) {
	t.Parallel()

	assert.Less(t, Hurst(squareWave(200, 10, 3)), 0.5)
	assert.Equal(t, 0.5, Hurst(synth.RandomWalk(1, 10, 0)))
	assert.Equal(t, 0.5, Hurst(synth.Constant(200, 4)))

	h := Hurst(synth.RandomWalk(12, 400, 100))
	assert.GreaterOrEqual(t, h, 0.0)
	assert.LessOrEqual(t, h, 1.0)
}

func TestReversionRate(t *testing.T) {
	t.Parallel()

	z := make([]float64, 60)
	for i := range z {
		z[i] = math.NaN()
	}
	_, ok := ReversionRate(z, 2)
	assert.False(t, ok)

	// breach at 5 reverts at 8, breach at 30 never reverts within 20 bars
	for i := range z {
		z[i] = 1.0
	}
	z[5] = 2.5
	z[8] = 0.2
	z[30] = 2.1
	z[55] = -2.2 // no full window ahead
	rate, ok := ReversionRate(z, 2)
	require.True(t, ok)
	assert.InDelta(t, 50.0, rate, 1e-12)

	// a sign change counts as reversion
	z[33] = -1.0
	rate, _ = ReversionRate(z, 2)
	assert.InDelta(t, 100.0, rate, 1e-12)
}

func TestZeroCrossings(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	assert.Equal(t, 0, ZeroCrossings([]float64{nan, nan}))
	assert.Equal(t, 3, ZeroCrossings([]float64{nan, 1, -1, nan, -2, 2, -0.5}))
}

func TestComputeLengthsAndWarmup(t *testing.T) {
	t.Parallel()

	x := synth.RandomWalk(3, 300, 50)
	e := synth.WhiteNoise(5, 300)
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 2*x[i] + 5 + 0.5*e[i]
	}

	const window = 60
	st, err := Compute(x, y, window, 2.0)
	require.NoError(t, err)
	assert.False(t, st.HedgeFallback)
	assert.Len(t, st.Spread, len(x))
	assert.Len(t, st.RollingZScore, len(x))
	assert.Len(t, st.RollingMean, len(x))
	assert.Len(t, st.RollingStd, len(x))
	for i := 0; i < window-1; i++ {
		assert.True(t, math.IsNaN(st.RollingZScore[i]), "index %d", i)
	}
	assert.False(t, math.IsNaN(st.RollingZScore[window-1]))
	assert.Equal(t, st.RollingZScore[len(x)-1], st.CurrentZScore)
	assert.Less(t, st.ADFPValue, 0.01)
	assert.Equal(t, len(x)-window+1, st.ZScoreSummary.Count)
	require.NotNil(t, st.HalfLife)
	assert.Less(t, *st.HalfLife, 5.0)
	assert.Greater(t, st.ZeroCrossings, 15)
}

func TestComputeConstantSeries(t *testing.T) {
	t.Parallel()

	st, err := Compute(synth.Constant(200, 10), synth.Constant(200, 20), 20, 2.0)
	require.NoError(t, err)
	assert.True(t, st.HedgeFallback)
	assert.Equal(t, 1.0, st.HedgeRatio)
	for _, z := range st.RollingZScore {
		assert.True(t, math.IsNaN(z))
	}
	assert.True(t, math.IsNaN(st.CurrentZScore))
	assert.Nil(t, st.HalfLife)
	assert.Nil(t, st.ReversionRate)
	assert.Equal(t, 0.5, st.Hurst)
	assert.Equal(t, 1.0, st.ADFPValue)
	assert.Equal(t, 0, st.ZeroCrossings)
}

func TestComputeSquareWaveSpread(t *testing.T) {
	t.Parallel()

	x := synth.RandomWalk(3, 200, 50)
	wave := squareWave(200, 10, 3)
	y := make([]float64, len(x))
	for i := range x {
		y[i] = x[i] + wave[i]
	}

	st, err := Compute(x, y, 20, 2.0)
	require.NoError(t, err)
	require.NotNil(t, st.HalfLife)
	assert.Less(t, *st.HalfLife, 20.0)
	assert.Less(t, st.Hurst, 0.5)
}

func TestComputeErrors(t *testing.T) {
	t.Parallel()

	_, err := Compute([]float64{1, 2, 3}, []float64{1, 2}, 2, 2)
	assert.Error(t, err)
	_, err = Compute([]float64{1, 2, 3}, []float64{1, 2, 3}, 1, 2)
	assert.Error(t, err)
	_, err = Compute([]float64{1, 2}, []float64{1, 2}, 2, 2)
	assert.True(t, errors.Is(err, ErrTooShort))
}
