package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/statarb/internal/synth"
)

func days(n int) []time.Time {
	return synth.Dates(n, 0)
}

// scripted returns an input with a hand-written z-score path:
//
//	 0   1    2     3   4    5    6    7     8     9   10
//	NaN NaN -2.5  -1  0.2  2.1  0.5 -0.1  -2.0  -3.6  2.5
//
// which opens long at 2, reverts at 4, opens short at 5, reverts at 7,
// opens long at 8 and is stopped at 9. The short opened at 10 never closes.
func scripted() Input {
	nan := math.NaN()
	return Input{
		X:          "KO",
		Y:          "PEP",
		Dates:      days(11),
		PriceX:     []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 110, 110},
		PriceY:     []float64{50, 50, 50, 52, 55, 55, 53, 50, 50, 50, 50},
		HedgeRatio: 1,
		ZScore:     []float64{nan, nan, -2.5, -1, 0.2, 2.1, 0.5, -0.1, -2.0, -3.6, 2.5},
	}
}

func scriptedConfig() Config {
	cfg := DefaultConfig()
	cfg.Window = 2
	return cfg
}

func TestRunScripted(t *testing.T) {
	t.Parallel()

	in := scripted()
	trades, err := Run(in, scriptedConfig())
	require.NoError(t, err)
	require.Len(t, trades, 3)

	long := trades[0]
	assert.Equal(t, Long, long.Side)
	assert.Equal(t, in.Dates[2], long.EntryDate)
	assert.Equal(t, in.Dates[4], long.ExitDate)
	assert.Equal(t, MeanReversion, long.Reason)
	assert.InDelta(t, 1250, long.AllocX, 1e-9)
	assert.InDelta(t, 1250, long.AllocY, 1e-9)
	assert.InDelta(t, 25, long.SharesY, 1e-9)
	assert.InDelta(t, 125, long.PnL, 1e-9)
	assert.InDelta(t, 5, long.PnLPct, 1e-9)
	assert.Equal(t, 2, long.HoldingDays)
	assert.True(t, long.Win)

	short := trades[1]
	assert.Equal(t, Short, short.Side)
	assert.Equal(t, 2.1, short.EntryZ)
	assert.Equal(t, -0.1, short.ExitZ)
	assert.InDelta(t, 1250.0/55*5, short.PnL, 1e-9)
	assert.Equal(t, MeanReversion, short.Reason)

	stopped := trades[2]
	assert.Equal(t, Long, stopped.Side)
	assert.Equal(t, StopLossHit, stopped.Reason)
	assert.InDelta(t, -125, stopped.PnL, 1e-9)
	assert.False(t, stopped.Win)
	assert.Equal(t, 1, stopped.HoldingDays)
}

func TestRunTradesDoNotOverlap(t *testing.T) {
	t.Parallel()

	trades, err := Run(scripted(), scriptedConfig())
	require.NoError(t, err)
	for i, tr := range trades {
		assert.True(t, tr.ExitDate.After(tr.EntryDate))
		if i > 0 {
			assert.False(t, tr.EntryDate.Before(trades[i-1].ExitDate))
		}
	}
}

func TestRunMultiplicativeStop(t *testing.T) {
	t.Parallel()

	cfg := scriptedConfig()
	cfg.StopLoss = StopLoss{Mode: StopMultiplicative, Distance: 1.5, Factor: 2}
	trades, err := Run(scripted(), cfg)
	require.NoError(t, err)

	// -3.6 is inside -2.0 * 2, so the last long rides on to revert at 10.
	require.Len(t, trades, 3)
	for _, tr := range trades {
		assert.Equal(t, MeanReversion, tr.Reason)
	}
	assert.InDelta(t, 2.5, trades[2].ExitZ, 1e-12)
	assert.InDelta(t, -125, trades[2].PnL, 1e-9)
}

func TestRunStartsAtWindow(t *testing.T) {
	t.Parallel()

	cfg := scriptedConfig()
	cfg.Window = 3
	trades, err := Run(scripted(), cfg)
	require.NoError(t, err)

	// the -2.5 at index 2 is skipped, so the first entry is the short at 5
	require.NotEmpty(t, trades)
	assert.Equal(t, Short, trades[0].Side)
}

func TestRunConstantPricesHasNoTrades(t *testing.T) {
	t.Parallel()

	n := 200
	in, _, err := Prepare("A", "B", days(n), synth.Constant(n, 10), synth.Constant(n, 20), 60, 2)
	require.NoError(t, err)
	trades, err := Run(in, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestRunCointegratedPair(t *testing.T) {
	t.Parallel()

	x, y := synth.CointegratedPair(750, 3, 3, 1.5, 10, 0.95)
	in, st, err := Prepare("KO", "PEP", days(750), x, y, 60, 2)
	require.NoError(t, err)
	assert.Equal(t, st.HedgeRatio, in.HedgeRatio)

	trades, err := Run(in, DefaultConfig())
	require.NoError(t, err)
	require.NotEmpty(t, trades)
	for i, tr := range trades {
		assert.InDelta(t, 2500.0, tr.AllocX+tr.AllocY, 1e-9)
		assert.GreaterOrEqual(t, math.Abs(tr.EntryZ), 2.0)
		if i > 0 {
			assert.False(t, tr.EntryDate.Before(trades[i-1].ExitDate))
		}
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	t.Parallel()

	in := scripted()
	in.PriceX = in.PriceX[:5]
	_, err := Run(in, scriptedConfig())
	assert.Error(t, err)

	cfg := scriptedConfig()
	cfg.Capital = 0
	_, err = Run(scripted(), cfg)
	assert.Error(t, err)

	_, _, err = Prepare("A", "B", days(3), []float64{1, 2}, []float64{1, 2, 3}, 2, 2)
	assert.Error(t, err)
}

func TestStopLossHit(t *testing.T) {
	t.Parallel()

	add := DefaultStopLoss()
	mul := StopLoss{Mode: StopMultiplicative, Factor: 1.75}

	tests := []struct {
		name   string
		stop   StopLoss
		side   Side
		entryZ float64
		z      float64
		want   bool
	}{
		{"additive long inside", add, Long, -2, -3.5, false},
		{"additive long beyond", add, Long, -2, -3.51, true},
		{"additive short inside", add, Short, 2, 3.5, false},
		{"additive short beyond", add, Short, 2, 3.51, true},
		{"multiplicative long inside", mul, Long, -2, -3.5, false},
		{"multiplicative long beyond", mul, Long, -2, -3.6, true},
		{"multiplicative short beyond", mul, Short, 2, 3.6, true},
		{"favourable move", add, Short, 2, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stop.Hit(tt.side, tt.entryZ, tt.z))
		})
	}
}

func TestEntryFilter(t *testing.T) {
	t.Parallel()

	// square wave with period 8 reverts hard and has H = 0
	wave := make([]float64, 120)
	for i := range wave {
		if (i/4)%2 == 0 {
			wave[i] = 1
		} else {
			wave[i] = -1
		}
	}
	trend := make([]float64, 120)
	for i := range trend {
		trend[i] = float64(i)
	}

	f := DefaultEntryFilter()
	assert.True(t, f.Allow(trend, 100, 60), "disabled filter allows everything")

	f.Enabled = true
	assert.False(t, f.Allow(trend, 100, 60))
	assert.False(t, f.Allow(wave, 10, 60), "window not yet full")

	f.MinHalfLife = 0
	f.MaxADFPValue = 1.01
	allowed := f.Allow(wave, 100, 60)
	assert.True(t, allowed)

	// only bars up to i are read
	mutated := append([]float64(nil), wave...)
	for i := 101; i < len(mutated); i++ {
		mutated[i] = float64(i * i)
	}
	assert.Equal(t, allowed, f.Allow(mutated, 100, 60))
}
