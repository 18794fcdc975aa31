// Package synth generates deterministic synthetic price data for tests and
// demos. The generator is a fixed 64-bit LCG so fixtures are reproducible
// across Go releases.
package synth

import (
	"time"

	"github.com/rustyeddy/statarb/market"
)

// Rand is a 64-bit linear congruential generator.
type Rand struct{ state uint64 }

func New(seed uint64) *Rand { return &Rand{state: seed} }

// Uniform returns a value in [-0.5, 0.5).
func (r *Rand) Uniform() float64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return float64(r.state>>11)/float64(uint64(1)<<53) - 0.5
}

// Norm approximates a standard normal draw as the sum of 12 uniforms.
func (r *Rand) Norm() float64 {
	s := 0.0
	for i := 0; i < 12; i++ {
		s += r.Uniform()
	}
	return s
}

func WhiteNoise(seed uint64, n int) []float64 {
	r := New(seed)
	out := make([]float64, n)
	for i := range out {
		out[i] = r.Norm()
	}
	return out
}

func RandomWalk(seed uint64, n int, start float64) []float64 {
	r := New(seed)
	out := make([]float64, n)
	v := start
	for i := range out {
		v += r.Norm()
		out[i] = v
	}
	return out
}

// AR1 returns v_t = phi*v_{t-1} + scale*e_t starting from zero.
func AR1(seed uint64, n int, phi, scale float64) []float64 {
	r := New(seed)
	out := make([]float64, n)
	v := 0.0
	for i := range out {
		v = phi*v + scale*r.Norm()
		out[i] = v
	}
	return out
}

// Scale multiplies every value by k.
func Scale(v []float64, k float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = k * v[i]
	}
	return out
}

// Constant returns n copies of v.
func Constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Start is the first date of generated series.
var Start = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

// Dates returns n consecutive calendar days from Start plus offset days.
func Dates(n, offset int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = Start.AddDate(0, 0, offset+i)
	}
	return out
}

// Series wraps values in a market.Series dated from Start plus offset days.
func Series(symbol string, offset int, values []float64) market.Series {
	return market.Series{Symbol: symbol, Dates: Dates(len(values), offset), Values: values}
}

// CointegratedPair builds x as a scaled random walk and
// y = beta*x + alpha + AR(1) noise, a pair whose spread mean-reverts.
func CointegratedPair(n int, xSeed, noiseSeed uint64, beta, alpha, phi float64) (x, y []float64) {
	x = Scale(RandomWalk(xSeed, n, 50), 2)
	noise := AR1(noiseSeed, n, phi, 1)
	y = make([]float64, n)
	for i := range x {
		y[i] = beta*x[i] + alpha + noise[i]
	}
	return x, y
}
