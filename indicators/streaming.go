package indicators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	_ ValueF64 = (*SimpleMA)(nil)
	_ ValueF64 = (*ZScore)(nil)
)

// SimpleMA is a streaming Simple Moving Average indicator.
type SimpleMA struct {
	period int
	values []float64
}

// NewMA creates a new Simple Moving Average indicator with the given period.
func NewMA(period int) *SimpleMA {
	return &SimpleMA{
		period: period,
		values: make([]float64, 0, period),
	}
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("MA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int {
	return m.period
}

func (m *SimpleMA) Reset() {
	m.values = m.values[:0]
}

func (m *SimpleMA) Update(v float64) {
	m.values = append(m.values, v)
	// Keep only the last 'period' values
	if len(m.values) > m.period {
		m.values = m.values[1:]
	}
}

func (m *SimpleMA) Ready() bool {
	return m.period > 0 && len(m.values) >= m.period
}

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return math.NaN()
	}
	return stat.Mean(m.values, nil)
}

// ZScore is a streaming trailing z-score: the distance of the latest value
// from the window mean, in window sample standard deviations.
type ZScore struct {
	ma   *SimpleMA
	last float64
}

// NewZScore creates a z-score indicator over the given window.
func NewZScore(window int) *ZScore {
	return &ZScore{ma: NewMA(window)}
}

func (z *ZScore) Name() string {
	return fmt.Sprintf("ZScore(%d)", z.ma.period)
}

func (z *ZScore) Warmup() int {
	return z.ma.period
}

func (z *ZScore) Reset() {
	z.ma.Reset()
	z.last = 0
}

func (z *ZScore) Update(v float64) {
	z.ma.Update(v)
	z.last = v
}

// Ready needs a full window of at least two values; a sample std of one value is undefined.
func (z *ZScore) Ready() bool {
	return z.ma.period > 1 && z.ma.Ready()
}

// Mean returns the window mean, NaN before warmup.
func (z *ZScore) Mean() float64 {
	if !z.Ready() {
		return math.NaN()
	}
	return z.ma.Value()
}

// Std returns the window sample standard deviation, NaN before warmup.
func (z *ZScore) Std() float64 {
	if !z.Ready() {
		return math.NaN()
	}
	return stat.StdDev(z.ma.values, nil)
}

// Value is NaN before warmup and when the window has no variation.
func (z *ZScore) Value() float64 {
	if !z.Ready() {
		return math.NaN()
	}
	mean, std := stat.MeanStdDev(z.ma.values, nil)
	if IsZeroStd(std, mean) {
		return math.NaN()
	}
	return (z.last - mean) / std
}
