package screener

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/statarb/spread"
)

func ptr(v float64) *float64 { return &v }

func passing() *Candidate {
	return &Candidate{
		CointPValue:     0.001,
		SpreadADFPValue: 0.01,
		Stats: &spread.Stats{
			HalfLife:      ptr(15),
			Hurst:         0.3,
			ZeroCrossings: 40,
			ReversionRate: ptr(90),
			CurrentZScore: 1.2,
		},
	}
}

func TestGateEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Candidate)
		want   string
	}{
		{"passes", func(c *Candidate) {}, ""},
		{"coint p-value", func(c *Candidate) { c.CointPValue = 0.02 }, CheckCointPValue},
		{"spread adf", func(c *Candidate) { c.SpreadADFPValue = 0.2 }, CheckSpreadADF},
		{"half-life absent", func(c *Candidate) { c.Stats.HalfLife = nil }, CheckHalfLife},
		{"half-life short", func(c *Candidate) { c.Stats.HalfLife = ptr(5) }, CheckHalfLife},
		{"half-life long", func(c *Candidate) { c.Stats.HalfLife = ptr(31) }, CheckHalfLife},
		{"hurst", func(c *Candidate) { c.Stats.Hurst = 0.5 }, CheckHurst},
		{"zero crossings", func(c *Candidate) { c.Stats.ZeroCrossings = 14 }, CheckZeroCrossings},
		{"reversion rate", func(c *Candidate) { c.Stats.ReversionRate = ptr(74.9) }, CheckReversionRate},
		{"reversion rate absent passes", func(c *Candidate) { c.Stats.ReversionRate = nil }, ""},
		{"extreme z", func(c *Candidate) { c.Stats.CurrentZScore = -3.6 }, CheckCurrentZScore},
		{"undefined z", func(c *Candidate) { c.Stats.CurrentZScore = math.NaN() }, CheckCurrentZScore},
		{"boundaries pass", func(c *Candidate) {
			c.CointPValue = 0.01
			c.SpreadADFPValue = 0.05
			c.Stats.HalfLife = ptr(30)
			c.Stats.ZeroCrossings = 15
			c.Stats.ReversionRate = ptr(75)
			c.Stats.CurrentZScore = 3.5
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := passing()
			tt.mutate(c)
			d := DefaultGate().Evaluate(c)
			if tt.want == "" {
				assert.True(t, d.Allowed, "%+v", d.Violations)
				assert.Empty(t, d.Violations)
				return
			}
			assert.False(t, d.Allowed)
			assert.Len(t, d.Violations, 1)
			assert.Equal(t, tt.want, d.Reason().Code)
			assert.NotEmpty(t, d.Reason().Msg)
		})
	}
}

func TestGateShortCircuitsInOrder(t *testing.T) {
	t.Parallel()

	c := passing()
	c.Stats.Hurst = 0.9
	c.Stats.ZeroCrossings = 0
	c.Stats.CurrentZScore = 10
	d := DefaultGate().Evaluate(c)
	assert.Equal(t, CheckHurst, d.Reason().Code)

	c.CointPValue = 0.5
	d = DefaultGate().Evaluate(c)
	assert.Equal(t, CheckCointPValue, d.Reason().Code)
	assert.Len(t, d.Violations, 1)
}
