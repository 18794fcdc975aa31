package screener

import (
	"fmt"
	"math"
)

// Gate holds the quality thresholds a candidate must meet.
type Gate struct {
	MaxCointPValue   float64 `json:"max_coint_pvalue" yaml:"max_coint_pvalue"`
	MaxADFPValue     float64 `json:"max_adf_pvalue" yaml:"max_adf_pvalue"`
	MinHalfLife      float64 `json:"min_half_life" yaml:"min_half_life"`
	MaxHalfLife      float64 `json:"max_half_life" yaml:"max_half_life"`
	MaxHurst         float64 `json:"max_hurst" yaml:"max_hurst"`
	MinZeroCrossings int     `json:"min_zero_crossings" yaml:"min_zero_crossings"`
	MinReversionRate float64 `json:"min_reversion_rate" yaml:"min_reversion_rate"`
	MaxAbsZScore     float64 `json:"max_abs_zscore" yaml:"max_abs_zscore"`
}

func DefaultGate() Gate {
	return Gate{
		MaxCointPValue:   0.01,
		MaxADFPValue:     0.05,
		MinHalfLife:      10,
		MaxHalfLife:      30,
		MaxHurst:         0.5,
		MinZeroCrossings: 15,
		MinReversionRate: 75,
		MaxAbsZScore:     3.5,
	}
}

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reason returns the first violation, or "" when allowed.
func (d Decision) Reason() Violation {
	if len(d.Violations) == 0 {
		return Violation{}
	}
	return d.Violations[0]
}

// check is one named gate predicate. It returns "" when the candidate
// passes, otherwise a human-readable reason.
type check struct {
	code string
	eval func(g Gate, c *Candidate) string
}

const (
	CheckCointPValue    = "COINT_PVALUE"
	CheckSpreadADF      = "SPREAD_NOT_STATIONARY"
	CheckHalfLife       = "HALF_LIFE"
	CheckHurst          = "HURST_TOO_HIGH"
	CheckZeroCrossings  = "TOO_FEW_CROSSINGS"
	CheckReversionRate  = "REVERSION_RATE"
	CheckCurrentZScore  = "ZSCORE_EXTREME"
	CheckOverlap        = "INSUFFICIENT_OVERLAP"
	CheckNotCointegrate = "NOT_COINTEGRATED"
	CheckError          = "ERROR"
)

// checks run in order; evaluation stops at the first failure.
var checks = []check{
	{CheckCointPValue, func(g Gate, c *Candidate) string {
		if c.CointPValue > g.MaxCointPValue {
			return fmt.Sprintf("coint p-value %.4f > %.4f", c.CointPValue, g.MaxCointPValue)
		}
		return ""
	}},
	{CheckSpreadADF, func(g Gate, c *Candidate) string {
		if c.SpreadADFPValue > g.MaxADFPValue {
			return fmt.Sprintf("spread ADF p-value %.4f > %.4f", c.SpreadADFPValue, g.MaxADFPValue)
		}
		return ""
	}},
	{CheckHalfLife, func(g Gate, c *Candidate) string {
		hl := c.Stats.HalfLife
		if hl == nil {
			return "no mean reversion detected"
		}
		if *hl < g.MinHalfLife || *hl > g.MaxHalfLife {
			return fmt.Sprintf("half-life %.1f outside [%.0f, %.0f]", *hl, g.MinHalfLife, g.MaxHalfLife)
		}
		return ""
	}},
	{CheckHurst, func(g Gate, c *Candidate) string {
		if !(c.Stats.Hurst < g.MaxHurst) {
			return fmt.Sprintf("hurst %.3f >= %.2f", c.Stats.Hurst, g.MaxHurst)
		}
		return ""
	}},
	{CheckZeroCrossings, func(g Gate, c *Candidate) string {
		if c.Stats.ZeroCrossings < g.MinZeroCrossings {
			return fmt.Sprintf("%d zero crossings < %d", c.Stats.ZeroCrossings, g.MinZeroCrossings)
		}
		return ""
	}},
	{CheckReversionRate, func(g Gate, c *Candidate) string {
		rr := c.Stats.ReversionRate
		if rr != nil && *rr < g.MinReversionRate {
			return fmt.Sprintf("reversion rate %.1f%% < %.0f%%", *rr, g.MinReversionRate)
		}
		return ""
	}},
	{CheckCurrentZScore, func(g Gate, c *Candidate) string {
		z := c.Stats.CurrentZScore
		if math.IsNaN(z) || math.Abs(z) > g.MaxAbsZScore {
			return fmt.Sprintf("current z-score %.2f beyond ±%.1f", z, g.MaxAbsZScore)
		}
		return ""
	}},
}

// Evaluate runs the quality checks in order and stops at the first failure.
func (g Gate) Evaluate(c *Candidate) Decision {
	d := Decision{Allowed: true}
	for _, ch := range checks {
		if msg := ch.eval(g, c); msg != "" {
			d.add(ch.code, msg)
			return d
		}
	}
	return d
}
