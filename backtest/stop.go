package backtest

import (
	"fmt"
	"math"

	"github.com/rustyeddy/statarb/spread"
)

type StopMode string

const (
	// StopAdditive stops out when z moves Distance further from zero than
	// at entry.
	StopAdditive StopMode = "additive"
	// StopMultiplicative stops out when |z| exceeds Factor times the entry
	// z-score.
	StopMultiplicative StopMode = "multiplicative"
)

// StopLoss is the adverse-move exit rule.
type StopLoss struct {
	Mode     StopMode `json:"mode" yaml:"mode" validate:"oneof=additive multiplicative"`
	Distance float64  `json:"distance" yaml:"distance" validate:"gt=0"`
	Factor   float64  `json:"factor" yaml:"factor" validate:"gt=1"`
}

func DefaultStopLoss() StopLoss {
	return StopLoss{Mode: StopAdditive, Distance: 1.5, Factor: 1.75}
}

// Level returns the z-score beyond which a position entered at entryZ is
// stopped out.
func (s StopLoss) Level(side Side, entryZ float64) float64 {
	if s.Mode == StopMultiplicative {
		return entryZ * s.Factor
	}
	if side == Long {
		return entryZ - s.Distance
	}
	return entryZ + s.Distance
}

// Hit reports whether z breaches the stop level.
func (s StopLoss) Hit(side Side, entryZ, z float64) bool {
	level := s.Level(side, entryZ)
	if side == Long {
		return z < level
	}
	return z > level
}

func (s StopLoss) String() string {
	if s.Mode == StopMultiplicative {
		return fmt.Sprintf("entry x %.2f", s.Factor)
	}
	return fmt.Sprintf("entry ± %.2f", s.Distance)
}

// EntryFilter gates entries on the regime of the trailing window of the
// spread. It only ever looks at bars up to and including the entry bar.
type EntryFilter struct {
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	MinHalfLife  float64 `json:"min_half_life" yaml:"min_half_life"`
	MaxHalfLife  float64 `json:"max_half_life" yaml:"max_half_life"`
	MaxHurst     float64 `json:"max_hurst" yaml:"max_hurst"`
	MaxADFPValue float64 `json:"max_adf_pvalue" yaml:"max_adf_pvalue"`
}

func DefaultEntryFilter() EntryFilter {
	return EntryFilter{
		MinHalfLife:  5,
		MaxHalfLife:  30,
		MaxHurst:     0.5,
		MaxADFPValue: 0.05,
	}
}

// Allow evaluates the filter on spread[i-window+1 : i+1]. A disabled filter
// always allows.
func (f EntryFilter) Allow(s []float64, i, window int) bool {
	if !f.Enabled {
		return true
	}
	if i >= len(s) || i+1 < window {
		return false
	}
	trailing := s[i+1-window : i+1]
	for _, v := range trailing {
		if math.IsNaN(v) {
			return false
		}
	}

	hl, ok := spread.HalfLife(trailing)
	if !ok || hl < f.MinHalfLife || hl > f.MaxHalfLife {
		return false
	}
	if spread.Hurst(trailing) >= f.MaxHurst {
		return false
	}
	return spread.StationarityPValue(trailing) < f.MaxADFPValue
}
