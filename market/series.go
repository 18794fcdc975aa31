// Package market holds daily close-price data: single-instrument series,
// aligned multi-instrument tables and the providers that load them.
package market

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrInsufficientData is returned when a price table does not have enough
// instruments or aligned rows to be analysed.
var ErrInsufficientData = errors.New("market: insufficient data")

// Series is a date-indexed sequence of daily closes for one instrument.
// A NaN value marks a missing observation.
type Series struct {
	Symbol string
	Dates  []time.Time
	Values []float64
}

func (s Series) Len() int { return len(s.Values) }

// Last returns the most recent value, or NaN for an empty series.
func (s Series) Last() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return s.Values[len(s.Values)-1]
}

// Valid returns the number of non-missing observations.
func (s Series) Valid() int {
	n := 0
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// present returns s without its missing observations.
func (s Series) present() Series {
	out := Series{Symbol: s.Symbol}
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		out.Dates = append(out.Dates, s.Dates[i])
		out.Values = append(out.Values, v)
	}
	return out
}

// Align inner-joins two series on date and drops any date where either side
// is missing. The returned series share the same Dates slice contents.
func Align(a, b Series) (Series, Series) {
	idx := make(map[int64]int, len(b.Dates))
	for i, d := range b.Dates {
		idx[dayKey(d)] = i
	}

	outA := Series{Symbol: a.Symbol}
	outB := Series{Symbol: b.Symbol}
	for i, d := range a.Dates {
		j, ok := idx[dayKey(d)]
		if !ok {
			continue
		}
		va, vb := a.Values[i], b.Values[j]
		if math.IsNaN(va) || math.IsNaN(vb) {
			continue
		}
		outA.Dates = append(outA.Dates, d)
		outA.Values = append(outA.Values, va)
		outB.Dates = append(outB.Dates, d)
		outB.Values = append(outB.Values, vb)
	}
	return outA, outB
}

// sortSeries orders observations by date, oldest first.
func sortSeries(s *Series) {
	sort.Sort(byDate{s})
}

type byDate struct{ s *Series }

func (b byDate) Len() int           { return len(b.s.Dates) }
func (b byDate) Less(i, j int) bool { return b.s.Dates[i].Before(b.s.Dates[j]) }
func (b byDate) Swap(i, j int) {
	b.s.Dates[i], b.s.Dates[j] = b.s.Dates[j], b.s.Dates[i]
	b.s.Values[i], b.s.Values[j] = b.s.Values[j], b.s.Values[i]
}

func dayKey(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Unix(dayKey(t), 0).UTC()
}
