package market

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Table is a date-indexed price table with one column per instrument.
// Columns keep insertion order; NaN marks a missing observation.
type Table struct {
	Dates   []time.Time
	Symbols []string
	cols    map[string][]float64
}

// NewTable outer-joins the given series on date. Dates absent from a series
// become NaN in its column.
func NewTable(series ...Series) *Table {
	seen := make(map[int64]time.Time)
	for _, s := range series {
		for _, d := range s.Dates {
			seen[dayKey(d)] = Day(d)
		}
	}
	keys := make([]int64, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	t := &Table{
		Dates: make([]time.Time, len(keys)),
		cols:  make(map[string][]float64, len(series)),
	}
	pos := make(map[int64]int, len(keys))
	for i, k := range keys {
		t.Dates[i] = seen[k]
		pos[k] = i
	}

	for _, s := range series {
		col, ok := t.cols[s.Symbol]
		if !ok {
			col = make([]float64, len(keys))
			for i := range col {
				col[i] = math.NaN()
			}
			t.Symbols = append(t.Symbols, s.Symbol)
			t.cols[s.Symbol] = col
		}
		for i, d := range s.Dates {
			col[pos[dayKey(d)]] = s.Values[i]
		}
	}
	return t
}

func (t *Table) Rows() int { return len(t.Dates) }

func (t *Table) Cols() int { return len(t.Symbols) }

// Has reports whether the table carries a column for symbol.
func (t *Table) Has(symbol string) bool {
	_, ok := t.cols[symbol]
	return ok
}

// Column returns the full column for symbol, including missing values.
func (t *Table) Column(symbol string) (Series, bool) {
	col, ok := t.cols[symbol]
	if !ok {
		return Series{}, false
	}
	return Series{Symbol: symbol, Dates: t.Dates, Values: col}, true
}

// Pair returns the two columns inner-joined with missing rows dropped.
func (t *Table) Pair(a, b string) (Series, Series, error) {
	sa, ok := t.Column(a)
	if !ok {
		return Series{}, Series{}, fmt.Errorf("market: unknown symbol %q", a)
	}
	sb, ok := t.Column(b)
	if !ok {
		return Series{}, Series{}, fmt.Errorf("market: unknown symbol %q", b)
	}
	x, y := Align(sa, sb)
	return x, y, nil
}

// Select returns a table holding only the named columns, re-indexed on the
// dates where at least one of them has an observation.
func (t *Table) Select(symbols ...string) (*Table, error) {
	series := make([]Series, 0, len(symbols))
	for _, s := range symbols {
		col, ok := t.Column(s)
		if !ok {
			return nil, fmt.Errorf("market: unknown symbol %q", s)
		}
		series = append(series, col.present())
	}
	return NewTable(series...), nil
}

// Clean prepares a raw table for analysis. Columns with fewer than
// minHistory observations are dropped, remaining gaps are forward-filled and
// rows still holding a gap are removed. It fails with ErrInsufficientData
// when fewer than two columns or minRows rows survive.
func Clean(t *Table, minHistory, minRows int) (*Table, error) {
	out := &Table{cols: make(map[string][]float64)}
	for _, s := range t.Symbols {
		col := t.cols[s]
		if validCount(col) < minHistory {
			continue
		}
		out.Symbols = append(out.Symbols, s)
		out.cols[s] = forwardFill(col)
	}
	if len(out.Symbols) < 2 {
		return nil, fmt.Errorf("%w: %d instruments with at least %d observations",
			ErrInsufficientData, len(out.Symbols), minHistory)
	}

	keep := make([]int, 0, len(t.Dates))
	for i := range t.Dates {
		complete := true
		for _, s := range out.Symbols {
			if math.IsNaN(out.cols[s][i]) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	if len(keep) < minRows {
		return nil, fmt.Errorf("%w: %d aligned rows, need %d",
			ErrInsufficientData, len(keep), minRows)
	}

	out.Dates = make([]time.Time, len(keep))
	for i, k := range keep {
		out.Dates[i] = t.Dates[k]
	}
	for _, s := range out.Symbols {
		col := out.cols[s]
		trimmed := make([]float64, len(keep))
		for i, k := range keep {
			trimmed[i] = col[k]
		}
		out.cols[s] = trimmed
	}
	return out, nil
}

func validCount(col []float64) int {
	n := 0
	for _, v := range col {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

func forwardFill(col []float64) []float64 {
	out := make([]float64, len(col))
	last := math.NaN()
	for i, v := range col {
		if !math.IsNaN(v) {
			last = v
		}
		out[i] = last
	}
	return out
}
