// Package report writes uniform result records to date-partitioned
// spreadsheet files and reads them back.
package report

import (
	"math"

	"github.com/shopspring/decimal"
)

// Field is one named cell of a Record. A nil Value is an absent value.
type Field struct {
	Key   string
	Value any
}

// Record is an ordered list of fields. Records written together must share
// the same keys in the same order.
type Record []Field

func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

func (r Record) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Float returns the numeric value of key. Ints are converted; anything else
// reports false.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r.Get(key)
	if !ok {
		return 0, false
	}
	return Numeric(v)
}

func (r Record) String(key string) string {
	v, _ := r.Get(key)
	s, _ := v.(string)
	return s
}

// Numeric converts the numeric cell types to float64.
func Numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	}
	return 0, false
}

// Cents rounds a currency amount to two decimals. Non-finite values pass
// through.
func Cents(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Opt returns the pointed-to value or nil, for optional metrics.
func Opt(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
