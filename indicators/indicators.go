// Package indicators provides rolling-window statistics over price and spread series.
package indicators

// Indicator computes a single streaming value from a sequence of observations.
// It is deterministic and safe to use in screening and backtests alike.
type Indicator interface {
	// Name returns a stable identifier like "MA(60)" or "ZScore(60)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next observation.
	Update(v float64)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool
}

// ValueF64 is an Indicator with a single float output.
type ValueF64 interface {
	Indicator

	// Value returns the current indicator value. If !Ready(), it returns NaN;
	// callers should always check Ready().
	Value() float64
}
