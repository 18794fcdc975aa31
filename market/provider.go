package market

import (
	"context"
	"time"
)

// Request describes the history a Provider should load.
type Request struct {
	Symbols []string
	// Period is a lookback such as "2y" or "6mo". Ignored when Start is set.
	Period string
	Start  time.Time
	End    time.Time
}

// Provider loads daily closes for a set of instruments. Instruments that
// cannot be loaded are omitted from the returned table rather than failing
// the whole request.
type Provider interface {
	Fetch(ctx context.Context, req Request) (*Table, error)
}

// Window resolves the request into an explicit [start, end] range relative
// to now.
func (r Request) Window(now time.Time) (time.Time, time.Time) {
	end := r.End
	if end.IsZero() {
		end = now
	}
	if !r.Start.IsZero() {
		return r.Start, end
	}
	return end.Add(-PeriodDuration(r.Period)), end
}

// PeriodDuration parses lookbacks of the form "<n>y", "<n>mo", "<n>d".
// Unknown forms fall back to two years.
func PeriodDuration(p string) time.Duration {
	const day = 24 * time.Hour
	var n int
	var unit string
	for i, c := range p {
		if c < '0' || c > '9' {
			unit = p[i:]
			break
		}
		n = n*10 + int(c-'0')
	}
	if n <= 0 {
		return 730 * day
	}
	switch unit {
	case "y":
		return time.Duration(n) * 365 * day
	case "mo":
		return time.Duration(n) * 30 * day
	case "d":
		return time.Duration(n) * day
	}
	return 730 * day
}
