package screener

import (
	"context"
	"errors"

	"github.com/rustyeddy/statarb/market"
	"github.com/rustyeddy/statarb/universe"
)

// DataOptions describes how each sector's prices are loaded and cleaned.
type DataOptions struct {
	Request    market.Request
	MinHistory int
	MinRows    int
}

// UniverseResult gathers the per-sector results of a multi-sector scan.
type UniverseResult struct {
	Sectors    []SectorResult
	Candidates []Candidate
	// Skipped lists sectors whose price data was insufficient.
	Skipped []string
}

// ScreenUniverse loads and screens each sector in name order. The context is
// checked between sectors: on cancellation the sectors completed so far are
// returned together with the context error.
func (s *Screener) ScreenUniverse(ctx context.Context, p market.Provider, sectors map[string][]string, opts DataOptions) (UniverseResult, error) {
	var res UniverseResult
	for _, name := range universe.SortedSectors(sectors) {
		if err := ctx.Err(); err != nil {
			s.finish(&res)
			return res, err
		}

		req := opts.Request
		req.Symbols = sectors[name]
		raw, err := p.Fetch(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				s.finish(&res)
				return res, ctx.Err()
			}
			s.log.Warn().Err(err).Str("sector", name).Msg("price fetch failed, skipping sector")
			res.Skipped = append(res.Skipped, name)
			continue
		}

		table, err := market.Clean(raw, opts.MinHistory, opts.MinRows)
		if err != nil {
			if !errors.Is(err, market.ErrInsufficientData) {
				s.finish(&res)
				return res, err
			}
			s.log.Warn().Err(err).Str("sector", name).Msg("skipping sector")
			res.Skipped = append(res.Skipped, name)
			continue
		}

		res.Sectors = append(res.Sectors, s.ScreenSector(table, name))
	}
	s.finish(&res)
	return res, nil
}

func (s *Screener) finish(res *UniverseResult) {
	res.Candidates = res.Candidates[:0]
	for _, sr := range res.Sectors {
		res.Candidates = append(res.Candidates, sr.Candidates...)
	}
	SortCandidates(res.Candidates)
}

// Top returns at most n candidates from an already sorted list.
func Top(cs []Candidate, n int) []Candidate {
	if n <= 0 || n >= len(cs) {
		return cs
	}
	return cs[:n]
}
