package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
)

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(runID string) (Run, error) {
	row := j.db.QueryRow(`
		SELECT run_id, kind, created, start_date, end_date, config, sectors, tested, candidates, pairs, trades, total_pnl, notes
		FROM runs
		WHERE run_id = ?`, runID)

	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("run %q not found", runID)
		}
		return Run{}, err
	}
	return r, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (j *SQLite) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(`
		SELECT run_id, kind, created, start_date, end_date, config, sectors, tested, candidates, pairs, trades, total_pnl, notes
		FROM runs
		ORDER BY run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r    Run
		kind string
	)
	err := s.Scan(
		&r.RunID,
		&kind,
		&r.Created,
		&r.Start,
		&r.End,
		&r.Config,
		&r.Sectors,
		&r.Tested,
		&r.Candidates,
		&r.Pairs,
		&r.Trades,
		&r.TotalPnL,
		&r.Notes,
	)
	r.Kind = RunKind(kind)
	return r, err
}

// ListCandidates returns a run's candidates, best cointegration p-value first.
func (j *SQLite) ListCandidates(runID string) ([]CandidateRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, sector, x, y, correlation, coint_pvalue, alt_pvalue, spread_adf, hedge_ratio, half_life, hurst, current_z
		FROM candidates
		WHERE run_id = ?
		ORDER BY coint_pvalue ASC, sector ASC, x ASC, y ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CandidateRecord
	for rows.Next() {
		var (
			c      CandidateRecord
			hl, cz sql.NullFloat64
		)
		if err := rows.Scan(
			&c.RunID,
			&c.Sector,
			&c.X,
			&c.Y,
			&c.Correlation,
			&c.CointPValue,
			&c.AltPValue,
			&c.SpreadADF,
			&c.HedgeRatio,
			&hl,
			&c.Hurst,
			&cz,
		); err != nil {
			return nil, err
		}
		if hl.Valid {
			v := hl.Float64
			c.HalfLife = &v
		}
		c.CurrentZ = math.NaN()
		if cz.Valid {
			c.CurrentZ = cz.Float64
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTrades returns a run's trades ordered by pair, then entry date.
func (j *SQLite) ListTrades(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, run_id, x, y, side, entry_date, exit_date, entry_z, exit_z,
		       entry_price_x, entry_price_y, exit_price_x, exit_price_y, hedge_ratio,
		       shares_x, shares_y, pnl, pnl_pct, holding_days, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY x ASC, y ASC, entry_date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(
			&t.TradeID,
			&t.RunID,
			&t.X,
			&t.Y,
			&t.Side,
			&t.EntryDate,
			&t.ExitDate,
			&t.EntryZ,
			&t.ExitZ,
			&t.EntryPriceX,
			&t.EntryPriceY,
			&t.ExitPriceX,
			&t.ExitPriceY,
			&t.HedgeRatio,
			&t.SharesX,
			&t.SharesY,
			&t.PnL,
			&t.PnLPct,
			&t.HoldingDays,
			&t.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
