package journal

import (
	"database/sql"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, kind, created, start_date, end_date, config, sectors, tested, candidates, pairs, trades, total_pnl, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, string(r.Kind), r.Created, r.Start, r.End, r.Config,
		r.Sectors, r.Tested, r.Candidates, r.Pairs, r.Trades, r.TotalPnL, r.Notes,
	)
	return err
}

func (j *SQLite) RecordCandidate(c CandidateRecord) error {
	var hl any
	if c.HalfLife != nil {
		hl = *c.HalfLife
	}
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO candidates
		(run_id, sector, x, y, correlation, coint_pvalue, alt_pvalue, spread_adf, hedge_ratio, half_life, hurst, current_z)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.RunID, c.Sector, c.X, c.Y, c.Correlation, c.CointPValue, c.AltPValue,
		c.SpreadADF, c.HedgeRatio, hl, c.Hurst, nullable(c.CurrentZ),
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, x, y, side, entry_date, exit_date, entry_z, exit_z,
		 entry_price_x, entry_price_y, exit_price_x, exit_price_y, hedge_ratio,
		 shares_x, shares_y, pnl, pnl_pct, holding_days, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.X, t.Y, t.Side, t.EntryDate, t.ExitDate, t.EntryZ, t.ExitZ,
		t.EntryPriceX, t.EntryPriceY, t.ExitPriceX, t.ExitPriceY, t.HedgeRatio,
		t.SharesX, t.SharesY, t.PnL, t.PnLPct, t.HoldingDays, t.Reason,
	)
	return err
}

// RecordTrades inserts a batch of trades in one transaction.
func (j *SQLite) RecordTrades(trades []TradeRecord) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO trades
		(trade_id, run_id, x, y, side, entry_date, exit_date, entry_z, exit_z,
		 entry_price_x, entry_price_y, exit_price_x, exit_price_y, hedge_ratio,
		 shares_x, shares_y, pnl, pnl_pct, holding_days, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.Exec(
			t.TradeID, t.RunID, t.X, t.Y, t.Side, t.EntryDate, t.ExitDate, t.EntryZ, t.ExitZ,
			t.EntryPriceX, t.EntryPriceY, t.ExitPriceX, t.ExitPriceY, t.HedgeRatio,
			t.SharesX, t.SharesY, t.PnL, t.PnLPct, t.HoldingDays, t.Reason,
		); err != nil {
			return fmt.Errorf("journal: trade %s: %w", t.TradeID, err)
		}
	}
	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// nullable stores NaN as NULL.
func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
