package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

var tradeHeader = []string{
	"trade_id", "run_id", "stock_1", "stock_2", "side",
	"entry_date", "exit_date", "entry_z", "exit_z",
	"entry_price_1", "entry_price_2", "exit_price_1", "exit_price_2",
	"hedge_ratio", "shares_1", "shares_2", "pnl", "pnl_pct", "days_held", "exit_reason",
}

// CSV appends a flat trade ledger. Runs and candidates are not kept.
type CSV struct {
	w *csv.Writer
	f *os.File
}

// NewCSV opens path for appending. The header is written when the file is
// new or empty.
func NewCSV(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(tradeHeader); err != nil {
			_ = f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return &CSV{w: w, f: f}, nil
}

func (j *CSV) RecordRun(Run) error                   { return nil }
func (j *CSV) RecordCandidate(CandidateRecord) error { return nil }

func (j *CSV) RecordTrade(t TradeRecord) error {
	err := j.w.Write([]string{
		t.TradeID,
		t.RunID,
		t.X,
		t.Y,
		t.Side,
		t.EntryDate.Format(time.DateOnly),
		t.ExitDate.Format(time.DateOnly),
		f(t.EntryZ),
		f(t.ExitZ),
		f(t.EntryPriceX),
		f(t.EntryPriceY),
		f(t.ExitPriceX),
		f(t.ExitPriceY),
		f(t.HedgeRatio),
		f(t.SharesX),
		f(t.SharesY),
		f(t.PnL),
		f(t.PnLPct),
		strconv.Itoa(t.HoldingDays),
		t.Reason,
	})
	if err != nil {
		return fmt.Errorf("journal: csv: %w", err)
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSV) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		_ = j.f.Close()
		return err
	}
	return j.f.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
