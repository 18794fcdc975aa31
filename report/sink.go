package report

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	DefaultDir = "__reports__"
	sheetName  = "Results"
)

// Standard report names.
const (
	CandidatesReport = "pairs_trading_results"
	BacktestReport   = "backtest_pair_trading_results"
)

var ErrNoRecords = errors.New("report: no records")

// Sink writes record lists to <Dir>/<YYYY-MM-DD>/<name>_<YYYYMMDD>.xlsx.
type Sink struct {
	Dir    string
	Logger zerolog.Logger
	// Now is the clock used to partition files; defaults to time.Now.
	Now func() time.Time
}

func NewSink(dir string, log zerolog.Logger) *Sink {
	if dir == "" {
		dir = DefaultDir
	}
	return &Sink{
		Dir:    dir,
		Logger: log.With().Str("component", "report").Logger(),
		Now:    time.Now,
	}
}

// Path returns the file name a report called name is written to today.
func (s *Sink) Path(name string) string {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	base := strings.TrimSuffix(name, ".xlsx")
	return filepath.Join(s.Dir, now.Format("2006-01-02"), fmt.Sprintf("%s_%s.xlsx", base, now.Format("20060102")))
}

// Write saves records as one sheet with a header row taken from the first
// record's keys. An empty list writes nothing and returns "".
func (s *Sink) Write(name string, records []Record) (string, error) {
	if len(records) == 0 {
		s.Logger.Info().Str("report", name).Msg("no data to save")
		return "", nil
	}

	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("report: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return "", fmt.Errorf("report: %w", err)
	}

	keys := records[0].Keys()
	header := make([]any, len(keys))
	for i, k := range keys {
		header[i] = k
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return "", fmt.Errorf("report: header: %w", err)
	}

	for i, r := range records {
		row := make([]any, len(keys))
		for j, k := range keys {
			v, _ := r.Get(k)
			row[j] = cell(v)
		}
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		if err := f.SetSheetRow(sheetName, ref, &row); err != nil {
			return "", fmt.Errorf("report: row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("report: save %s: %w", path, err)
	}
	s.Logger.Info().Str("path", path).Int("rows", len(records)).Msg("results saved")
	return path, nil
}

// cell maps values excel cannot hold natively: infinities are written as
// text and NaN as an empty cell.
func cell(v any) any {
	switch n := v.(type) {
	case float64:
		switch {
		case math.IsNaN(n):
			return nil
		case math.IsInf(n, 1):
			return "inf"
		case math.IsInf(n, -1):
			return "-inf"
		}
	case *float64:
		if n == nil {
			return nil
		}
		return cell(*n)
	case time.Time:
		return n.Format("2006-01-02")
	}
	return v
}

// Read loads the first sheet of an xlsx report. Numeric cells become
// float64, "inf" becomes +Inf, empty cells are absent and everything else is
// a string.
func Read(path string) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("report: %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrNoRecords
	}

	header := rows[0]
	out := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		r := make(Record, len(header))
		for j, k := range header {
			var raw string
			if j < len(row) {
				raw = row[j]
			}
			r[j] = Field{Key: k, Value: parseCell(raw)}
		}
		out = append(out, r)
	}
	return out, nil
}

func parseCell(raw string) any {
	switch raw {
	case "":
		return nil
	case "inf":
		return math.Inf(1)
	case "-inf":
		return math.Inf(-1)
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	return raw
}
