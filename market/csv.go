package market

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CSVProvider reads one "<SYMBOL>.csv" file per instrument from Dir.
//
// Rows are date,close[,...]. A header row is allowed; when present, an
// "adj close" column is preferred over "close". Dates may be YYYY-MM-DD or
// RFC3339. Rows with an empty or unparsable close are treated as missing.
type CSVProvider struct {
	Dir    string
	Logger zerolog.Logger
}

func NewCSVProvider(dir string, log zerolog.Logger) *CSVProvider {
	return &CSVProvider{Dir: dir, Logger: log}
}

func (p *CSVProvider) Fetch(ctx context.Context, req Request) (*Table, error) {
	start, end := req.Window(time.Now())
	if req.Start.IsZero() && req.Period == "" {
		start = time.Time{}
	}

	var series []Series
	for _, sym := range req.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := ReadSeriesFile(filepath.Join(p.Dir, sym+".csv"), sym)
		if err != nil {
			p.Logger.Warn().Err(err).Str("symbol", sym).Msg("skipping instrument")
			continue
		}
		series = append(series, s.Between(start, end))
	}
	return NewTable(series...), nil
}

// Between returns the observations dated within [from, to]. Zero bounds are
// open.
func (s Series) Between(from, to time.Time) Series {
	out := Series{Symbol: s.Symbol}
	for i, d := range s.Dates {
		if !from.IsZero() && d.Before(Day(from)) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		out.Dates = append(out.Dates, d)
		out.Values = append(out.Values, s.Values[i])
	}
	return out
}

// ReadSeriesFile loads a single-instrument close series from a CSV file.
func ReadSeriesFile(path, symbol string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, err
	}
	defer f.Close()

	s, err := ReadSeries(f, symbol)
	if err != nil {
		return Series{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadSeries parses date,close rows from r.
func ReadSeries(r io.Reader, symbol string) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	s := Series{Symbol: symbol}
	closeCol := 1
	first := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Series{}, err
		}
		if len(row) < 2 {
			continue
		}

		if first {
			first = false
			if col, ok := headerCloseColumn(row); ok {
				closeCol = col
				continue
			}
		}

		d, err := parseDate(row[0])
		if err != nil {
			return Series{}, err
		}
		v := math.NaN()
		if closeCol < len(row) {
			if f, err := strconv.ParseFloat(strings.TrimSpace(row[closeCol]), 64); err == nil {
				v = f
			}
		}
		s.Dates = append(s.Dates, d)
		s.Values = append(s.Values, v)
	}
	if len(s.Dates) == 0 {
		return Series{}, errors.New("no rows")
	}
	sortSeries(&s)
	return s, nil
}

// headerCloseColumn reports whether row is a header and which column holds
// the close.
func headerCloseColumn(row []string) (int, bool) {
	h := strings.ToLower(strings.TrimSpace(row[0]))
	if h != "date" && h != "time" && h != "timestamp" {
		return 0, false
	}
	closeCol := 1
	for i, c := range row {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "adj close", "adj_close", "adjclose":
			return i, true
		case "close":
			closeCol = i
		}
	}
	return closeCol, true
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return Day(t), nil
}

// WriteSeries writes s as date,close rows with a header.
func WriteSeries(w io.Writer, s Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "close"}); err != nil {
		return err
	}
	for i, d := range s.Dates {
		if err := cw.Write([]string{
			d.Format("2006-01-02"),
			strconv.FormatFloat(s.Values[i], 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
