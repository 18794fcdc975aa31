package report

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSink(t *testing.T) *Sink {
	s := NewSink(t.TempDir(), zerolog.Nop())
	s.Now = func() time.Time { return time.Date(2026, 3, 9, 15, 4, 5, 0, time.UTC) }
	return s
}

func TestSinkPath(t *testing.T) {
	t.Parallel()

	s := fixedSink(t)
	want := filepath.Join(s.Dir, "2026-03-09", "pairs_trading_results_20260309.xlsx")
	assert.Equal(t, want, s.Path(CandidatesReport))
	assert.Equal(t, want, s.Path(CandidatesReport+".xlsx"))
}

func TestSinkRoundTrip(t *testing.T) {
	t.Parallel()

	hl := 12.5
	records := []Record{
		{{Key: "Stock_1", Value: "KO"}, {Key: "Stock_2", Value: "PEP"}, {Key: "Coint_PValue", Value: 0.0018}, {Key: "Half_Life", Value: &hl}, {Key: "Trades", Value: 7}},
		{{Key: "Stock_1", Value: "XOM"}, {Key: "Stock_2", Value: "CVX"}, {Key: "Coint_PValue", Value: math.Inf(1)}, {Key: "Half_Life", Value: nil}, {Key: "Trades", Value: 0}},
	}

	s := fixedSink(t)
	path, err := s.Write(CandidatesReport, records)
	require.NoError(t, err)
	assert.Equal(t, s.Path(CandidatesReport), path)

	got, err := Read(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"Stock_1", "Stock_2", "Coint_PValue", "Half_Life", "Trades"}, got[0].Keys())

	assert.Equal(t, "KO", got[0].String("Stock_1"))
	p, ok := got[0].Float("Coint_PValue")
	require.True(t, ok)
	assert.InDelta(t, 0.0018, p, 1e-15)
	h, ok := got[0].Float("Half_Life")
	require.True(t, ok)
	assert.Equal(t, 12.5, h)
	n, _ := got[0].Float("Trades")
	assert.Equal(t, 7.0, n)

	inf, _ := got[1].Float("Coint_PValue")
	assert.True(t, math.IsInf(inf, 1))
	v, _ := got[1].Get("Half_Life")
	assert.Nil(t, v)
}

func TestSinkEmptyWritesNothing(t *testing.T) {
	t.Parallel()

	s := fixedSink(t)
	path, err := s.Write(BacktestReport, nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}

func TestCents(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 12.35, Cents(12.345))
	assert.Equal(t, -0.1, Cents(-0.099))
	assert.True(t, math.IsInf(Cents(math.Inf(1)), 1))
	assert.True(t, math.IsNaN(Cents(math.NaN())))
}
