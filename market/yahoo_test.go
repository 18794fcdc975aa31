package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{"timestamp":[1704186000,1704272400,1704358800],
"indicators":{"quote":[{"close":[10,11,12]}],"adjclose":[{"adjclose":[9.5,null,11.5]}]}}],"error":null}}`

func newTestYahoo(url string) *YahooProvider {
	return NewYahooProvider(YahooOptions{
		BaseURL:        url,
		Timeout:        2 * time.Second,
		RequestsPerSec: 1000,
		MaxElapsed:     10 * time.Second,
	}, zerolog.Nop())
}

func TestYahooFetchSeries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/KO", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	p := newTestYahoo(srv.URL)
	s, err := p.FetchSeries(context.Background(), "KO", day(0), day(10))
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, 9.5, s.Values[0])
	assert.Equal(t, 2, s.Valid())
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), s.Dates[0])
}

func TestYahooRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	s, err := newTestYahoo(srv.URL).FetchSeries(context.Background(), "KO", day(0), day(10))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestYahooFetchSkipsFailedInstruments(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if strings.HasSuffix(r.URL.Path, "/BAD") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	tbl, err := newTestYahoo(srv.URL).Fetch(context.Background(), Request{
		Symbols: []string{"KO", "BAD", "PEP"},
		Period:  "1y",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"KO", "PEP"}, tbl.Symbols)
	// 404 is permanent, so BAD is requested exactly once.
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestParseChartError(t *testing.T) {
	t.Parallel()

	_, err := parseChart("X", []byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}
